// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"errors"
	"time"

	"github.com/buildrite/buildrite/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound              = errors.New("organization not found")
	ErrDuplicateOrganization = errors.New("an organization with this name already exists")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organizations")}
}

// EnsureIndexes creates the unique name index used for duplicate detection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_org_name_ci"),
		},
		{
			Keys:    bson.D{{Key: "members", Value: 1}},
			Options: options.Index().SetName("idx_org_members"),
		},
	})
	return err
}

// Create inserts a new organization in a single write. The owner is folded
// into the members list here so no reader can ever observe an organization
// whose owner is missing from members.
func (s *Store) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	now := time.Now().UTC()
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	org.NameCI = text.Fold(org.Name)
	if org.Owner != "" && !org.HasMember(org.Owner) {
		org.Members = append([]string{org.Owner}, org.Members...)
	}
	if org.Projects == nil {
		org.Projects = []string{}
	}
	if org.Leads == nil {
		org.Leads = []string{}
	}
	if org.Blueprints == nil {
		org.Blueprints = []string{}
	}
	org.CreatedAt = now
	org.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, org)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Organization{}, ErrDuplicateOrganization
		}
		return models.Organization{}, err
	}
	return org, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (models.Organization, error) {
	var org models.Organization
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&org)
	if err == mongo.ErrNoDocuments {
		return models.Organization{}, ErrNotFound
	}
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// EnsureMember adds a user to the members list if not already present and
// refreshes UpdatedAt. Adding an existing member is a no-op.
func (s *Store) EnsureMember(ctx context.Context, id, userID string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{"members": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// BillingFields holds the Stripe payment linkage written once a payment
// method has been attached to the organization's billing customer.
type BillingFields struct {
	SubscriptionID  string
	PaymentMethodID string
	CardBrand       string
	PaymentLast4    string
}

// SetBillingFields records the payment-method linkage on the organization.
// Empty fields are left untouched.
func (s *Store) SetBillingFields(ctx context.Context, id string, f BillingFields) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if f.SubscriptionID != "" {
		set["stripe_subscription_id"] = f.SubscriptionID
	}
	if f.PaymentMethodID != "" {
		set["stripe_payment_method_id"] = f.PaymentMethodID
	}
	if f.CardBrand != "" {
		set["stripe_card_brand"] = f.CardBrand
	}
	if f.PaymentLast4 != "" {
		set["stripe_payment_last4"] = f.PaymentLast4
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsByNameCI checks if an organization with the given case-insensitive name exists.
func (s *Store) ExistsByNameCI(ctx context.Context, nameCI string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"name_ci": nameCI}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindByMember returns all organizations the given user belongs to.
func (s *Store) FindByMember(ctx context.Context, userID string) ([]models.Organization, error) {
	cur, err := s.c.Find(ctx, bson.M{"members": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var orgs []models.Organization
	if err := cur.All(ctx, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// Delete removes an organization by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Count returns the number of organizations matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
