// internal/app/store/subscriptions/subscriptionstore.go
package subscriptionstore

import (
	"context"
	"errors"
	"time"

	"github.com/buildrite/buildrite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("subscription plan not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("subscriptions")}
}

func (s *Store) GetByID(ctx context.Context, id string) (models.Subscription, error) {
	var sub models.Subscription
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sub)
	if err == mongo.ErrNoDocuments {
		return models.Subscription{}, ErrNotFound
	}
	if err != nil {
		return models.Subscription{}, err
	}
	return sub, nil
}

// Exists reports whether an active plan with the given handle exists.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id, "status": "active"}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns all plans, active and retired.
func (s *Store) List(ctx context.Context) ([]models.Subscription, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var subs []models.Subscription
	if err := cur.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// Seed upserts the given plans. Called from EnsureSchema so a fresh
// deployment has something to provision against.
func (s *Store) Seed(ctx context.Context, plans []models.Subscription) error {
	now := time.Now().UTC()
	for _, p := range plans {
		if p.Status == "" {
			p.Status = "active"
		}
		p.UpdatedAt = now
		_, err := s.c.UpdateByID(ctx, p.ID, bson.M{
			"$set": bson.M{
				"name":        p.Name,
				"price_cents": p.PriceCents,
				"interval":    p.Interval,
				"status":      p.Status,
				"updated_at":  p.UpdatedAt,
			},
			"$setOnInsert": bson.M{"created_at": now},
		}, options.Update().SetUpsert(true))
		if err != nil {
			return err
		}
	}
	return nil
}
