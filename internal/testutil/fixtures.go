package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/buildrite/buildrite/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// CreateUser creates a test user with the given email.
func (f *Fixtures) CreateUser(ctx context.Context, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:        uuid.NewString(),
		FullName:  "Test User",
		Email:     email,
		EmailCI:   text.Fold(email),
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateGoogleUser creates a test user linked to a Google subject ID.
func (f *Fixtures) CreateGoogleUser(ctx context.Context, email, googleID string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:        uuid.NewString(),
		FullName:  "Test Google User",
		Email:     email,
		EmailCI:   text.Fold(email),
		GoogleID:  googleID,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateSubscription creates an active test plan with the given handle.
func (f *Fixtures) CreateSubscription(ctx context.Context, id string) models.Subscription {
	f.t.Helper()

	now := time.Now().UTC()
	sub := models.Subscription{
		ID:         id,
		Name:       "Test Plan",
		PriceCents: 4900,
		Interval:   "month",
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("subscriptions").InsertOne(ctx, sub); err != nil {
		f.t.Fatalf("failed to create test subscription: %v", err)
	}
	return sub
}

// CreateOrganization creates a test organization owned by the given user.
func (f *Fixtures) CreateOrganization(ctx context.Context, name, ownerID string) models.Organization {
	f.t.Helper()

	now := time.Now().UTC()
	org := models.Organization{
		ID:               uuid.NewString(),
		Owner:            ownerID,
		Name:             name,
		NameCI:           text.Fold(name),
		Industry:         "Construction",
		Size:             "11-50",
		Members:          []string{ownerID},
		Projects:         []string{},
		Leads:            []string{},
		Blueprints:       []string{},
		Subscription:     "team",
		StripeCustomerID: "cus_test_" + uuid.NewString()[:8],
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if _, err := f.db.Collection("organizations").InsertOne(ctx, org); err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}
	return org
}
