// internal/app/store/oauthstate/store.go
package oauthstate

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Intent identifies which OAuth flow a state token was minted for. The two
// callback endpoints are shared entry points, so the intent stored with the
// state is the only thing that ties a callback to the flow that started it.
type Intent string

const (
	IntentSignIn   Intent = "signin"
	IntentRegister Intent = "register"
	IntentGmail    Intent = "gmail"
)

// State represents a one-time OAuth2 state token stored for CSRF protection
// and flow-intent tracking across the provider redirect boundary.
type State struct {
	State     string    `bson:"state"`
	Intent    Intent    `bson:"intent"`
	ReturnURL string    `bson:"return_url,omitempty"`
	UserID    string    `bson:"user_id,omitempty"` // set for flows that require a signed-in user (gmail)
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// Store manages OAuth2 state tokens in MongoDB.
type Store struct {
	c *mongo.Collection
}

// New creates a new OAuth state Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states")}
}

// EnsureIndexes creates indexes for efficient querying and TTL expiration.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_oauth_state"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_oauth_ttl"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Save stores a state token with the given intent and expiration time.
func (s *Store) Save(ctx context.Context, state string, intent Intent, returnURL, userID string, expiresAt time.Time) error {
	st := State{
		State:     state,
		Intent:    intent,
		ReturnURL: returnURL,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.c.InsertOne(ctx, st)
	return err
}

// Consume checks if a state token exists and is not expired. If valid, it
// deletes the token (one-time use) and returns the stored record. A missing
// or expired token yields ok=false with a nil error.
func (s *Store) Consume(ctx context.Context, state string) (State, bool, error) {
	var st State
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&st)

	if err == mongo.ErrNoDocuments {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}
	return st, true, nil
}

// CleanupExpired removes expired state tokens.
// This is a backup for when TTL index cleanup is delayed.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.c.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lt": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
