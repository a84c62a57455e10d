// internal/app/store/credentials/store.go
package credentials

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/buildrite/buildrite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/oauth2"
)

// Store manages delegated Gmail credentials in MongoDB.
type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("gmail credential not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("gmail_credentials")}
}

// Upsert stores the token pair for a user, replacing any previous grant.
// The refresh token is only overwritten when the new grant includes one;
// Google omits it on re-consent unless offline access is re-prompted.
func (s *Store) Upsert(ctx context.Context, userID string, tok *oauth2.Token, scope string) error {
	now := time.Now().UTC()
	set := bson.M{
		"access_token": tok.AccessToken,
		"token_type":   tok.TokenType,
		"expiry":       tok.Expiry.UTC(),
		"scope":        scope,
		"updated_at":   now,
	}
	if tok.RefreshToken != "" {
		set["refresh_token"] = tok.RefreshToken
	}
	_, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": now},
	}, options.Update().SetUpsert(true))
	return err
}

// GetByUserID returns the stored credential for a user.
func (s *Store) GetByUserID(ctx context.Context, userID string) (models.GmailCredential, error) {
	var cred models.GmailCredential
	err := s.c.FindOne(ctx, bson.M{"_id": userID}).Decode(&cred)
	if err == mongo.ErrNoDocuments {
		return models.GmailCredential{}, ErrNotFound
	}
	if err != nil {
		return models.GmailCredential{}, err
	}
	return cred, nil
}

// Delete removes a user's stored credential (consent revoked).
func (s *Store) Delete(ctx context.Context, userID string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": userID})
	return err
}

// HasScope reports whether the stored credential's scope string includes
// the given scope.
func HasScope(cred models.GmailCredential, scope string) bool {
	for _, s := range strings.Fields(cred.Scope) {
		if s == scope {
			return true
		}
	}
	return false
}
