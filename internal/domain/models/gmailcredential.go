// internal/domain/models/gmailcredential.go
package models

import "time"

// GmailCredential holds the delegated mailbox-access token pair obtained
// through the Gmail consent flow. One document per user, upserted on each
// successful consent.
type GmailCredential struct {
	UserID       string    `bson:"_id"` // User ID
	AccessToken  string    `bson:"access_token"`
	RefreshToken string    `bson:"refresh_token,omitempty"`
	TokenType    string    `bson:"token_type,omitempty"`
	Expiry       time.Time `bson:"expiry,omitempty"`
	Scope        string    `bson:"scope,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}
