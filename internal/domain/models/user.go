// internal/domain/models/user.go
package models

import "time"

// User represents an account holder. Accounts are created through the
// Google register flow; there is no password credential.
type User struct {
	ID       string `bson:"_id"`
	FullName string `bson:"full_name"`
	Email    string `bson:"email"`
	EmailCI  string `bson:"email_ci"` // lowercase, diacritics-stripped

	// GoogleID is the stable subject identifier from Google's userinfo
	// endpoint. Set on register, backfilled on first Google sign-in for
	// accounts that predate the linkage.
	GoogleID string `bson:"google_id,omitempty"`

	Status         string `bson:"status,omitempty"` // active | disabled
	OrganizationID string `bson:"organization_id,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}
