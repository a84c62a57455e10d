// internal/domain/models/subscription.go
package models

import "time"

// Subscription is a billing plan an organization subscribes to.
// The ID doubles as the plan handle referenced from Organization.Subscription.
type Subscription struct {
	ID         string    `bson:"_id"` // plan handle, e.g. "starter"
	Name       string    `bson:"name"`
	PriceCents int64     `bson:"price_cents"`
	Interval   string    `bson:"interval"` // month | year
	Status     string    `bson:"status"`   // active | retired
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}
