// internal/domain/models/organization.go
package models

import "time"

// OrgSizes is the fixed set of headcount buckets an organization may declare.
// Any other value is rejected at the boundary before provisioning starts.
var OrgSizes = []string{"1-10", "11-50", "51-200", "201-500", "501-1000", "1001+"}

// ValidOrgSize reports whether size is one of the enumerated buckets.
func ValidOrgSize(size string) bool {
	for _, s := range OrgSizes {
		if s == size {
			return true
		}
	}
	return false
}

// Organization is a tenant account grouping members, projects, leads,
// blueprints, and a billing relationship.
//
// IDs are opaque UUID strings (not ObjectIDs) so references can be shared
// with external systems without exposing Mongo internals.
//
// Invariants maintained by the provisioning path:
//   - StripeCustomerID is set before the document is ever inserted.
//   - Owner is always present in Members.
type Organization struct {
	ID         string `bson:"_id"`
	Owner      string `bson:"owner"` // User ID
	Name       string `bson:"name"`
	NameCI     string `bson:"name_ci"` // lowercase, diacritics-stripped
	Industry   string `bson:"industry"`
	Size       string `bson:"size"` // one of OrgSizes

	Members    []string `bson:"members"`    // User IDs, owner always included
	Projects   []string `bson:"projects"`   // Project IDs
	Leads      []string `bson:"leads"`      // Lead IDs
	Blueprints []string `bson:"blueprints"` // Blueprint IDs

	Subscription string `bson:"subscription"` // Subscription plan ID, required

	// Billing linkage. Customer ID is set at creation; the rest are filled
	// in when a payment method is attached.
	StripeCustomerID      string `bson:"stripe_customer_id"`
	StripeSubscriptionID  string `bson:"stripe_subscription_id,omitempty"`
	StripePaymentMethodID string `bson:"stripe_payment_method_id,omitempty"`
	StripeCardBrand       string `bson:"stripe_card_brand,omitempty"`
	StripePaymentLast4    string `bson:"stripe_payment_last4,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// HasMember reports whether the given user ID is in the members list.
func (o Organization) HasMember(userID string) bool {
	for _, m := range o.Members {
		if m == userID {
			return true
		}
	}
	return false
}
