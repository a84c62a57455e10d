// Package billing wraps the external payment processor behind a small
// capability interface so the provisioning path can be tested without
// network calls. The production implementation is Stripe.
package billing

import "context"

// Customer is the minimal view of an external billing-customer record the
// application cares about.
type Customer struct {
	ID string
}

// PaymentMethod is the card summary recorded on an organization once a
// payment method has been attached.
type PaymentMethod struct {
	ID        string
	CardBrand string
	Last4     string
}

// Gateway is the billing capability consumed by the provisioner and the
// organizations feature. Implementations must honour ctx cancellation.
//
// CreateCustomer takes a caller-supplied idempotency key; retrying with the
// same key must not mint a duplicate customer.
type Gateway interface {
	CreateCustomer(ctx context.Context, description, idempotencyKey string) (Customer, error)
	DeleteCustomer(ctx context.Context, customerID string) error
	AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (PaymentMethod, error)
}
