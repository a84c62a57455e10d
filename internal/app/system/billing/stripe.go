// internal/app/system/billing/stripe.go
package billing

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"go.uber.org/zap"
)

// StripeGateway implements Gateway against the Stripe API. It holds its own
// client rather than using the SDK's package-level key so tests and multiple
// environments can run side by side.
type StripeGateway struct {
	api *client.API
	log *zap.Logger
}

// NewStripeGateway builds a gateway from an API key.
func NewStripeGateway(apiKey string, logger *zap.Logger) *StripeGateway {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeGateway{api: api, log: logger}
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, description, idempotencyKey string) (Customer, error) {
	params := &stripe.CustomerParams{
		Params:      stripe.Params{Context: ctx},
		Description: stripe.String(description),
	}
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	cust, err := g.api.Customers.New(params)
	if err != nil {
		return Customer{}, fmt.Errorf("stripe create customer: %w", err)
	}
	g.log.Debug("stripe customer created", zap.String("customer_id", cust.ID))
	return Customer{ID: cust.ID}, nil
}

func (g *StripeGateway) DeleteCustomer(ctx context.Context, customerID string) error {
	params := &stripe.CustomerParams{Params: stripe.Params{Context: ctx}}
	if _, err := g.api.Customers.Del(customerID, params); err != nil {
		return fmt.Errorf("stripe delete customer %s: %w", customerID, err)
	}
	return nil
}

func (g *StripeGateway) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (PaymentMethod, error) {
	params := &stripe.PaymentMethodAttachParams{
		Params:   stripe.Params{Context: ctx},
		Customer: stripe.String(customerID),
	}
	pm, err := g.api.PaymentMethods.Attach(paymentMethodID, params)
	if err != nil {
		return PaymentMethod{}, fmt.Errorf("stripe attach payment method: %w", err)
	}
	out := PaymentMethod{ID: pm.ID}
	if pm.Card != nil {
		out.CardBrand = string(pm.Card.Brand)
		out.Last4 = pm.Card.Last4
	}
	return out, nil
}
