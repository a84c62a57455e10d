// Package provision creates organizations as a single logical operation:
// an external billing customer followed by the local document. The two
// writes are not transactional; on persistence failure the billing customer
// is deleted again, and if even that fails its id is carried on the error
// for reconciliation.
package provision

import (
	"context"
	"time"

	"github.com/buildrite/buildrite/internal/app/system/billing"
	"github.com/buildrite/buildrite/internal/app/system/inputval"
	"github.com/buildrite/buildrite/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrganizationStore is the slice of the organizations store the provisioner
// needs. Satisfied by *organizationstore.Store.
type OrganizationStore interface {
	Create(ctx context.Context, org models.Organization) (models.Organization, error)
	EnsureMember(ctx context.Context, id, userID string) error
}

// UserDirectory answers whether a user exists. Satisfied by *userstore.Store.
type UserDirectory interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// PlanCatalog answers whether a subscription plan exists.
// Satisfied by *subscriptionstore.Store.
type PlanCatalog interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Input is the organization-creation request. Owner is the requesting user
// and becomes the sole initial member.
type Input struct {
	Owner        string `validate:"required" label:"owner"`
	Name         string `validate:"required,max=200" label:"name"`
	Industry     string `validate:"required,max=100" label:"industry"`
	Size         string `validate:"required,orgsize" label:"size"`
	Subscription string `validate:"required" label:"subscription"`
}

// Provisioner orchestrates organization creation against the billing
// gateway and the local stores. All collaborators are injected so tests can
// substitute fakes.
type Provisioner struct {
	gateway billing.Gateway
	orgs    OrganizationStore
	users   UserDirectory
	plans   PlanCatalog
	log     *zap.Logger

	// compensateTimeout bounds the cleanup delete after a failed insert.
	compensateTimeout time.Duration
}

// New builds a Provisioner.
func New(gw billing.Gateway, orgs OrganizationStore, users UserDirectory, plans PlanCatalog, logger *zap.Logger) *Provisioner {
	return &Provisioner{
		gateway:           gw,
		orgs:              orgs,
		users:             users,
		plans:             plans,
		log:               logger,
		compensateTimeout: 10 * time.Second,
	}
}

// CreateOrganization validates the input, creates the billing customer, and
// persists the organization with the owner as its first member.
//
// Failure modes:
//   - *ValidationError: rejected before any side effect.
//   - *ExternalServiceError: billing call failed, nothing persisted.
//   - *ProvisioningError: billing customer exists but the local write
//     failed; the error says whether the customer was cleaned up.
func (p *Provisioner) CreateOrganization(ctx context.Context, in Input) (models.Organization, error) {
	in.Name = inputval.Sanitize(in.Name)
	in.Industry = inputval.Sanitize(in.Industry)

	if result := inputval.Validate(in); result.HasErrors() {
		return models.Organization{}, &ValidationError{Field: "input", Reason: result.First()}
	}

	ok, err := p.users.Exists(ctx, in.Owner)
	if err != nil {
		return models.Organization{}, err
	}
	if !ok {
		return models.Organization{}, &ValidationError{Field: "owner", Reason: "owner must reference an existing user"}
	}

	ok, err = p.plans.Exists(ctx, in.Subscription)
	if err != nil {
		return models.Organization{}, err
	}
	if !ok {
		return models.Organization{}, &ValidationError{Field: "subscription", Reason: "subscription must reference an existing plan"}
	}

	// The idempotency key makes a transport-level retry of this exact
	// request safe on the billing side.
	idemKey := uuid.NewString()

	cust, err := p.gateway.CreateCustomer(ctx, "Account for "+in.Name, idemKey)
	if err != nil {
		p.log.Error("billing customer creation failed",
			zap.String("org_name", in.Name),
			zap.Error(err))
		return models.Organization{}, &ExternalServiceError{Err: err}
	}

	org := models.Organization{
		Owner:            in.Owner,
		Name:             in.Name,
		Industry:         in.Industry,
		Size:             in.Size,
		Subscription:     in.Subscription,
		StripeCustomerID: cust.ID,
	}

	// Single insert with members=[owner], so no reader observes an
	// organization whose owner is missing from members.
	created, err := p.orgs.Create(ctx, org)
	if err != nil {
		return models.Organization{}, p.compensate(cust.ID, err)
	}

	p.log.Info("organization provisioned",
		zap.String("org_id", created.ID),
		zap.String("owner", created.Owner),
		zap.String("stripe_customer_id", created.StripeCustomerID))

	return created, nil
}

// compensate deletes the billing customer created for a failed insert. The
// delete runs on a fresh context: the request context may already be dead,
// and cleanup should still be attempted.
func (p *Provisioner) compensate(customerID string, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.compensateTimeout)
	defer cancel()

	if err := p.gateway.DeleteCustomer(ctx, customerID); err != nil {
		p.log.Error("orphaned billing customer: persistence and compensating delete both failed",
			zap.String("stripe_customer_id", customerID),
			zap.NamedError("persist_error", cause),
			zap.NamedError("delete_error", err))
		return &ProvisioningError{StripeCustomerID: customerID, Compensated: false, Err: cause}
	}

	p.log.Warn("organization persistence failed, billing customer removed",
		zap.String("stripe_customer_id", customerID),
		zap.Error(cause))
	return &ProvisioningError{StripeCustomerID: customerID, Compensated: true, Err: cause}
}
