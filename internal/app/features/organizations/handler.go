// internal/app/features/organizations/handler.go
package organizations

import (
	"encoding/json"
	"net/http"

	organizationstore "github.com/buildrite/buildrite/internal/app/store/organizations"
	"github.com/buildrite/buildrite/internal/app/system/billing"
	"github.com/buildrite/buildrite/internal/app/system/provision"
	"github.com/buildrite/buildrite/internal/domain/models"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for Organizations.
type Handler struct {
	Provisioner *provision.Provisioner
	Orgs        *organizationstore.Store
	Billing     billing.Gateway
	Log         *zap.Logger
}

// NewHandler constructs an Organizations handler.
func NewHandler(p *provision.Provisioner, orgs *organizationstore.Store, gw billing.Gateway, logger *zap.Logger) *Handler {
	return &Handler{
		Provisioner: p,
		Orgs:        orgs,
		Billing:     gw,
		Log:         logger,
	}
}

// orgResponse is the JSON shape an organization is rendered as.
type orgResponse struct {
	ID                    string   `json:"id"`
	Owner                 string   `json:"owner"`
	Name                  string   `json:"name"`
	Industry              string   `json:"industry"`
	Size                  string   `json:"size"`
	Members               []string `json:"members"`
	Projects              []string `json:"projects"`
	Leads                 []string `json:"leads"`
	Blueprints            []string `json:"blueprints"`
	Subscription          string   `json:"subscription"`
	StripeCustomerID      string   `json:"stripe_customer_id"`
	StripePaymentMethodID string   `json:"stripe_payment_method_id,omitempty"`
	StripeCardBrand       string   `json:"stripe_card_brand,omitempty"`
	StripePaymentLast4    string   `json:"stripe_payment_last4,omitempty"`
	CreatedAt             string   `json:"created_at"`
	UpdatedAt             string   `json:"updated_at"`
}

func toResponse(org models.Organization) orgResponse {
	return orgResponse{
		ID:                    org.ID,
		Owner:                 org.Owner,
		Name:                  org.Name,
		Industry:              org.Industry,
		Size:                  org.Size,
		Members:               org.Members,
		Projects:              org.Projects,
		Leads:                 org.Leads,
		Blueprints:            org.Blueprints,
		Subscription:          org.Subscription,
		StripeCustomerID:      org.StripeCustomerID,
		StripePaymentMethodID: org.StripePaymentMethodID,
		StripeCardBrand:       org.StripeCardBrand,
		StripePaymentLast4:    org.StripePaymentLast4,
		CreatedAt:             org.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:             org.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]any{"error": msg, "status": status})
}
