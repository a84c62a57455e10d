// internal/app/features/organizations/paymentmethod.go
package organizations

import (
	"context"
	"encoding/json"
	"net/http"

	organizationstore "github.com/buildrite/buildrite/internal/app/store/organizations"
	"github.com/buildrite/buildrite/internal/app/system/auth"
	"github.com/buildrite/buildrite/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// attachPaymentMethodRequest carries the tokenized payment method produced
// by the frontend's Stripe integration. Raw card data never reaches this
// backend.
type attachPaymentMethodRequest struct {
	PaymentMethodID string `json:"payment_method_id"`
}

// HandleAttachPaymentMethod processes POST /organizations/{id}/payment-method.
// Only the owner may change billing. The method is attached to the
// organization's billing customer, then the card summary is persisted.
func (h *Handler) HandleAttachPaymentMethod(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "sign in required")
		return
	}

	id := chi.URLParam(r, "id")

	var req attachPaymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PaymentMethodID == "" {
		h.writeError(w, http.StatusBadRequest, "payment_method_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	org, err := h.Orgs.GetByID(ctx, id)
	if err == organizationstore.ErrNotFound {
		h.writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	if err != nil {
		h.Log.Error("failed to load organization", zap.Error(err), zap.String("org_id", id))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if org.Owner != u.ID {
		h.writeError(w, http.StatusForbidden, "only the owner may change billing")
		return
	}

	xctx, xcancel := context.WithTimeout(r.Context(), timeouts.External())
	defer xcancel()

	pm, err := h.Billing.AttachPaymentMethod(xctx, org.StripeCustomerID, req.PaymentMethodID)
	if err != nil {
		h.Log.Error("failed to attach payment method",
			zap.Error(err),
			zap.String("org_id", id),
			zap.String("stripe_customer_id", org.StripeCustomerID))
		h.writeError(w, http.StatusBadGateway, "billing service unavailable")
		return
	}

	wctx, wcancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer wcancel()

	err = h.Orgs.SetBillingFields(wctx, id, organizationstore.BillingFields{
		PaymentMethodID: pm.ID,
		CardBrand:       pm.CardBrand,
		PaymentLast4:    pm.Last4,
	})
	if err != nil {
		h.Log.Error("failed to persist payment method fields",
			zap.Error(err),
			zap.String("org_id", id))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	org, err = h.Orgs.GetByID(wctx, id)
	if err != nil {
		h.Log.Error("failed to reload organization", zap.Error(err), zap.String("org_id", id))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeJSON(w, http.StatusOK, toResponse(org))
}
