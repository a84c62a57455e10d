// internal/app/features/organizations/create.go
package organizations

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/buildrite/buildrite/internal/app/system/auth"
	"github.com/buildrite/buildrite/internal/app/system/provision"
	"go.uber.org/zap"
)

// createRequest is the organization-creation payload. The owner is always
// the requesting user, never taken from the body.
type createRequest struct {
	Name         string `json:"name"`
	Industry     string `json:"industry"`
	Size         string `json:"size"`
	Subscription string `json:"subscription"`
}

// HandleCreate processes POST /organizations.
//
// The heavy lifting lives in the provisioner; this handler only binds the
// request to the signed-in user and maps the failure taxonomy to statuses:
// validation → 400, billing gateway unreachable → 502, persistence after
// the billing side effect → 500 (the error already names the customer id
// for reconciliation).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	org, err := h.Provisioner.CreateOrganization(r.Context(), provision.Input{
		Owner:        u.ID,
		Name:         req.Name,
		Industry:     req.Industry,
		Size:         req.Size,
		Subscription: req.Subscription,
	})
	if err != nil {
		status := provision.StatusCode(err)

		var ve *provision.ValidationError
		if errors.As(err, &ve) {
			h.writeError(w, status, ve.Reason)
			return
		}

		var pe *provision.ProvisioningError
		if errors.As(err, &pe) {
			// The provisioner already logged the orphan details.
			h.writeError(w, status, "could not create organization")
			return
		}

		var ese *provision.ExternalServiceError
		if errors.As(err, &ese) {
			h.writeError(w, status, "billing service unavailable")
			return
		}

		h.Log.Error("organization creation failed", zap.Error(err))
		h.writeError(w, status, "could not create organization")
		return
	}

	h.writeJSON(w, http.StatusCreated, toResponse(org))
}
