// internal/app/features/organizations/view.go
package organizations

import (
	"context"
	"net/http"

	organizationstore "github.com/buildrite/buildrite/internal/app/store/organizations"
	"github.com/buildrite/buildrite/internal/app/system/auth"
	"github.com/buildrite/buildrite/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ServeView handles GET /organizations/{id}. Only members may read an
// organization.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "sign in required")
		return
	}

	id := chi.URLParam(r, "id")

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

	if !org.HasMember(u.ID) {
		h.writeError(w, http.StatusForbidden, "not a member of this organization")
		return
	}

	h.writeJSON(w, http.StatusOK, toResponse(org))
}

// ServeList handles GET /organizations: the organizations the signed-in
// user belongs to.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	orgs, err := h.Orgs.FindByMember(ctx, u.ID)
	if err != nil {
		h.Log.Error("failed to list organizations", zap.Error(err), zap.String("user_id", u.ID))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]orgResponse, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, toResponse(org))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"organizations": out})
}
