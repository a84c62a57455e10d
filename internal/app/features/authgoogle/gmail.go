// internal/app/features/authgoogle/gmail.go
package authgoogle

import (
	"context"
	"net/http"

	"github.com/buildrite/buildrite/internal/app/store/oauthstate"
	"github.com/buildrite/buildrite/internal/app/system/timeouts"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/google/gmail-cb — exchange the elevated-scope authorization       |
| result and persist the access/refresh credential against the account that   |
| initiated the consent.                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeGmailCallback handles POST /auth/google/gmail-cb.
//
// The owning account comes from the consumed state token, not from the
// session: the browser may come back on a different instance, and the state
// is the one thing that provably crossed the redirect boundary.
func (h *Handler) ServeGmailCallback(w http.ResponseWriter, r *http.Request) {
	st, tok, ok := h.exchangeToken(w, r, oauthstate.IntentGmail)
	if !ok {
		return
	}

	if st.UserID == "" {
		// A gmail state is only ever minted for a signed-in user; an empty
		// user id means the token predates that rule or was tampered with.
		h.Log.Warn("gmail consent state has no user id")
		h.writeError(w, http.StatusUnauthorized, "invalid or expired state")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Creds.Upsert(ctx, st.UserID, tok, gmailScope); err != nil {
		h.Log.Error("failed to store gmail credential",
			zap.Error(err),
			zap.String("user_id", st.UserID))
		h.writeError(w, http.StatusInternalServerError, "could not store mailbox credential")
		return
	}

	h.Log.Info("gmail mailbox connected",
		zap.String("user_id", st.UserID),
		zap.Bool("has_refresh_token", tok.RefreshToken != ""))

	h.writeJSON(w, http.StatusOK, map[string]any{"connected": true})
}
