// internal/app/features/authgoogle/initiate.go
package authgoogle

import (
	"context"
	"net/http"
	"time"

	"github.com/buildrite/buildrite/internal/app/store/oauthstate"
	"github.com/buildrite/buildrite/internal/app/system/auth"
	"github.com/buildrite/buildrite/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/google/signin    — begin provider authorization, existing account |
| POST /auth/google/register  — begin provider authorization, new account      |
| POST /auth/google/gmail     — begin elevated mailbox-consent authorization   |
|                                                                              |
| Each initiate mints a one-time state token, persists it with the typed flow  |
| intent, and returns the provider authorization URL. The callback endpoints   |
| later recover the intent from the consumed state.                            |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeSignIn handles POST /auth/google/signin.
func (h *Handler) ServeSignIn(w http.ResponseWriter, r *http.Request) {
	h.initiate(w, r, oauthstate.IntentSignIn, "")
}

// ServeRegister handles POST /auth/google/register.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	h.initiate(w, r, oauthstate.IntentRegister, "")
}

// ServeGmail handles POST /auth/google/gmail. Unlike the identity flows it
// requires a signed-in user: the resulting credential is stored against the
// account that asked for it, so the account must be known before redirect.
func (h *Handler) ServeGmail(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "sign in before connecting Gmail")
		return
	}
	h.initiate(w, r, oauthstate.IntentGmail, u.ID)
}

func (h *Handler) initiate(w http.ResponseWriter, r *http.Request, intent oauthstate.Intent, userID string) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		h.writeError(w, http.StatusServiceUnavailable, "google sign-in is not configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	returnURL := query.Get(r, "return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(h.StateTTL)
	if err := h.StateStore.Save(ctx, state, intent, returnURL, userID, expiresAt); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
	if intent == oauthstate.IntentGmail {
		// Force the consent screen so Google issues a refresh token even
		// when the user granted the scope before.
		opts = append(opts, oauth2.ApprovalForce)
	}
	authURL := h.configFor(intent).AuthCodeURL(state, opts...)

	h.Log.Debug("initiating Google OAuth flow",
		zap.String("intent", string(intent)),
		zap.String("return_url", returnURL))

	h.writeJSON(w, http.StatusOK, map[string]any{"auth_url": authURL})
}
