// internal/app/features/authgoogle/callback.go
package authgoogle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/buildrite/buildrite/internal/app/store/oauthstate"
	userstore "github.com/buildrite/buildrite/internal/app/store/users"
	"github.com/buildrite/buildrite/internal/app/system/auth"
	"github.com/buildrite/buildrite/internal/app/system/timeouts"
	"github.com/buildrite/buildrite/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/google/cb/signin   — exchange authorization result, sign in       |
| POST /auth/google/cb/register — exchange authorization result, new account   |
|                                                                              |
| The callback endpoints are shared entry points: which flow is in flight is   |
| recovered from the consumed state token, never inferred from request shape.  |
| A callback whose state decodes to a different intent is rejected.            |
*─────────────────────────────────────────────────────────────────────────────*/

// callbackRequest is the authorization result relayed by the frontend after
// Google redirects back to it.
type callbackRequest struct {
	State string `json:"state"`
	Code  string `json:"code"`
	Error string `json:"error,omitempty"`
}

var (
	errUserNotFound = errors.New("user not found")
	errUserDisabled = errors.New("user disabled")
)

// ServeSignInCallback handles POST /auth/google/cb/signin.
func (h *Handler) ServeSignInCallback(w http.ResponseWriter, r *http.Request) {
	googleUser, ok := h.exchange(w, r, oauthstate.IntentSignIn)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.findUser(ctx, googleUser)
	if err != nil {
		switch err {
		case errUserNotFound:
			h.Log.Info("Google sign-in: no account",
				zap.String("google_id", googleUser.ID),
				zap.String("email", googleUser.Email))
			h.writeError(w, http.StatusNotFound, "no account for this Google identity; register first")
		case errUserDisabled:
			h.writeError(w, http.StatusForbidden, "account is disabled")
		default:
			h.Log.Error("failed to look up user", zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	h.establishSession(w, r, user, http.StatusOK)
}

// ServeRegisterCallback handles POST /auth/google/cb/register.
func (h *Handler) ServeRegisterCallback(w http.ResponseWriter, r *http.Request) {
	googleUser, ok := h.exchange(w, r, oauthstate.IntentRegister)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// An identity that already has an account cannot register twice.
	if _, err := h.Users.GetByGoogleID(ctx, googleUser.ID); err == nil {
		h.writeError(w, http.StatusConflict, "an account already exists for this Google identity")
		return
	} else if err != userstore.ErrNotFound {
		h.Log.Error("failed to look up user", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := h.Users.Create(ctx, models.User{
		FullName: googleUser.Name,
		Email:    googleUser.Email,
		GoogleID: googleUser.ID,
	})
	if err != nil {
		if err == userstore.ErrDuplicateEmail {
			h.writeError(w, http.StatusConflict, "an account already exists for this email")
			return
		}
		h.Log.Error("failed to create user", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Log.Info("user registered via Google OAuth",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email))

	h.establishSession(w, r, user, http.StatusCreated)
}

// exchange runs the part shared by every callback: decode the relayed
// authorization result, consume the state token, verify the decoded intent
// matches the endpoint, and exchange the code for a token plus userinfo.
// On failure it has already written a classified error response.
func (h *Handler) exchange(w http.ResponseWriter, r *http.Request, want oauthstate.Intent) (*googleUserInfo, bool) {
	_, tok, ok := h.exchangeToken(w, r, want)
	if !ok {
		return nil, false
	}

	googleUser, err := fetchGoogleUserInfo(r.Context(), tok)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.writeError(w, http.StatusUnauthorized, "authorization exchange failed")
		return nil, false
	}
	return googleUser, true
}

// exchangeToken validates the state and exchanges the code, without the
// userinfo fetch. The Gmail callback uses this directly: it needs the raw
// token pair, not an identity assertion.
func (h *Handler) exchangeToken(w http.ResponseWriter, r *http.Request, want oauthstate.Intent) (oauthstate.State, *oauth2.Token, bool) {
	var req callbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid callback payload")
		return oauthstate.State{}, nil, false
	}

	if req.Error != "" {
		h.Log.Warn("Google OAuth error", zap.String("error", req.Error))
		h.writeError(w, http.StatusUnauthorized, "authorization was denied")
		return oauthstate.State{}, nil, false
	}

	if req.State == "" {
		h.Log.Warn("missing OAuth state parameter")
		h.writeError(w, http.StatusUnauthorized, "invalid or expired state")
		return oauthstate.State{}, nil, false
	}

	sctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, valid, err := h.StateStore.Consume(sctx, req.State)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return oauthstate.State{}, nil, false
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		h.writeError(w, http.StatusUnauthorized, "invalid or expired state")
		return oauthstate.State{}, nil, false
	}
	if st.Intent != want {
		h.Log.Warn("OAuth state intent mismatch",
			zap.String("got", string(st.Intent)),
			zap.String("want", string(want)))
		h.writeError(w, http.StatusUnauthorized, "state does not belong to this flow")
		return oauthstate.State{}, nil, false
	}

	if req.Code == "" {
		h.Log.Warn("missing OAuth code parameter")
		h.writeError(w, http.StatusUnauthorized, "authorization exchange failed")
		return oauthstate.State{}, nil, false
	}

	xctx, xcancel := context.WithTimeout(r.Context(), timeouts.External())
	defer xcancel()

	tok, err := h.configFor(want).Exchange(xctx, req.Code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.writeError(w, http.StatusUnauthorized, "authorization exchange failed")
		return oauthstate.State{}, nil, false
	}
	return st, tok, true
}

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	return &info, nil
}

// findUser looks up a user by Google subject ID, falling back to email with
// a backfill of the linkage.
func (h *Handler) findUser(ctx context.Context, googleUser *googleUserInfo) (models.User, error) {
	u, err := h.Users.GetByGoogleID(ctx, googleUser.ID)
	if err == nil {
		if u.Status == "disabled" {
			return models.User{}, errUserDisabled
		}
		return u, nil
	}
	if err != userstore.ErrNotFound {
		return models.User{}, err
	}

	u, err = h.Users.GetByEmail(ctx, googleUser.Email)
	if err == userstore.ErrNotFound {
		return models.User{}, errUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}

	if u.GoogleID == "" {
		if linkErr := h.Users.LinkGoogleID(ctx, u.ID, googleUser.ID); linkErr != nil {
			h.Log.Warn("failed to link google id",
				zap.Error(linkErr),
				zap.String("user_id", u.ID))
		}
	}

	if u.Status == "disabled" {
		return models.User{}, errUserDisabled
	}
	return u, nil
}

// establishSession writes the authenticated session cookie and responds
// with the signed-in user.
func (h *Handler) establishSession(w http.ResponseWriter, r *http.Request, u models.User, status int) {
	err := h.SessionMgr.Establish(w, r, auth.SessionUser{
		ID:    u.ID,
		Name:  u.FullName,
		Email: u.Email,
	})
	if err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", u.ID))
		h.writeError(w, http.StatusInternalServerError, "could not establish session")
		return
	}

	h.Log.Info("user signed in via Google OAuth", zap.String("user_id", u.ID))

	h.writeJSON(w, status, map[string]any{
		"user": map[string]any{
			"id":              u.ID,
			"full_name":       u.FullName,
			"email":           u.Email,
			"organization_id": u.OrganizationID,
		},
	})
}
