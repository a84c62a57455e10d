// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/buildrite/buildrite/internal/app/store/credentials"
	"github.com/buildrite/buildrite/internal/app/store/oauthstate"
	userstore "github.com/buildrite/buildrite/internal/app/store/users"
	"github.com/buildrite/buildrite/internal/app/system/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// gmailScope is the elevated mailbox-access scope requested by the Gmail
// consent flow, distinct from identity sign-in.
const gmailScope = "https://www.googleapis.com/auth/gmail.readonly"

// defaultStateTTL bounds how long an initiated flow may sit before its
// callback when no expiry is configured.
const defaultStateTTL = 10 * time.Minute

// Handler handles Google OAuth authentication and Gmail consent.
//
// The six endpoints form a fixed table: each maps to exactly one operation
// and carries no branching of its own. Which flow a callback belongs to is
// decided solely by the intent stored with the state token.
type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Users      *userstore.Store
	StateStore *oauthstate.Store
	Creds      *credentials.Store

	ClientID     string
	ClientSecret string
	BaseURL      string // e.g. "https://app.buildrite.io"

	// StateTTL is how long a minted state token stays valid.
	StateTTL time.Duration
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	sessionMgr *auth.SessionManager,
	users *userstore.Store,
	stateStore *oauthstate.Store,
	creds *credentials.Store,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:          logger,
		SessionMgr:   sessionMgr,
		Users:        users,
		StateStore:   stateStore,
		Creds:        creds,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		BaseURL:      baseURL,
		StateTTL:     defaultStateTTL,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// identityConfig returns the OAuth2 configuration for the sign-in and
// register flows. The callback path differs per intent because Google
// redirects back to the exact registered URL.
func (h *Handler) identityConfig(callbackPath string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.BaseURL + callbackPath,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// gmailConfig returns the OAuth2 configuration for the mailbox-consent flow.
func (h *Handler) gmailConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.BaseURL + "/auth/google/gmail-cb",
		Scopes:       []string{gmailScope},
		Endpoint:     google.Endpoint,
	}
}

// configFor returns the oauth2 config matching a flow intent.
func (h *Handler) configFor(intent oauthstate.Intent) *oauth2.Config {
	switch intent {
	case oauthstate.IntentRegister:
		return h.identityConfig("/auth/google/cb/register")
	case oauthstate.IntentGmail:
		return h.gmailConfig()
	default:
		return h.identityConfig("/auth/google/cb/signin")
	}
}

// writeJSON writes v with the given status.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a classified failure as {error, status}.
func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]any{"error": msg, "status": status})
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
