// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Buildrite.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: BUILDRITE_MONGO_URI, BUILDRITE_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "buildrite", Desc: "MongoDB database name"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "buildrite-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Base URL used to build OAuth redirect URLs
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for OAuth redirects"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "oauth_state_expiry", Default: "10m", Desc: "Lifetime of a minted OAuth state token"},

	// Stripe configuration
	{Name: "stripe_api_key", Default: "", Desc: "Stripe secret API key"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "BUILDRITE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	stateExpiry, err := time.ParseDuration(appValues.String("oauth_state_expiry"))
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("invalid oauth_state_expiry: %w", err)
	}

	appCfg := AppConfig{
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		BaseURL: appValues.String("base_url"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),
		OAuthStateExpiry:   stateExpiry,

		StripeAPIKey: appValues.String("stripe_api_key"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Buildrite validates the MongoDB URI format to catch configuration errors
// early, before attempting to connect. Google and Stripe credentials may be
// blank in development; the affected endpoints then report themselves as
// unconfigured instead of failing at startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg.Env == "prod" {
		if appCfg.StripeAPIKey == "" {
			return fmt.Errorf("stripe_api_key must be set in production")
		}
		if appCfg.GoogleClientID == "" || appCfg.GoogleClientSecret == "" {
			return fmt.Errorf("google_client_id and google_client_secret must be set in production")
		}
	}

	return nil
}
