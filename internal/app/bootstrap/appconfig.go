// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig handles
// framework-level settings (ports, TLS, logging); AppConfig is everything
// specific to Buildrite.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase string // Database name within MongoDB

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions
	SessionDomain string // Cookie domain (blank means current host)

	// Base URL for OAuth redirect URLs
	BaseURL string // e.g., "https://app.buildrite.io" or "http://localhost:3000"

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string
	OAuthStateExpiry   time.Duration // lifetime of a minted OAuth state token

	// Stripe billing
	StripeAPIKey string
}
