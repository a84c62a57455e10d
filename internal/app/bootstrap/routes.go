// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	authgooglefeature "github.com/buildrite/buildrite/internal/app/features/authgoogle"
	healthfeature "github.com/buildrite/buildrite/internal/app/features/health"
	organizationsfeature "github.com/buildrite/buildrite/internal/app/features/organizations"
	"github.com/buildrite/buildrite/internal/app/store/credentials"
	"github.com/buildrite/buildrite/internal/app/store/oauthstate"
	organizationstore "github.com/buildrite/buildrite/internal/app/store/organizations"
	subscriptionstore "github.com/buildrite/buildrite/internal/app/store/subscriptions"
	userstore "github.com/buildrite/buildrite/internal/app/store/users"
	"github.com/buildrite/buildrite/internal/app/system/auth"
	"github.com/buildrite/buildrite/internal/app/system/billing"
	"github.com/buildrite/buildrite/internal/app/system/provision"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	orgs := organizationstore.New(db)
	users := userstore.New(db)
	plans := subscriptionstore.New(db)
	states := oauthstate.New(db)
	creds := credentials.New(db)

	// The billing gateway is an injected capability, never a package-level
	// singleton, so tests can substitute a fake.
	gateway := billing.NewStripeGateway(appCfg.StripeAPIKey, logger)
	provisioner := provision.New(gateway, orgs, users, plans, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Google OAuth flows (sign-in, register, Gmail consent)
	authHandler := authgooglefeature.NewHandler(
		sessionMgr, users, states, creds,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL,
		logger,
	)
	if appCfg.OAuthStateExpiry > 0 {
		authHandler.StateTTL = appCfg.OAuthStateExpiry
	}
	r.Mount("/auth/google", authgooglefeature.Routes(authHandler))

	// Organization management
	orgHandler := organizationsfeature.NewHandler(provisioner, orgs, gateway, logger)
	r.Mount("/organizations", organizationsfeature.Routes(orgHandler))

	return r, nil
}
