// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/buildrite/buildrite/internal/app/store/oauthstate"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// Buildrite sweeps expired OAuth state tokens here as a backup for the TTL
// index, which Mongo services on a background cadence.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	removed, err := oauthstate.New(deps.MongoDatabase).CleanupExpired(ctx)
	if err != nil {
		logger.Warn("oauth state cleanup failed", zap.Error(err))
		return nil // non-fatal; the TTL index will catch up
	}
	if removed > 0 {
		logger.Info("removed expired oauth states", zap.Int64("count", removed))
	}
	return nil
}
