// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/buildrite/buildrite/internal/app/store/oauthstate"
	organizationstore "github.com/buildrite/buildrite/internal/app/store/organizations"
	subscriptionstore "github.com/buildrite/buildrite/internal/app/store/subscriptions"
	userstore "github.com/buildrite/buildrite/internal/app/store/users"
	"github.com/buildrite/buildrite/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB establishes the MongoDB connection used by every store.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(appCfg.MongoURI))
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// defaultPlans are the subscription plans seeded into a fresh deployment so
// organization provisioning has something to reference.
var defaultPlans = []models.Subscription{
	{ID: "starter", Name: "Starter", PriceCents: 0, Interval: "month"},
	{ID: "team", Name: "Team", PriceCents: 4900, Interval: "month"},
	{ID: "business", Name: "Business", PriceCents: 19900, Interval: "month"},
}

// EnsureSchema creates indexes and seeds reference data.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	if err := organizationstore.New(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("organization indexes: %w", err)
	}
	if err := userstore.New(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	if err := oauthstate.New(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("oauth state indexes: %w", err)
	}
	if err := subscriptionstore.New(db).Seed(ctx, defaultPlans); err != nil {
		return fmt.Errorf("seed subscription plans: %w", err)
	}

	logger.Info("schema ensured", zap.Int("seeded_plans", len(defaultPlans)))
	return nil
}
