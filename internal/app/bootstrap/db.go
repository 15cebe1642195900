// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/regionhub/internal/app/system/dbconn"
	"github.com/dalemusser/regionhub/internal/app/system/geocode"
	"github.com/dalemusser/regionhub/internal/app/system/indexes"
	"github.com/dalemusser/regionhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// ConnectDB builds the connection manager and geocoder client. A failed
// first connection is fatal at startup; once up, the manager reconnects on
// its own.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	mgr := dbconn.New(dbconn.Options{
		URI:         appCfg.MongoURI,
		Database:    appCfg.MongoDatabase,
		MaxPoolSize: appCfg.MongoMaxPoolSize,
		MinPoolSize: appCfg.MongoMinPoolSize,
		Backoff: dbconn.Backoff{
			Initial:    appCfg.MongoReconnectInitial,
			Max:        appCfg.MongoReconnectMax,
			Factor:     dbconn.DefaultBackoff.Factor,
			ResetAfter: dbconn.DefaultBackoff.ResetAfter,
		},
	}, logger)

	if _, err := mgr.Connect(ctx); err != nil {
		return DBDeps{}, err
	}

	geocoder := geocode.NewClient(appCfg.GeocoderBaseURL, appCfg.GeocoderAPIKey, appCfg.GeocoderTimeout, logger)

	db := mgr.Database()
	return DBDeps{
		Mongo:      mgr,
		Database:   db,
		Geocoder:   geocoder,
		Reconciler: workers.NewRefReconciler(db, logger, appCfg.ReconcileInterval),
	}, nil
}

// EnsureSchema verifies the connection targets a writable primary and then
// reconciles indexes. Runs after ConnectDB, before Startup.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := deps.Mongo.VerifyPrimaryWritable(ctx); err != nil {
		return err
	}
	return indexes.EnsureAll(ctx, deps.Database)
}
