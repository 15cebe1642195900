// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time initialization after DB connections and schema setup
// are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	logger.Info("regionhub starting",
		zap.String("database", appCfg.MongoDatabase),
		zap.String("geocoder", appCfg.GeocoderBaseURL))

	deps.Reconciler.Start()
	return nil
}
