// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the background worker and tears down the database
// connection.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Reconciler != nil {
		deps.Reconciler.Stop()
	}
	if deps.Mongo != nil {
		logger.Info("closing MongoDB connection")
		if err := deps.Mongo.Close(ctx); err != nil {
			logger.Error("MongoDB close failed", zap.Error(err))
			return err
		}
	}
	return nil
}
