// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background work and tears down connections.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Archiver != nil {
		deps.Archiver.Stop()
	}
	if deps.LoginLimiter != nil {
		deps.LoginLimiter.Stop()
	}
	if deps.AILimiter != nil {
		deps.AILimiter.Stop()
	}
	if deps.MatchCache != nil {
		if err := deps.MatchCache.Close(); err != nil {
			logger.Warn("match cache close failed", zap.Error(err))
		}
	}
	if deps.TribeHubMongoClient != nil {
		logger.Info("disconnecting TribeHub MongoDB client")
		if err := deps.TribeHubMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
