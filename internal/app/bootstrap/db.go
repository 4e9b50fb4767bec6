// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/tribehub/internal/app/system/indexes"
	"github.com/dalemusser/tribehub/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// EnsureSchema creates collections with their validators, then the indexes
// every store relies on.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.TribeHubMongoDatabase
	if err := validators.EnsureAll(ctx, db, logger); err != nil {
		// Validators are a safety net; a deployment that rejects them can
		// still run.
		logger.Warn("collection validators not fully applied", zap.Error(err))
	}
	return indexes.EnsureAll(ctx, db, logger)
}
