// internal/app/bootstrap/connect.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/tribehub/internal/app/store/audit"
	"github.com/dalemusser/tribehub/internal/app/store/matchcache"
	tribestore "github.com/dalemusser/tribehub/internal/app/store/tribes"
	"github.com/dalemusser/tribehub/internal/app/system/aicall"
	"github.com/dalemusser/tribehub/internal/app/system/aiclient"
	"github.com/dalemusser/tribehub/internal/app/system/auditlog"
	"github.com/dalemusser/tribehub/internal/app/system/ratelimit"
	"github.com/dalemusser/tribehub/internal/app/system/timeouts"
	"github.com/dalemusser/tribehub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// errModelNotConfigured is what every model call returns when no API key
// is configured. It is not retryable, so callers see it as unavailable.
var errModelNotConfigured = errors.New("openai api key not configured")

type unconfiguredModel struct{}

func (unconfiguredModel) GenerateJSON(context.Context, string, string, string, map[string]any) (map[string]any, error) {
	return nil, errModelNotConfigured
}

// ConnectDB connects MongoDB, the optional Redis match cache and the model
// client, and builds the audit logger, rate limiters and archive worker.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", appCfg.MongoMaxPoolSize))

	deps := DBDeps{
		TribeHubMongoClient:   client,
		TribeHubMongoDatabase: client.Database(appCfg.MongoDatabase),
	}

	if appCfg.RedisAddr != "" {
		cache, err := matchcache.New(ctx, matchcache.Config{
			Addr:     appCfg.RedisAddr,
			Password: appCfg.RedisPassword,
			DB:       appCfg.RedisDB,
			TTL:      appCfg.MatchCacheTTL,
		})
		if err != nil {
			// The cache is an optimization; run without it.
			logger.Warn("match cache disabled", zap.String("addr", appCfg.RedisAddr), zap.Error(err))
		} else {
			deps.MatchCache = cache
			logger.Info("match cache enabled",
				zap.String("addr", appCfg.RedisAddr),
				zap.Duration("ttl", appCfg.MatchCacheTTL))
		}
	}

	deps.Model = newModel(appCfg, logger)

	deps.AuditLog = auditlog.New(audit.New(deps.TribeHubMongoDatabase), logger.Named("audit"), auditlog.Config{
		Auth:   appCfg.AuditLogAuth,
		Admin:  appCfg.AuditLogAdmin,
		Member: appCfg.AuditLogMember,
	})

	if appCfg.LoginIPLimit > 0 {
		deps.LoginLimiter = ratelimit.NewLoginLimiter(
			appCfg.LoginIPLimit, appCfg.LoginIPWindow,
			appCfg.LoginEmailLimit, appCfg.LoginEmailWindow,
		)
	}
	if appCfg.AIRateLimit > 0 {
		deps.AILimiter = ratelimit.New(appCfg.AIRateLimit, appCfg.AIRateWindow)
	}

	if appCfg.ArchiveInterval > 0 {
		deps.Archiver = workers.NewTribeArchive(
			tribestore.New(deps.TribeHubMongoDatabase),
			logger.Named("tribe-archive"),
			appCfg.ArchiveInterval,
			appCfg.ArchiveGrace,
		).WithAuditLog(deps.AuditLog)
	}

	return deps, nil
}

func newModel(appCfg AppConfig, logger *zap.Logger) aicall.Model {
	client, err := aiclient.New(aiclient.Config{
		APIKey:  appCfg.OpenAIAPIKey,
		BaseURL: appCfg.OpenAIBaseURL,
		Model:   appCfg.OpenAIModel,
		Timeout: appCfg.OpenAITimeout,
	}, logger.Named("openai"))
	if err != nil {
		logger.Warn("openai client disabled", zap.Error(err))
		return unconfiguredModel{}
	}
	logger.Info("openai client ready", zap.String("model", client.Model()))
	return client
}
