// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/tribehub/internal/app/store/matchcache"
	"github.com/dalemusser/tribehub/internal/app/system/aicall"
	"github.com/dalemusser/tribehub/internal/app/system/aiclient"
	"github.com/dalemusser/tribehub/internal/app/system/auditlog"
	"github.com/dalemusser/tribehub/internal/app/system/auth"
	"github.com/dalemusser/tribehub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for TribeHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: TRIBEHUB_MONGO_URI, TRIBEHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "tribehub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: auth.DefaultSessionName, Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 24h, 720h)"},

	// OpenAI
	{Name: "openai_api_key", Default: "", Desc: "OpenAI API key (blank disables persona and match generation)"},
	{Name: "openai_base_url", Default: aiclient.DefaultBaseURL, Desc: "OpenAI API base URL"},
	{Name: "openai_model", Default: aiclient.DefaultModel, Desc: "OpenAI model name"},
	{Name: "openai_timeout", Default: "30s", Desc: "Timeout for a single OpenAI HTTP call"},

	// Matching
	{Name: "match_retry_delay", Default: "2s", Desc: "Wait before retrying a rate-limited or unavailable model call"},
	{Name: "ai_request_timeout", Default: "90s", Desc: "Deadline for a whole AI-backed request, retry included"},

	// Redis match cache
	{Name: "redis_addr", Default: "", Desc: "Redis address for the match cache (blank disables it)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "match_cache_ttl", Default: "15m", Desc: "How long identical match requests are served from cache"},

	// Archive worker
	{Name: "archive_interval", Default: "1h", Desc: "How often finished tribes are archived (0 disables the worker)"},
	{Name: "archive_grace", Default: "48h", Desc: "How long after its meetup date a tribe stays active"},

	// Audit logging
	{Name: "audit_log_auth", Default: "all", Desc: "Login/logout audit events: all, db, log or off"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin tribe changes: all, db, log or off"},
	{Name: "audit_log_member", Default: "db", Desc: "Joins, leaves and persona refreshes: all, db, log or off"},

	// Rate limiting
	{Name: "login_ip_limit", Default: 10, Desc: "Login attempts per IP per window (0 disables login limiting)"},
	{Name: "login_ip_window", Default: "1m", Desc: "Window for the per-IP login limit"},
	{Name: "login_email_limit", Default: 5, Desc: "Login attempts per account per window"},
	{Name: "login_email_window", Default: "5m", Desc: "Window for the per-account login limit"},
	{Name: "ai_rate_limit", Default: 10, Desc: "Match and persona requests per member per window (0 disables)"},
	{Name: "ai_rate_window", Default: "1m", Desc: "Window for the per-member AI limit"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, TRIBEHUB_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TRIBEHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		OpenAIAPIKey:  appValues.String("openai_api_key"),
		OpenAIBaseURL: appValues.String("openai_base_url"),
		OpenAIModel:   appValues.String("openai_model"),
		OpenAITimeout: appValues.Duration("openai_timeout", aiclient.DefaultTimeout),

		MatchRetryDelay: appValues.Duration("match_retry_delay", aicall.DefaultRetryDelay),
		AIRequestBudget: appValues.Duration("ai_request_timeout", timeouts.DefaultAI),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),
		MatchCacheTTL: appValues.Duration("match_cache_ttl", matchcache.DefaultTTL),

		ArchiveInterval: appValues.Duration("archive_interval", time.Hour),
		ArchiveGrace:    appValues.Duration("archive_grace", 48*time.Hour),

		AuditLogAuth:   appValues.String("audit_log_auth"),
		AuditLogAdmin:  appValues.String("audit_log_admin"),
		AuditLogMember: appValues.String("audit_log_member"),

		LoginIPLimit:     appValues.Int("login_ip_limit"),
		LoginIPWindow:    appValues.Duration("login_ip_window", time.Minute),
		LoginEmailLimit:  appValues.Int("login_email_limit"),
		LoginEmailWindow: appValues.Duration("login_email_window", 5*time.Minute),
		AIRateLimit:      appValues.Int("ai_rate_limit"),
		AIRateWindow:     appValues.Duration("ai_rate_window", time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return errors.New("mongo_database is required")
	}
	if len(appCfg.SessionKey) < 32 {
		return errors.New("session_key must be at least 32 characters")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.SessionKey == devSessionKey {
		return errors.New("session_key must be changed in production")
	}
	if appCfg.ArchiveInterval < 0 || appCfg.ArchiveGrace < 0 {
		return errors.New("archive_interval and archive_grace must not be negative")
	}
	if appCfg.MatchRetryDelay < 0 {
		return errors.New("match_retry_delay must not be negative")
	}
	for key, mode := range map[string]string{
		"audit_log_auth":   appCfg.AuditLogAuth,
		"audit_log_admin":  appCfg.AuditLogAdmin,
		"audit_log_member": appCfg.AuditLogMember,
	} {
		if !auditlog.ValidMode(mode) {
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", key, mode)
		}
	}
	if appCfg.LoginIPLimit < 0 || appCfg.LoginEmailLimit < 0 || appCfg.AIRateLimit < 0 {
		return errors.New("rate limits must not be negative")
	}
	if (appCfg.LoginIPLimit > 0 && (appCfg.LoginIPWindow <= 0 || appCfg.LoginEmailLimit <= 0 || appCfg.LoginEmailWindow <= 0)) ||
		(appCfg.AIRateLimit > 0 && appCfg.AIRateWindow <= 0) {
		return errors.New("enabled rate limits need a positive limit and window")
	}
	if appCfg.OpenAIAPIKey == "" {
		logger.Warn("openai_api_key is not set; persona and match generation will be unavailable")
	}
	return nil
}
