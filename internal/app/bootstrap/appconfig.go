// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// ports, TLS, logging and CORS; everything TribeHub-specific lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: tribehub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// OpenAI configuration. A blank key leaves the AI features unavailable.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OpenAITimeout time.Duration

	// Matching
	MatchRetryDelay time.Duration // Fixed wait before the single retry of a model call
	AIRequestBudget time.Duration // Whole-request deadline for AI endpoints

	// Optional Redis match cache. Blank address disables it.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MatchCacheTTL time.Duration

	// Meetup archive worker
	ArchiveInterval time.Duration
	ArchiveGrace    time.Duration

	// Audit logging destinations per category: all, db, log or off
	AuditLogAuth   string
	AuditLogAdmin  string
	AuditLogMember string

	// Rate limiting. A zero limit disables that limiter.
	LoginIPLimit     int
	LoginIPWindow    time.Duration
	LoginEmailLimit  int
	LoginEmailWindow time.Duration
	AIRateLimit      int // AI requests per member per window
	AIRateWindow     time.Duration
}
