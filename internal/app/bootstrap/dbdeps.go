// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/tribehub/internal/app/store/matchcache"
	"github.com/dalemusser/tribehub/internal/app/system/aicall"
	"github.com/dalemusser/tribehub/internal/app/system/auditlog"
	"github.com/dalemusser/tribehub/internal/app/system/ratelimit"
	"github.com/dalemusser/tribehub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	TribeHubMongoClient   *mongo.Client
	TribeHubMongoDatabase *mongo.Database

	// MatchCache is nil when no Redis address is configured.
	MatchCache *matchcache.Cache

	// Model is the structured-output model behind persona and match
	// generation. Without an API key it fails every call as unavailable.
	Model aicall.Model

	// Archiver is built in ConnectDB, started in Startup and stopped in
	// Shutdown. Nil when archive_interval is 0.
	Archiver *workers.TribeArchive

	AuditLog *auditlog.Logger

	// Nil when the corresponding limit is 0.
	LoginLimiter *ratelimit.LoginLimiter
	AILimiter    *ratelimit.Limiter
}
