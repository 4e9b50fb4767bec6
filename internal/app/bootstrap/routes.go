// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	admintribesfeature "github.com/dalemusser/tribehub/internal/app/features/admintribes"
	auditlogfeature "github.com/dalemusser/tribehub/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/tribehub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/tribehub/internal/app/features/health"
	heartbeatfeature "github.com/dalemusser/tribehub/internal/app/features/heartbeat"
	journalfeature "github.com/dalemusser/tribehub/internal/app/features/journal"
	loginfeature "github.com/dalemusser/tribehub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/tribehub/internal/app/features/logout"
	matchesfeature "github.com/dalemusser/tribehub/internal/app/features/matches"
	personasfeature "github.com/dalemusser/tribehub/internal/app/features/personas"
	tribesfeature "github.com/dalemusser/tribehub/internal/app/features/tribes"
	"github.com/dalemusser/tribehub/internal/app/matching"
	"github.com/dalemusser/tribehub/internal/app/persona"
	"github.com/dalemusser/tribehub/internal/app/system/aicall"
	"github.com/dalemusser/tribehub/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. TribeHub creates the session manager and
// mounts its JSON feature routers: public health and login, member matching,
// persona, journal, tribe and heartbeat routes, and admin tribe management and audit.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	return buildRouter(appCfg, deps, sessionMgr, logger), nil
}

func buildRouter(appCfg AppConfig, deps DBDeps, sessionMgr *auth.SessionManager, logger *zap.Logger) chi.Router {
	db := deps.TribeHubMongoDatabase

	// The model is shared by both AI flows and so is the retry policy.
	model := deps.Model
	if model == nil {
		model = unconfiguredModel{}
	}
	caller := aicall.NewCaller(model, appCfg.MatchRetryDelay, logger.Named("ai"))

	// Avoid typed-nil interfaces when the cache is disabled.
	var (
		cache  matching.Cache
		pinger healthfeature.Pinger
	)
	if deps.MatchCache != nil {
		cache = deps.MatchCache
		pinger = deps.MatchCache
	}
	pipeline := matching.NewPipeline(matching.NewRequestor(caller, logger), cache, logger.Named("matching"))
	generator := persona.NewGenerator(caller, logger.Named("persona"))

	// Per-member throttle on the endpoints that call the model.
	aiLimit := func(next http.Handler) http.Handler { return next }
	if deps.AILimiter != nil {
		aiLimit = deps.AILimiter.Middleware(func(r *http.Request) string {
			if su, ok := auth.CurrentUser(r); ok {
				return su.ID
			}
			return ""
		})
	}

	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.TribeHubMongoClient, pinger, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(db, sessionMgr, deps.AuditLog, deps.LoginLimiter, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, deps.AuditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Member routes
	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireSignedIn)

		matchesHandler := matchesfeature.NewHandler(db, pipeline, logger)
		r.With(aiLimit).Mount("/matches", matchesfeature.Routes(matchesHandler))

		personasHandler := personasfeature.NewHandler(db, generator, deps.AuditLog, logger)
		r.With(aiLimit).Mount("/personas", personasfeature.Routes(personasHandler))

		journalHandler := journalfeature.NewHandler(db, logger)
		r.Mount("/journal", journalfeature.Routes(journalHandler))

		tribesHandler := tribesfeature.NewHandler(db, deps.AuditLog, logger)
		r.Mount("/tribes", tribesfeature.Routes(tribesHandler))

		heartbeatHandler := heartbeatfeature.NewHandler(db, logger)
		r.Mount("/heartbeat", heartbeatfeature.Routes(heartbeatHandler))
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireRole(auth.RoleAdmin))

		adminTribesHandler := admintribesfeature.NewHandler(db, deps.AuditLog, logger)
		r.Mount("/admin/tribes", admintribesfeature.Routes(adminTribesHandler))

		auditHandler := auditlogfeature.NewHandler(db, logger)
		r.Mount("/admin/audit", auditlogfeature.Routes(auditHandler))
	})

	return r
}
