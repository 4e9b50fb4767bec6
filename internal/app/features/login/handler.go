// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	userstore "github.com/dalemusser/tribehub/internal/app/store/users"
	"github.com/dalemusser/tribehub/internal/app/system/auditlog"
	"github.com/dalemusser/tribehub/internal/app/system/auth"
	"github.com/dalemusser/tribehub/internal/app/system/httpjson"
	"github.com/dalemusser/tribehub/internal/app/system/ratelimit"
	"github.com/dalemusser/tribehub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter // nil disables login throttling
}

func NewHandler(db *mongo.Database, sm *auth.SessionManager, audit *auditlog.Logger, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger, SessionMgr: sm, AuditLog: audit, Limiter: limiter}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// HandleLogin checks credentials and starts a session.
// POST /login {email, password}
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		httpjson.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, req.Email); !ok {
			h.AuditLog.LoginRateLimited(ctx, r, req.Email)
			httpjson.Error(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	users := userstore.New(h.DB)
	u, err := users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, userstore.ErrBadCredentials) {
			h.Log.Info("login rejected", zap.String("email", req.Email))
			h.AuditLog.LoginFailed(ctx, r, nil, req.Email, "bad credentials")
			httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.Log.Error("login lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	su := auth.SessionUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email, Role: u.Role}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.Log.Error("session save failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	if err := users.Touch(ctx, u.ID, time.Now()); err != nil {
		h.Log.Warn("failed to record activity", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(req.Email)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.Email)
	h.Log.Info("user signed in", zap.String("user_id", su.ID), zap.String("role", su.Role))
	httpjson.Write(w, http.StatusOK, map[string]any{"user": userResponse(su)})
}
