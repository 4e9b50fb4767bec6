// internal/app/features/heartbeat/handler.go
package heartbeat

import (
	"context"
	"net/http"
	"time"

	userstore "github.com/dalemusser/tribehub/internal/app/store/users"
	"github.com/dalemusser/tribehub/internal/app/system/auth"
	"github.com/dalemusser/tribehub/internal/app/system/httpjson"
	"github.com/dalemusser/tribehub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MinTouchGap is the smallest interval between two last_active writes for
// the same user.
const MinTouchGap = time.Minute

// Handler keeps users.last_active current while a client is open. The
// matching filter drops candidates inactive for more than 30 days.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
	Now func() time.Time
}

// NewHandler creates a new heartbeat handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger, Now: time.Now}
}

// ServeHeartbeat handles POST /heartbeat. Storage failures are logged and
// never surface to the client.
func (h *Handler) ServeHeartbeat(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	uid, err := primitive.ObjectIDFromHex(su.ID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := userstore.New(h.DB).TouchIfStale(ctx, uid, h.Now(), MinTouchGap); err != nil {
		h.Log.Warn("failed to update last_active", zap.String("user_id", su.ID), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
