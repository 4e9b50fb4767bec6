// internal/app/features/tribes/handler.go
package tribes

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/tribehub/internal/app/features/shared/tribeerr"
	"github.com/dalemusser/tribehub/internal/app/matching"
	tribestore "github.com/dalemusser/tribehub/internal/app/store/tribes"
	userstore "github.com/dalemusser/tribehub/internal/app/store/users"
	"github.com/dalemusser/tribehub/internal/app/system/auditlog"
	"github.com/dalemusser/tribehub/internal/app/system/auth"
	"github.com/dalemusser/tribehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/tribehub/internal/app/system/httpjson"
	"github.com/dalemusser/tribehub/internal/app/system/timeouts"
	"github.com/dalemusser/tribehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxReasonRunes bounds the match reason a member carries into a tribe.
const maxReasonRunes = 300

type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	AuditLog *auditlog.Logger
	Now      func() time.Time
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger, AuditLog: audit, Now: time.Now}
}

type detailResponse struct {
	Tribe   models.Tribe            `json:"tribe"`
	Members []tribestore.MemberView `json:"members"`
}

type joinRequest struct {
	MatchReason string `json:"match_reason"`
}

type rsvpRequest struct {
	Status string `json:"status"`
}

// ids extracts the signed-in user and the {id} URL parameter. It writes the
// error response itself and returns ok=false when either is missing.
func ids(w http.ResponseWriter, r *http.Request) (userID, tribeID primitive.ObjectID, ok bool) {
	su, signedIn := auth.CurrentUser(r)
	if !signedIn {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	var err error
	if userID, err = primitive.ObjectIDFromHex(su.ID); err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	if tribeID, err = primitive.ObjectIDFromHex(chi.URLParam(r, "id")); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid tribe id")
		return
	}
	return userID, tribeID, true
}

// HandleList returns active tribes.
// GET /tribes
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := tribestore.New(h.DB).ListActive(ctx)
	if err != nil {
		h.Log.Error("failed to list tribes", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "failed to load tribes")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"tribes": list})
}

// HandleGet returns a tribe with each member's snapshot next to the live user.
// GET /tribes/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid tribe id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := tribestore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		tribeerr.Write(w, h.Log, "load tribe", err)
		return
	}
	live, err := userstore.New(h.DB).GetMany(ctx, t.MemberIDs)
	if err != nil {
		h.Log.Error("failed to load tribe members", zap.String("tribe_id", id.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "failed to load members")
		return
	}
	httpjson.Write(w, http.StatusOK, detailResponse{Tribe: *t, Members: tribestore.Views(*t, live)})
}

// HandleJoin adds the signed-in user to the tribe. The member's score is
// the tribe's compatibility with them included.
// POST /tribes/{id}/join {match_reason}
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	uid, tid, ok := ids(w, r)
	if !ok {
		return
	}
	var req joinRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	store := tribestore.New(h.DB)
	t, err := store.GetByID(ctx, tid)
	if err != nil {
		tribeerr.Write(w, h.Log, "join", err)
		return
	}
	live, err := userstore.New(h.DB).GetMany(ctx, append([]primitive.ObjectID{uid}, t.MemberIDs...))
	if err != nil {
		h.Log.Error("failed to load users for join", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "join failed")
		return
	}
	me, found := live[uid]
	if !found {
		httpjson.Error(w, http.StatusNotFound, "user not found")
		return
	}

	group := []models.User{me}
	for _, id := range t.MemberIDs {
		if u, ok := live[id]; ok && id != uid {
			group = append(group, u)
		}
	}
	score := matching.TribeCompatibility(group, h.Now())
	reason := htmlsanitize.TextLimit(req.MatchReason, maxReasonRunes)

	updated, err := store.Join(ctx, tid, tribestore.Snapshot(me, score, reason))
	if err != nil {
		tribeerr.Write(w, h.Log, "join", err)
		return
	}
	h.rescore(ctx, store, updated)
	h.Log.Info("user joined tribe",
		zap.String("user_id", uid.Hex()),
		zap.String("tribe_id", tid.Hex()),
		zap.Int("members", updated.MemberCount))
	h.AuditLog.TribeJoined(ctx, r, uid, tid, score)
	httpjson.Write(w, http.StatusOK, map[string]any{"tribe": updated})
}

// HandleLeave removes the signed-in user from the tribe.
// POST /tribes/{id}/leave
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	uid, tid, ok := ids(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	store := tribestore.New(h.DB)
	updated, err := store.Leave(ctx, tid, uid)
	if err != nil {
		tribeerr.Write(w, h.Log, "leave", err)
		return
	}
	h.rescore(ctx, store, updated)
	h.Log.Info("user left tribe", zap.String("user_id", uid.Hex()), zap.String("tribe_id", tid.Hex()))
	h.AuditLog.TribeLeft(ctx, r, uid, tid)
	httpjson.Write(w, http.StatusOK, map[string]any{"tribe": updated})
}

// rescore recomputes t's compatibility over its current members and stores
// it on t. Failures are logged; the membership change already succeeded.
func (h *Handler) rescore(ctx context.Context, store *tribestore.Store, t *models.Tribe) {
	live, err := userstore.New(h.DB).GetMany(ctx, t.MemberIDs)
	if err != nil {
		h.Log.Warn("failed to load members for rescore", zap.String("tribe_id", t.ID.Hex()), zap.Error(err))
		return
	}
	group := make([]models.User, 0, len(t.MemberIDs))
	for _, id := range t.MemberIDs {
		if u, ok := live[id]; ok {
			group = append(group, u)
		}
	}
	score := matching.TribeCompatibility(group, h.Now())
	applied, err := store.SetScore(ctx, t.ID, t.MemberIDs, score)
	if err != nil {
		h.Log.Warn("failed to store tribe score", zap.String("tribe_id", t.ID.Hex()), zap.Error(err))
		return
	}
	if applied {
		t.CompatibilityScore = score
	}
}

// HandleRSVP records the signed-in user's RSVP for the tribe meetup.
// POST /tribes/{id}/rsvp {status}
func (h *Handler) HandleRSVP(w http.ResponseWriter, r *http.Request) {
	uid, tid, ok := ids(w, r)
	if !ok {
		return
	}
	var req rsvpRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := tribestore.New(h.DB).UpdateRSVP(ctx, tid, uid, req.Status); err != nil {
		tribeerr.Write(w, h.Log, "rsvp", err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"rsvp_status": req.Status})
}
