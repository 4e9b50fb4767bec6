// internal/app/features/admintribes/handler.go
package admintribes

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/tribehub/internal/app/features/shared/tribeerr"
	"github.com/dalemusser/tribehub/internal/app/matching"
	"github.com/dalemusser/tribehub/internal/app/store/audit"
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

const (
	maxNameRunes     = 80
	maxLocationRunes = 200
	adminMatchReason = "Selected by an admin"
)

var (
	errBadMemberID     = errors.New("member_ids must be valid ids")
	errUnknownMember   = errors.New("member_ids names an unknown user")
	errBadMeetupDate   = errors.New(`meetup_date must be "YYYY-MM-DD" or RFC 3339`)
	errNameRequired    = errors.New("name is required")
	errMembersRequired = errors.New("member_ids is required")
)

type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	AuditLog *auditlog.Logger
	Now      func() time.Time
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger, AuditLog: audit, Now: time.Now}
}

type createRequest struct {
	Name           string   `json:"name"`
	MemberIDs      []string `json:"member_ids"`
	MeetupDate     string   `json:"meetup_date"`
	MeetupTime     string   `json:"meetup_time"`
	MeetupLocation string   `json:"meetup_location"`
}

type previewRequest struct {
	MemberIDs []string `json:"member_ids"`
}

func parseIDs(raw []string) ([]primitive.ObjectID, error) {
	if len(raw) == 0 {
		return nil, errMembersRequired
	}
	out := make([]primitive.ObjectID, 0, len(raw))
	for _, s := range raw {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
		if err != nil {
			return nil, errBadMemberID
		}
		out = append(out, id)
	}
	return out, nil
}

func parseMeetupDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, errBadMeetupDate
	}
	t = t.UTC()
	return &t, nil
}

// loadMembers returns the users for ids in request order.
func (h *Handler) loadMembers(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	live, err := userstore.New(h.DB).GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		u, ok := live[id]
		if !ok {
			return nil, errUnknownMember
		}
		out = append(out, u)
	}
	return out, nil
}

// HandlePreview returns the compatibility breakdown for a candidate group
// without creating anything.
// POST /admin/tribes/preview {member_ids}
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	ids, err := parseIDs(req.MemberIDs)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	users, err := h.loadMembers(ctx, ids)
	if err != nil {
		h.writeLoadError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"compatibility": matching.Compatibility(users, h.Now())})
}

// HandleCreate forms a tribe from admin-selected users.
// POST /admin/tribes {name, member_ids, meetup_date, meetup_time, meetup_location}
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	name := htmlsanitize.TextLimit(req.Name, maxNameRunes)
	if name == "" {
		httpjson.Error(w, http.StatusBadRequest, errNameRequired.Error())
		return
	}
	ids, err := parseIDs(req.MemberIDs)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	meetup, err := parseMeetupDate(req.MeetupDate)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.loadMembers(ctx, ids)
	if err != nil {
		h.writeLoadError(w, err)
		return
	}

	now := h.Now()
	score := matching.TribeCompatibility(users, now)
	members := make([]models.MatchedUser, len(users))
	for i, u := range users {
		members[i] = tribestore.Snapshot(u, score, adminMatchReason)
	}

	t, err := tribestore.New(h.DB).Create(ctx, models.Tribe{
		Name:               name,
		Members:            members,
		MeetupDate:         meetup,
		MeetupTime:         htmlsanitize.TextLimit(req.MeetupTime, maxNameRunes),
		MeetupLocation:     htmlsanitize.TextLimit(req.MeetupLocation, maxLocationRunes),
		Active:             true,
		CompatibilityScore: score,
		FormedAt:           now.UTC(),
	})
	if err != nil {
		tribeerr.Write(w, h.Log, "create tribe", err)
		return
	}

	h.Log.Info("tribe created",
		zap.String("tribe_id", t.ID.Hex()),
		zap.String("by", adminID(r).Hex()),
		zap.Int("members", t.MemberCount),
		zap.Int("compatibility", score))
	h.AuditLog.TribeCreated(ctx, r, adminID(r), t.ID, t.Name, t.MemberCount, score)
	httpjson.Write(w, http.StatusCreated, map[string]any{"tribe": t})
}

func (h *Handler) writeLoadError(w http.ResponseWriter, err error) {
	if errors.Is(err, errUnknownMember) {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	h.Log.Error("failed to load tribe members", zap.Error(err))
	httpjson.Error(w, http.StatusInternalServerError, "failed to load members")
}

// adminID is the signed-in admin, or the nil id when the session carries none.
func adminID(r *http.Request) primitive.ObjectID {
	if su, ok := auth.CurrentUser(r); ok {
		if id, err := primitive.ObjectIDFromHex(su.ID); err == nil {
			return id
		}
	}
	return primitive.NilObjectID
}

// lifecycle wraps a single tribe-store state change keyed by {id}.
func (h *Handler) lifecycle(op, event string, apply func(ctx context.Context, s *tribestore.Store, id primitive.ObjectID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid tribe id")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
		defer cancel()

		if err := apply(ctx, tribestore.New(h.DB), id); err != nil {
			tribeerr.Write(w, h.Log, op, err)
			return
		}
		h.Log.Info("tribe "+op, zap.String("tribe_id", id.Hex()), zap.String("by", adminID(r).Hex()))
		h.AuditLog.TribeChanged(ctx, r, event, adminID(r), id)
		httpjson.Write(w, http.StatusOK, map[string]string{"status": op})
	}
}

// HandleActivate: POST /admin/tribes/{id}/activate
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	h.lifecycle("activated", audit.EventTribeActivated, func(ctx context.Context, s *tribestore.Store, id primitive.ObjectID) error {
		return s.SetActive(ctx, id, true)
	})(w, r)
}

// HandleDeactivate: POST /admin/tribes/{id}/deactivate
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.lifecycle("deactivated", audit.EventTribeDeactivated, func(ctx context.Context, s *tribestore.Store, id primitive.ObjectID) error {
		return s.SetActive(ctx, id, false)
	})(w, r)
}

// HandleArchive: POST /admin/tribes/{id}/archive
func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	h.lifecycle("archived", audit.EventTribeArchived, func(ctx context.Context, s *tribestore.Store, id primitive.ObjectID) error {
		return s.Archive(ctx, id, h.Now())
	})(w, r)
}

// HandleDelete removes a tribe. Active tribes must be deactivated first.
// POST /admin/tribes/{id}/delete
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	h.lifecycle("deleted", audit.EventTribeDeleted, func(ctx context.Context, s *tribestore.Store, id primitive.ObjectID) error {
		return s.Delete(ctx, id)
	})(w, r)
}
