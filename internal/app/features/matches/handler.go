// internal/app/features/matches/handler.go
package matches

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/tribehub/internal/app/matching"
	journalstore "github.com/dalemusser/tribehub/internal/app/store/journal"
	userstore "github.com/dalemusser/tribehub/internal/app/store/users"
	"github.com/dalemusser/tribehub/internal/app/system/auth"
	"github.com/dalemusser/tribehub/internal/app/system/httpjson"
	"github.com/dalemusser/tribehub/internal/app/system/timeouts"
	"github.com/dalemusser/tribehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Finder runs the match pipeline. *matching.Pipeline satisfies it.
type Finder interface {
	FindMatches(ctx context.Context, in matching.FindInput) (matching.Result, error)
}

type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	Matcher Finder
	Now     func() time.Time
}

func NewHandler(db *mongo.Database, matcher Finder, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger, Matcher: matcher, Now: time.Now}
}

type findRequest struct {
	AgeMin *int   `json:"age_min"`
	AgeMax *int   `json:"age_max"`
	Gender string `json:"gender"`
}

var errAgeRangeRequired = errors.New("age_min and age_max are required")

type findResponse struct {
	RunID    string           `json:"run_id"`
	Eligible int              `json:"eligible"`
	Cached   bool             `json:"cached"`
	Matches  []matching.Match `json:"matches"`
}

// HandleFind ranks eligible candidates for the signed-in user and asks the
// model for up to three matches.
// POST /matches {age_min, age_max, gender}
func (h *Handler) HandleFind(w http.ResponseWriter, r *http.Request) {
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

	var req findRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.AgeMin == nil || req.AgeMax == nil {
		httpjson.Error(w, http.StatusBadRequest, errAgeRangeRequired.Error())
		return
	}
	mode, err := matching.ParseGenderMode(req.Gender)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	prefs := matching.Preferences{AgeMin: *req.AgeMin, AgeMax: *req.AgeMax, Gender: mode}
	if err := prefs.Validate(); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	current, candidates, counts, err := h.load(r.Context(), uid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error("failed to load match candidates", zap.String("user_id", su.ID), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "failed to load candidates")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.AI())
	defer cancel()

	res, err := h.Matcher.FindMatches(ctx, matching.FindInput{
		Current:       *current,
		Candidates:    candidates,
		JournalCounts: counts,
		Prefs:         prefs,
		Now:           h.Now(),
	})
	if err != nil {
		if errors.Is(err, matching.ErrMatchingUnavailable) {
			h.Log.Warn("matching unavailable", zap.String("user_id", su.ID), zap.String("match_run_id", res.RunID), zap.Error(err))
			httpjson.Error(w, http.StatusServiceUnavailable, "matching unavailable")
			return
		}
		h.Log.Error("matching failed", zap.String("user_id", su.ID), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "matching failed")
		return
	}

	httpjson.Write(w, http.StatusOK, findResponse{
		RunID:    res.RunID,
		Eligible: len(res.Ranked),
		Cached:   res.Cached,
		Matches:  res.Matches,
	})
}

// load fetches the current user and the candidate pool concurrently, then
// the journal counts for that pool.
func (h *Handler) load(ctx context.Context, uid primitive.ObjectID) (*models.User, []models.User, map[primitive.ObjectID]int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	users := userstore.New(h.DB)

	var (
		current    *models.User
		candidates []models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := users.GetByID(gctx, uid)
		current = u
		return err
	})
	g.Go(func() error {
		cs, err := users.ListCandidates(gctx, uid)
		candidates = cs
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	ids := make([]primitive.ObjectID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	counts, err := journalstore.New(h.DB).CountByUsers(ctx, ids)
	if err != nil {
		return nil, nil, nil, err
	}
	return current, candidates, counts, nil
}
