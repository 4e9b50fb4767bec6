package matching

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/dalemusser/tribehub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MaxPromptCandidates caps how many ranked candidates reach the model.
const MaxPromptCandidates = 50

// Cache stores model matches for an identical ranked input. Implementations
// must treat a miss as (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]Match, bool, error)
	Set(ctx context.Context, key string, matches []Match) error
}

// FindInput is one "find my tribe" request.
type FindInput struct {
	Current       models.User
	Candidates    []models.User
	JournalCounts map[primitive.ObjectID]int
	Prefs         Preferences
	Now           time.Time
}

// Result carries the matches and the intermediate ranking for callers that
// want to show or log it.
type Result struct {
	RunID   string
	Ranked  []ScoredCandidate
	Matches []Match
	Cached  bool
}

// Pipeline runs Filter -> Score -> Rank -> Request.
type Pipeline struct {
	requestor *Requestor
	cache     Cache
	log       *zap.Logger
}

// NewPipeline builds a pipeline. cache may be nil.
func NewPipeline(requestor *Requestor, cache Cache, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{requestor: requestor, cache: cache, log: logger}
}

// FindMatches runs the full pipeline for in.Current.
func (p *Pipeline) FindMatches(ctx context.Context, in FindInput) (Result, error) {
	runID := uuid.NewString()
	log := p.log.With(zap.String("match_run_id", runID), zap.String("user_id", in.Current.ID.Hex()))

	filtered := Filter(in.Current, in.Candidates, in.Prefs, in.Now)
	ranked := Rank(Score(filtered, in.JournalCounts, in.Now))
	log.Info("candidates ranked",
		zap.Int("candidates", len(in.Candidates)),
		zap.Int("eligible", len(filtered)))

	res := Result{RunID: runID, Ranked: ranked, Matches: []Match{}}
	if len(ranked) == 0 {
		return res, nil
	}

	top := ranked
	if len(top) > MaxPromptCandidates {
		top = top[:MaxPromptCandidates]
	}
	req := RequestInput{
		Persona:    in.Current.Persona,
		Location:   in.Current.Location,
		Candidates: top,
		Gender:     in.Prefs.Gender,
	}

	var key string
	if p.cache != nil {
		key = cacheKey(in.Current.ID, req)
		if cached, ok, err := p.cache.Get(ctx, key); err != nil {
			log.Warn("match cache read failed", zap.Error(err))
		} else if ok {
			res.Matches = cached
			res.Cached = true
			log.Info("matches served from cache", zap.Int("matches", len(cached)))
			return res, nil
		}
	}

	matches, err := p.requestor.Request(ctx, req)
	if err != nil {
		log.Warn("matching unavailable", zap.Error(err))
		return res, err
	}
	res.Matches = matches
	log.Info("matches returned", zap.Int("matches", len(matches)))

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, matches); err != nil {
			log.Warn("match cache write failed", zap.Error(err))
		}
	}
	return res, nil
}

func cacheKey(userID primitive.ObjectID, req RequestInput) string {
	h := sha256.New()
	h.Write([]byte(userID.Hex()))
	h.Write([]byte{0})
	h.Write([]byte(req.Persona))
	h.Write([]byte{0})
	h.Write([]byte(req.Location))
	h.Write([]byte{0})
	h.Write([]byte(req.Gender))
	h.Write([]byte{0})
	h.Write([]byte(SerializeCandidates(req.Candidates)))
	return hex.EncodeToString(h.Sum(nil))
}
