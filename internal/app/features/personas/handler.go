// internal/app/features/personas/handler.go
package personas

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/tribehub/internal/app/persona"
	journalstore "github.com/dalemusser/tribehub/internal/app/store/journal"
	userstore "github.com/dalemusser/tribehub/internal/app/store/users"
	"github.com/dalemusser/tribehub/internal/app/system/aicall"
	"github.com/dalemusser/tribehub/internal/app/system/auditlog"
	"github.com/dalemusser/tribehub/internal/app/system/auth"
	"github.com/dalemusser/tribehub/internal/app/system/httpjson"
	"github.com/dalemusser/tribehub/internal/app/system/timeouts"
	"github.com/dalemusser/tribehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Summarizer turns journal entries into a persona. *persona.Generator
// satisfies it.
type Summarizer interface {
	Generate(ctx context.Context, entries []models.JournalEntry) (persona.Summary, error)
}

type Handler struct {
	DB        *mongo.Database
	Log       *zap.Logger
	AuditLog  *auditlog.Logger
	Generator Summarizer
}

func NewHandler(db *mongo.Database, gen Summarizer, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger, AuditLog: audit, Generator: gen}
}

// HandleRefresh regenerates the signed-in user's persona from their most
// recent journal entries.
// POST /personas/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
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

	loadCtx, loadCancel := context.WithTimeout(r.Context(), timeouts.Short())
	entries, err := journalstore.New(h.DB).ListRecent(loadCtx, uid, persona.MaxEntries)
	loadCancel()
	if err != nil {
		h.Log.Error("failed to load journal", zap.String("user_id", su.ID), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "failed to load journal")
		return
	}

	aiCtx, aiCancel := context.WithTimeout(r.Context(), timeouts.AI())
	summary, err := h.Generator.Generate(aiCtx, entries)
	aiCancel()
	switch {
	case err == nil:
	case errors.Is(err, persona.ErrNoJournal):
		httpjson.Error(w, http.StatusConflict, "write a journal entry first")
		return
	case errors.Is(err, aicall.ErrUnavailable):
		h.Log.Warn("persona generation unavailable", zap.String("user_id", su.ID), zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "persona generation unavailable")
		return
	default:
		h.Log.Error("persona generation failed", zap.String("user_id", su.ID), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "persona generation failed")
		return
	}

	saveCtx, saveCancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer saveCancel()
	err = userstore.New(h.DB).UpdatePersona(saveCtx, uid, userstore.PersonaUpdate{
		Persona: summary.Persona,
		Hobbies: summary.Hobbies,
		MBTI:    summary.MBTI,
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error("failed to save persona", zap.String("user_id", su.ID), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "failed to save persona")
		return
	}

	h.Log.Info("persona refreshed", zap.String("user_id", su.ID), zap.Int("entries", len(entries)))
	h.AuditLog.PersonaRefreshed(saveCtx, r, uid, len(summary.Hobbies))
	httpjson.Write(w, http.StatusOK, summary)
}
