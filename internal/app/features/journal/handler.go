// internal/app/features/journal/handler.go
package journal

import (
	"context"
	"errors"
	"net/http"

	journalstore "github.com/dalemusser/tribehub/internal/app/store/journal"
	"github.com/dalemusser/tribehub/internal/app/system/auth"
	"github.com/dalemusser/tribehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/tribehub/internal/app/system/httpjson"
	"github.com/dalemusser/tribehub/internal/app/system/paging"
	"github.com/dalemusser/tribehub/internal/app/system/timeouts"
	"github.com/dalemusser/tribehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	// MaxTextRunes bounds a single entry after markup is stripped.
	MaxTextRunes = 5000

	defaultListLimit = 20
	maxListLimit     = 100
)

type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger}
}

type createRequest struct {
	Text string `json:"text"`
}

func sessionUserID(r *http.Request) (primitive.ObjectID, bool) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(su.ID)
	return id, err == nil
}

// HandleCreate stores a journal entry for the signed-in user.
// POST /journal {text}
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := sessionUserID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req createRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := journalstore.New(h.DB).Create(ctx, uid, htmlsanitize.TextLimit(req.Text, MaxTextRunes))
	if err != nil {
		if errors.Is(err, journalstore.ErrEmptyEntry) {
			httpjson.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Log.Error("failed to save journal entry", zap.String("user_id", uid.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "failed to save entry")
		return
	}
	httpjson.Write(w, http.StatusCreated, e)
}

type listResponse struct {
	Entries    []models.JournalEntry `json:"entries"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

// HandleList returns one page of the signed-in user's entries, newest first.
// GET /journal?limit=N&before=<cursor>
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	uid, ok := sessionUserID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	limit, err := paging.ParseLimit(r, defaultListLimit)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	limit = min(limit, maxListLimit)
	before, err := paging.ParseBefore(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	entries, next, err := journalstore.New(h.DB).List(ctx, uid, paging.Page{Before: before, Limit: limit})
	if err != nil {
		h.Log.Error("failed to list journal entries", zap.String("user_id", uid.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "failed to load entries")
		return
	}
	httpjson.Write(w, http.StatusOK, listResponse{Entries: entries, NextCursor: next})
}
