// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/tribehub/internal/app/store/audit"
	userstore "github.com/dalemusser/tribehub/internal/app/store/users"
	"github.com/dalemusser/tribehub/internal/app/system/httpjson"
	"github.com/dalemusser/tribehub/internal/app/system/paging"
	"github.com/dalemusser/tribehub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /admin/audit?category=&user_id=&tribe_id=&before=&limit=
// and returns one newest-first page of events.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter := audit.QueryFilter{Category: strings.TrimSpace(query.Get(r, "category"))}
	if filter.Category != "" && !categories[filter.Category] {
		httpjson.Error(w, http.StatusBadRequest, "unknown category")
		return
	}
	var ok bool
	if filter.UserID, ok = optionalID(w, r, "user_id"); !ok {
		return
	}
	if filter.TribeID, ok = optionalID(w, r, "tribe_id"); !ok {
		return
	}

	limit, err := paging.ParseLimit(r, paging.PageSize)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	before, err := paging.ParseBefore(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	events, next, err := audit.New(h.DB).Query(ctx, filter, paging.Page{Before: before, Limit: limit})
	if err != nil {
		h.Log.Error("failed to query audit events", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "failed to load audit events")
		return
	}

	names := h.resolveNames(ctx, events)
	items := make([]listItem, len(events))
	for i, e := range events {
		items[i] = listItem{Event: e}
		if e.UserID != nil {
			items[i].UserName = names[*e.UserID]
		}
		if e.ActorID != nil {
			items[i].ActorName = names[*e.ActorID]
		}
	}
	httpjson.Write(w, http.StatusOK, listResponse{Events: items, NextCursor: next})
}

// resolveNames looks up display names for every referenced user. A lookup
// failure is logged and leaves names blank.
func (h *Handler) resolveNames(ctx context.Context, events []audit.Event) map[primitive.ObjectID]string {
	seen := map[primitive.ObjectID]struct{}{}
	var ids []primitive.ObjectID
	add := func(id *primitive.ObjectID) {
		if id == nil {
			return
		}
		if _, dup := seen[*id]; !dup {
			seen[*id] = struct{}{}
			ids = append(ids, *id)
		}
	}
	for _, e := range events {
		add(e.UserID)
		add(e.ActorID)
	}

	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out
	}
	users, err := userstore.New(h.DB).GetMany(ctx, ids)
	if err != nil {
		h.Log.Warn("failed to resolve audit user names", zap.Error(err))
		return out
	}
	for id, u := range users {
		out[id] = u.FullName
	}
	return out
}

func optionalID(w http.ResponseWriter, r *http.Request, key string) (*primitive.ObjectID, bool) {
	s := strings.TrimSpace(query.Get(r, key))
	if s == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad "+key)
		return nil, false
	}
	return &id, true
}
