// internal/app/system/paging/paging.go
package paging

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the default number of rows returned by paged lists.
const PageSize = 50

// MaxPageSize caps the limit a caller may ask for.
const MaxPageSize = 200

var (
	ErrBadLimit  = errors.New("limit must be a positive integer")
	ErrBadCursor = errors.New("before must be a cursor returned by a previous page")
)

// ParseLimit reads the "limit" query parameter. Missing means def; values
// above MaxPageSize are clamped.
func ParseLimit(r *http.Request, def int) (int, error) {
	s := query.Get(r, "limit")
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, ErrBadLimit
	}
	return min(n, MaxPageSize), nil
}

// ParseBefore reads the "before" cursor. A missing cursor means the first page.
func ParseBefore(r *http.Request) (*primitive.ObjectID, error) {
	s := query.Get(r, "before")
	if s == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil, ErrBadCursor
	}
	return &id, nil
}

// Page is a newest-first keyset window over _id.
type Page struct {
	Before *primitive.ObjectID
	Limit  int
}

// Apply adds the cursor condition to filter.
func (p Page) Apply(filter bson.M) bson.M {
	if filter == nil {
		filter = bson.M{}
	}
	if p.Before != nil {
		filter["_id"] = bson.M{"$lt": *p.Before}
	}
	return filter
}

// FindOptions sorts by _id descending and fetches one extra row so TrimPage
// can tell whether an older page exists.
func (p Page) FindOptions() *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(p.Limit + 1))
}

// TrimPage drops the look-ahead row and returns the cursor for the next
// (older) page, or "" when rows was the last page.
func TrimPage[T any](rows *[]T, limit int, idFn func(T) primitive.ObjectID) string {
	if len(*rows) <= limit {
		return ""
	}
	*rows = (*rows)[:limit]
	return idFn((*rows)[limit-1]).Hex()
}
