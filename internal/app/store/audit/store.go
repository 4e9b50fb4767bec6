// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"github.com/dalemusser/tribehub/internal/app/system/paging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Event categories
const (
	CategoryAuth   = "auth"
	CategoryAdmin  = "admin"
	CategoryMember = "member"
	CategorySystem = "system"
)

// Auth event types
const (
	EventLoginSuccess     = "login_success"
	EventLoginFailed      = "login_failed"
	EventLoginRateLimited = "login_rate_limited"
	EventLogout           = "logout"
)

// Admin event types
const (
	EventTribeCreated     = "tribe_created"
	EventTribeActivated   = "tribe_activated"
	EventTribeDeactivated = "tribe_deactivated"
	EventTribeArchived    = "tribe_archived"
	EventTribeDeleted     = "tribe_deleted"
)

// Member event types
const (
	EventTribeJoined      = "tribe_joined"
	EventTribeLeft        = "tribe_left"
	EventPersonaRefreshed = "persona_refreshed"
)

// System event types
const (
	EventTribeAutoArchived = "tribe_auto_archived"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	UserID  *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`   // affected user
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"` // who acted, when not the user
	TribeID *primitive.ObjectID `bson:"tribe_id,omitempty" json:"tribe_id,omitempty"`

	IP        string `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`

	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter narrows a Query. Zero fields match everything.
type QueryFilter struct {
	Category string
	UserID   *primitive.ObjectID
	TribeID  *primitive.ObjectID
}

func (f QueryFilter) bson() bson.M {
	q := bson.M{}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.UserID != nil {
		q["user_id"] = *f.UserID
	}
	if f.TribeID != nil {
		q["tribe_id"] = *f.TribeID
	}
	return q
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query returns one newest-first page of events and the cursor for the
// next page ("" when there is none).
func (s *Store) Query(ctx context.Context, filter QueryFilter, page paging.Page) ([]Event, string, error) {
	if page.Limit <= 0 {
		page.Limit = paging.PageSize
	}
	cur, err := s.c.Find(ctx, page.Apply(filter.bson()), page.FindOptions())
	if err != nil {
		return nil, "", err
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, "", err
	}
	next := paging.TrimPage(&events, page.Limit, func(e Event) primitive.ObjectID { return e.ID })
	return events, next, nil
}
