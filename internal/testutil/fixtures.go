package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/tribehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures inserts test documents directly, bypassing the stores.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// UserOpt tweaks a fixture user before insert.
type UserOpt func(*models.User)

// CreateUser inserts a user who is active, opted in to meetups and 30 years
// old on 2024-01-01. opts override any field.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string, opts ...UserOpt) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	yes := true
	u := models.User{
		ID:                  primitive.NewObjectID(),
		FullName:            fullName,
		FullNameCI:          text.Fold(fullName),
		Email:               email,
		Role:                role,
		DOB:                 time.Date(1993, 6, 15, 0, 0, 0, 0, time.UTC),
		Gender:              models.GenderFemale,
		Location:            "Austin",
		Persona:             fullName + " likes long walks",
		LastActive:          &now,
		InterestedInMeetups: &yes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	for _, o := range opts {
		o(&u)
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateAdmin creates a test user with admin role.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "admin")
}

// CreateMember creates a test user with member role.
func (f *Fixtures) CreateMember(ctx context.Context, fullName, email string, opts ...UserOpt) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "member", opts...)
}

// CreateTribe inserts a tribe with the given members and keeps each
// member's current_tribe_id in sync, as the tribe store would.
func (f *Fixtures) CreateTribe(ctx context.Context, name string, active bool, members ...models.User) models.Tribe {
	f.t.Helper()

	now := time.Now().UTC()
	tr := models.Tribe{
		ID:                 primitive.NewObjectID(),
		Name:               name,
		Active:             active,
		CompatibilityScore: 75,
		FormedAt:           now,
		CreatedAt:          now,
		UpdatedAt:          now,
		Members:            []models.MatchedUser{},
		MemberIDs:          []primitive.ObjectID{},
	}
	for _, u := range members {
		tr.Members = append(tr.Members, models.MatchedUser{
			UserID:             u.ID,
			CompatibilityScore: 75,
			Persona:            u.Persona,
			RSVPStatus:         models.RSVPPending,
			Name:               u.FullName,
			Location:           u.Location,
			Hobbies:            u.Hobbies,
			MBTI:               u.MBTI,
		})
		tr.MemberIDs = append(tr.MemberIDs, u.ID)
	}
	tr.MemberCount = len(tr.Members)

	if _, err := f.db.Collection("tribes").InsertOne(ctx, tr); err != nil {
		f.t.Fatalf("failed to create test tribe: %v", err)
	}
	if len(tr.MemberIDs) > 0 {
		_, err := f.db.Collection("users").UpdateMany(ctx,
			bson.M{"_id": bson.M{"$in": tr.MemberIDs}},
			bson.M{"$set": bson.M{"current_tribe_id": tr.ID}})
		if err != nil {
			f.t.Fatalf("failed to link tribe members: %v", err)
		}
	}
	return tr
}

// CreateJournalEntries inserts n entries for userID, newest at createdAt.
func (f *Fixtures) CreateJournalEntries(ctx context.Context, userID primitive.ObjectID, n int, createdAt time.Time) []models.JournalEntry {
	f.t.Helper()

	out := make([]models.JournalEntry, n)
	docs := make([]any, n)
	for i := 0; i < n; i++ {
		out[i] = models.JournalEntry{
			ID:        primitive.NewObjectID(),
			UserID:    userID,
			Text:      "entry",
			CreatedAt: createdAt.Add(-time.Duration(i) * time.Hour),
		}
		docs[i] = out[i]
	}
	if n == 0 {
		return out
	}
	if _, err := f.db.Collection("journal_entries").InsertMany(ctx, docs); err != nil {
		f.t.Fatalf("failed to create journal entries: %v", err)
	}
	return out
}
