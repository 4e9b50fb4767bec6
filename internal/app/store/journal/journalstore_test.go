package journalstore_test

import (
	"errors"
	"testing"
	"time"

	journalstore "github.com/dalemusser/tribehub/internal/app/store/journal"
	"github.com/dalemusser/tribehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateAndListRecent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := journalstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := primitive.NewObjectID()
	fx := testutil.NewFixtures(t, db)
	fx.CreateJournalEntries(ctx, uid, 3, time.Now().Add(-time.Hour))

	e, err := store.Create(ctx, uid, "  Went climbing  ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.Text != "Went climbing" {
		t.Errorf("Text = %q", e.Text)
	}
	if _, err := store.Create(ctx, uid, "   "); !errors.Is(err, journalstore.ErrEmptyEntry) {
		t.Errorf("expected ErrEmptyEntry, got %v", err)
	}

	got, err := store.ListRecent(ctx, uid, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 2 || got[0].ID != e.ID {
		t.Errorf("expected newest entry first, got %+v", got)
	}
}

func TestCountByUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := journalstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	fx.CreateJournalEntries(ctx, a, 4, time.Now())
	fx.CreateJournalEntries(ctx, b, 1, time.Now())
	fx.CreateJournalEntries(ctx, primitive.NewObjectID(), 5, time.Now())

	got, err := store.CountByUsers(ctx, []primitive.ObjectID{a, b, c})
	if err != nil {
		t.Fatalf("CountByUsers: %v", err)
	}
	if got[a] != 4 || got[b] != 1 {
		t.Errorf("unexpected counts: %v", got)
	}
	if _, ok := got[c]; ok {
		t.Error("user without entries should be absent")
	}
	if len(got) != 2 {
		t.Errorf("only requested users should be counted, got %v", got)
	}

	empty, err := store.CountByUsers(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("nil ids: got %v, %v", empty, err)
	}
}
