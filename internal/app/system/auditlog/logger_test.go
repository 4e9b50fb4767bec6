package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/tribehub/internal/app/store/audit"
	"github.com/dalemusser/tribehub/internal/app/system/auditlog"
	"github.com/dalemusser/tribehub/internal/app/system/paging"
	"github.com/dalemusser/tribehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "a@example.com")
	logger.Logout(ctx, req, primitive.NewObjectID().Hex())
	logger.TribeAutoArchived(ctx, primitive.NewObjectID())
}

func TestLogger_Modes(t *testing.T) {
	tests := []struct {
		mode     string
		wantDB   int
		wantLogs int
	}{
		{auditlog.ModeAll, 1, 1},
		{auditlog.ModeDB, 1, 0},
		{auditlog.ModeLog, 0, 1},
		{auditlog.ModeOff, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			core, logs := observer.New(zap.InfoLevel)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: tt.mode})
			userID := primitive.NewObjectID()
			logger.LoginSuccess(ctx, httptest.NewRequest("POST", "/login", nil), userID, "a@example.com")

			events, _, err := store.Query(ctx, audit.QueryFilter{UserID: &userID}, paging.Page{Limit: 10})
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(events) != tt.wantDB {
				t.Errorf("stored %d events, want %d", len(events), tt.wantDB)
			}
			if logs.Len() != tt.wantLogs {
				t.Errorf("logged %d entries, want %d", logs.Len(), tt.wantLogs)
			}
		})
	}
}

func TestLogger_CategoriesAreIndependent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{
		Auth:   auditlog.ModeOff,
		Admin:  auditlog.ModeDB,
		Member: auditlog.ModeDB,
	})
	req := httptest.NewRequest("POST", "/", nil)
	actor, user, tribe := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	logger.LoginFailed(ctx, req, &user, "u@example.com", "wrong password")
	logger.TribeCreated(ctx, req, actor, tribe, "Hikers", 3, 81)
	logger.TribeJoined(ctx, req, user, tribe, 77)

	events, _, err := store.Query(ctx, audit.QueryFilter{TribeID: &tribe}, paging.Page{Limit: 10})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected admin and member events only, got %d", len(events))
	}
	if auth, _, _ := store.Query(ctx, audit.QueryFilter{Category: audit.CategoryAuth}, paging.Page{Limit: 10}); len(auth) != 0 {
		t.Errorf("auth events should be off, got %d", len(auth))
	}

	created := events[1]
	if created.EventType != audit.EventTribeCreated || created.ActorID == nil || *created.ActorID != actor {
		t.Errorf("unexpected created event: %+v", created)
	}
	if created.Details["score"] != "81" || created.Details["members"] != "3" {
		t.Errorf("details = %v", created.Details)
	}
}

func TestLogger_RequestContext(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{})
	req := httptest.NewRequest("POST", "/logout", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("User-Agent", "TestBrowser/1.0")
	userID := primitive.NewObjectID()

	logger.Logout(ctx, req, userID.Hex())

	events, _, err := store.Query(ctx, audit.QueryFilter{UserID: &userID}, paging.Page{Limit: 10})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].IP != "203.0.113.9" {
		t.Errorf("IP = %q", events[0].IP)
	}
	if events[0].UserAgent != "TestBrowser/1.0" {
		t.Errorf("UserAgent = %q", events[0].UserAgent)
	}
}

func TestValidMode(t *testing.T) {
	for _, m := range []string{"all", "db", "log", "off"} {
		if !auditlog.ValidMode(m) {
			t.Errorf("%q should be valid", m)
		}
	}
	for _, m := range []string{"", "ALL", "file"} {
		if auditlog.ValidMode(m) {
			t.Errorf("%q should be invalid", m)
		}
	}
}
