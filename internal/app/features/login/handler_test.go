package login_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/tribehub/internal/app/features/login"
	"github.com/dalemusser/tribehub/internal/app/store/audit"
	userstore "github.com/dalemusser/tribehub/internal/app/store/users"
	"github.com/dalemusser/tribehub/internal/app/system/auditlog"
	"github.com/dalemusser/tribehub/internal/app/system/auth"
	"github.com/dalemusser/tribehub/internal/app/system/paging"
	"github.com/dalemusser/tribehub/internal/app/system/ratelimit"
	"github.com/dalemusser/tribehub/internal/domain/models"
	"github.com/dalemusser/tribehub/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*login.Handler, *auth.SessionManager, *userstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	limiter := ratelimit.NewLoginLimiter(100, time.Minute, 3, time.Minute)
	t.Cleanup(limiter.Stop)
	audits := auditlog.New(audit.New(db), zap.NewNop(), auditlog.Config{})
	return login.NewHandler(db, sm, audits, limiter, zap.NewNop()), sm, userstore.New(db)
}

func TestHandleLogin_Success(t *testing.T) {
	h, sm, users := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := users.Create(ctx, models.User{FullName: "Ada", Email: "ada@example.com", Role: "member"}, "correct horse")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	rec := httptest.NewRecorder()
	login.Routes(h).ServeHTTP(rec, testutil.NewJSONRequest(t, "POST", "/", map[string]string{
		"email": "ADA@example.com", "password": "correct horse",
	}))
	testutil.AssertStatus(t, rec, http.StatusOK)

	body := testutil.DecodeJSON[struct {
		User struct{ ID, Role string }
	}](t, rec)
	if body.User.ID != u.ID.Hex() || body.User.Role != "member" {
		t.Errorf("unexpected user in response: %+v", body.User)
	}

	// The cookie must authenticate a follow-up request.
	var signedIn bool
	next := httptest.NewRequest("GET", "/tribes", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, signedIn = auth.CurrentUser(r)
	})).ServeHTTP(httptest.NewRecorder(), next)
	if !signedIn {
		t.Error("session cookie did not authenticate")
	}

	got, _ := users.GetByID(ctx, u.ID)
	if got.LastActive == nil {
		t.Error("expected last_active to be recorded")
	}
}

func TestHandleLogin_Rejections(t *testing.T) {
	h, _, users := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := users.Create(ctx, models.User{Email: "bob@example.com", Role: "member"}, "pw-123456"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	tests := []struct {
		name string
		body any
		want int
	}{
		{"wrong password", map[string]string{"email": "bob@example.com", "password": "nope"}, http.StatusUnauthorized},
		{"unknown email", map[string]string{"email": "who@example.com", "password": "pw-123456"}, http.StatusUnauthorized},
		{"missing password", map[string]string{"email": "bob@example.com"}, http.StatusBadRequest},
		{"unknown field", map[string]string{"login": "bob"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			login.Routes(h).ServeHTTP(rec, testutil.NewJSONRequest(t, "POST", "/", tt.body))
			testutil.AssertStatus(t, rec, tt.want)
			if len(rec.Result().Cookies()) != 0 {
				t.Error("no session cookie expected on failure")
			}
		})
	}
}

func TestHandleLogin_Audited(t *testing.T) {
	h, _, users := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := users.Create(ctx, models.User{Email: "cy@example.com", Role: "member"}, "pw-123456")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	for _, pw := range []string{"wrong", "pw-123456"} {
		rec := httptest.NewRecorder()
		login.Routes(h).ServeHTTP(rec, testutil.NewJSONRequest(t, "POST", "/", map[string]string{"email": "cy@example.com", "password": pw}))
	}

	events, _, err := audit.New(h.DB).Query(ctx, audit.QueryFilter{Category: audit.CategoryAuth}, paging.Page{Limit: 10})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 auth events, got %d", len(events))
	}
	if events[0].EventType != audit.EventLoginSuccess || events[0].UserID == nil || *events[0].UserID != u.ID {
		t.Errorf("newest event should be the successful login: %+v", events[0])
	}
	if events[1].EventType != audit.EventLoginFailed || events[1].Success {
		t.Errorf("older event should be the failed login: %+v", events[1])
	}
}

func TestHandleLogin_RateLimited(t *testing.T) {
	h, _, users := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := users.Create(ctx, models.User{Email: "dee@example.com", Role: "member"}, "pw-123456"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	attempt := func(pw string) int {
		rec := httptest.NewRecorder()
		login.Routes(h).ServeHTTP(rec, testutil.NewJSONRequest(t, "POST", "/", map[string]string{"email": "dee@example.com", "password": pw}))
		return rec.Code
	}
	for i := 0; i < 3; i++ {
		if got := attempt("wrong"); got != http.StatusUnauthorized {
			t.Fatalf("attempt %d: got %d, want 401", i+1, got)
		}
	}
	if got := attempt("pw-123456"); got != http.StatusTooManyRequests {
		t.Fatalf("fourth attempt: got %d, want 429", got)
	}

	events, _, err := audit.New(h.DB).Query(ctx, audit.QueryFilter{Category: audit.CategoryAuth}, paging.Page{Limit: 1})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 1 || events[0].EventType != audit.EventLoginRateLimited {
		t.Errorf("expected a rate-limited audit event, got %+v", events)
	}
}
