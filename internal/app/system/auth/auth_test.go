package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/tribehub/internal/app/system/auth"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "", "", time.Hour, false, nil); err == nil {
		t.Fatal("expected error for empty session key")
	}
}

func TestRequireSignedIn_NoUser_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	sm.RequireSignedIn(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/tribes", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["error"] != "unauthorized" {
		t.Errorf("unexpected body %v (err %v)", body, err)
	}
}

func TestRequireSignedIn_WithUser_PassesThrough(t *testing.T) {
	sm := newTestSessionManager(t)

	req := auth.WithUser(httptest.NewRequest("GET", "/tribes", nil), &auth.SessionUser{ID: "u1", Role: auth.RoleMember})
	rec := httptest.NewRecorder()
	sm.RequireSignedIn(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	sm := newTestSessionManager(t)
	h := sm.RequireRole("Admin")(okHandler())

	tests := []struct {
		name string
		user *auth.SessionUser
		want int
	}{
		{"signed out", nil, http.StatusUnauthorized},
		{"member", &auth.SessionUser{ID: "m", Role: auth.RoleMember}, http.StatusForbidden},
		{"admin", &auth.SessionUser{ID: "a", Role: auth.RoleAdmin}, http.StatusOK},
		{"admin uppercase", &auth.SessionUser{ID: "a", Role: "ADMIN"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/admin/tribes", nil)
			if tt.user != nil {
				req = auth.WithUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestSignIn_RoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)
	want := auth.SessionUser{ID: "abc123", Name: "Ada", Email: "ada@example.com", Role: auth.RoleAdmin}

	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest("POST", "/login", nil), want); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	var got *auth.SessionUser
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	})
	req := httptest.NewRequest("GET", "/tribes", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	sm.LoadSessionUser(capture).ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || *got != want {
		t.Fatalf("CurrentUser = %+v, want %+v", got, want)
	}
	if !got.IsAdmin() {
		t.Error("expected IsAdmin")
	}
}

func TestLoadSessionUser_TamperedCookieIsSignedOut(t *testing.T) {
	sm := newTestSessionManager(t)

	var found bool
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = auth.CurrentUser(r)
	})
	req := httptest.NewRequest("GET", "/tribes", nil)
	req.AddCookie(&http.Cookie{Name: "test-session", Value: "garbage"})
	sm.LoadSessionUser(capture).ServeHTTP(httptest.NewRecorder(), req)

	if found {
		t.Error("tampered cookie should not authenticate")
	}
}

func TestSignOut_ExpiresCookie(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	if err := sm.SignOut(rec, httptest.NewRequest("POST", "/logout", nil)); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected an expiring cookie, got %+v", cookies)
	}
}
