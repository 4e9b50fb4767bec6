package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestLimiter_Window(t *testing.T) {
	c := &clock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	l := newLimiter(2, time.Minute, c.now)

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("a") {
		t.Fatal("third request should be limited")
	}
	if !l.Allow("b") {
		t.Error("keys must be independent")
	}
	if got := l.Remaining("a"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
	if got := l.RetryAfter("a"); got != time.Minute {
		t.Errorf("RetryAfter = %v, want 1m", got)
	}

	c.t = c.t.Add(time.Minute + time.Second)
	if !l.Allow("a") {
		t.Error("window should have reset")
	}
	if got := l.Remaining("a"); got != 1 {
		t.Errorf("Remaining after reset = %d, want 1", got)
	}
}

func TestLimiter_ResetAndSweep(t *testing.T) {
	c := &clock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	l := newLimiter(1, time.Minute, c.now)

	l.Allow("a")
	l.Reset("a")
	if !l.Allow("a") {
		t.Error("Reset should clear the window")
	}

	c.t = c.t.Add(2 * time.Minute)
	l.sweep()
	if len(l.windows) != 0 {
		t.Errorf("expired windows not swept: %d left", len(l.windows))
	}
}

func TestLimiter_StopIsIdempotent(t *testing.T) {
	l := New(1, time.Hour)
	l.Stop()
	l.Stop()
}

func TestMiddleware(t *testing.T) {
	l := newLimiter(1, time.Minute, time.Now)
	key := func(r *http.Request) string { return r.Header.Get("X-User") }
	h := l.Middleware(key)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/", nil)
		if user != "" {
			req.Header.Set("X-User", user)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := send("u1"); rec.Code != http.StatusNoContent {
		t.Fatalf("first request: %d", rec.Code)
	}
	rec := send("u1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	if rec := send("u2"); rec.Code != http.StatusNoContent {
		t.Errorf("other user limited: %d", rec.Code)
	}
	for i := 0; i < 3; i++ {
		if rec := send(""); rec.Code != http.StatusNoContent {
			t.Errorf("unkeyed request limited: %d", rec.Code)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded chain", "203.0.113.5, 10.0.0.1", "", "10.0.0.2:443", "203.0.113.5"},
		{"real ip", "", " 198.51.100.7 ", "10.0.0.2:443", "198.51.100.7"},
		{"remote with port", "", "", "192.0.2.1:5555", "192.0.2.1"},
		{"remote without port", "", "", "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter(t *testing.T) {
	ll := NewLoginLimiter(100, time.Minute, 2, time.Minute)
	defer ll.Stop()
	r := httptest.NewRequest("POST", "/login", nil)

	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "Ann@Example.com"); !ok {
			t.Fatalf("attempt %d should pass", i+1)
		}
	}
	if ok, reason := ll.Check(r, " ann@example.com "); ok || reason == "" {
		t.Fatal("third attempt for the same account should be limited")
	}

	ll.ResetEmail("ANN@example.com")
	if ok, _ := ll.Check(r, "ann@example.com"); !ok {
		t.Error("ResetEmail should clear the account limit")
	}

	ipOnly := NewLoginLimiter(1, time.Minute, 100, time.Minute)
	defer ipOnly.Stop()
	ipOnly.Check(r, "a@example.com")
	if ok, _ := ipOnly.Check(r, "b@example.com"); ok {
		t.Error("IP limit should apply across accounts")
	}
}
