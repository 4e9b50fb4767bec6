package httpjson_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/tribehub/internal/app/system/httpjson"
)

type payload struct {
	Name string `json:"name"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"ok", `{"name":"ada"}`, "ada", false},
		{"empty body", ``, "", false},
		{"unknown field", `{"nom":"x"}`, "", true},
		{"trailing data", `{"name":"a"}{"name":"b"}`, "", true},
		{"not json", `name=ada`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			err := httpjson.Decode(httptest.NewRecorder(), req, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && p.Name != tt.want {
				t.Errorf("Name = %q, want %q", p.Name, tt.want)
			}
		})
	}
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	httpjson.Error(rec, http.StatusServiceUnavailable, "matching unavailable")

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"matching unavailable"}` {
		t.Errorf("body = %s", got)
	}
}
