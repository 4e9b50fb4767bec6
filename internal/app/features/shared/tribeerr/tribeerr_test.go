package tribeerr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tribestore "github.com/dalemusser/tribehub/internal/app/store/tribes"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err   error
		want  int
		known bool
	}{
		{mongo.ErrNoDocuments, http.StatusNotFound, true},
		{tribestore.ErrTribeFull, http.StatusConflict, true},
		{fmt.Errorf("join: %w", tribestore.ErrAlreadyInTribe), http.StatusConflict, true},
		{tribestore.ErrTribeInactive, http.StatusConflict, true},
		{tribestore.ErrTribeActive, http.StatusConflict, true},
		{tribestore.ErrNotMember, http.StatusForbidden, true},
		{tribestore.ErrBadRSVP, http.StatusBadRequest, true},
		{tribestore.ErrTooFewMembers, http.StatusBadRequest, true},
		{tribestore.ErrDuplicateMember, http.StatusBadRequest, true},
		{errors.New("connection reset"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		got, known := Status(tt.err)
		if got != tt.want || known != tt.known {
			t.Errorf("Status(%v) = %d,%v; want %d,%v", tt.err, got, known, tt.want, tt.known)
		}
	}
}

func TestWrite_HidesUnexpectedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, zap.NewNop(), "join", errors.New("socket closed 10.0.0.3"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.3") {
		t.Errorf("internal detail leaked: %s", rec.Body.String())
	}
}
