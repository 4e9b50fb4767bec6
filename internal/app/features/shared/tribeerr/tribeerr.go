// internal/app/features/shared/tribeerr/tribeerr.go
//
// Package tribeerr maps tribe store errors onto HTTP responses for the
// member and admin tribe features.
package tribeerr

import (
	"errors"
	"net/http"

	tribestore "github.com/dalemusser/tribehub/internal/app/store/tribes"
	"github.com/dalemusser/tribehub/internal/app/system/httpjson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Status returns the HTTP status for err and whether err is an expected
// domain outcome (as opposed to an infrastructure failure).
func Status(err error) (int, bool) {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return http.StatusNotFound, true
	case errors.Is(err, tribestore.ErrTribeFull),
		errors.Is(err, tribestore.ErrAlreadyInTribe),
		errors.Is(err, tribestore.ErrTribeInactive),
		errors.Is(err, tribestore.ErrTribeActive):
		return http.StatusConflict, true
	case errors.Is(err, tribestore.ErrNotMember):
		return http.StatusForbidden, true
	case errors.Is(err, tribestore.ErrBadRSVP),
		errors.Is(err, tribestore.ErrTooFewMembers),
		errors.Is(err, tribestore.ErrTooManyMembers),
		errors.Is(err, tribestore.ErrDuplicateMember):
		return http.StatusBadRequest, true
	}
	return http.StatusInternalServerError, false
}

// Write sends err as a JSON error. Unexpected errors are logged with op and
// reported with a generic message.
func Write(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	status, known := Status(err)
	if !known {
		log.Error(op+" failed", zap.Error(err))
		httpjson.Error(w, status, op+" failed")
		return
	}
	if status == http.StatusNotFound {
		httpjson.Error(w, status, "tribe not found")
		return
	}
	httpjson.Error(w, status, err.Error())
}
