// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/tribehub/internal/app/system/httpjson"
)

// Handler answers unmatched routes with JSON bodies instead of chi's
// plain-text defaults.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound is installed as the router's NotFound handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	httpjson.Error(w, http.StatusNotFound, "not found")
}

// MethodNotAllowed is installed as the router's MethodNotAllowed handler.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httpjson.Error(w, http.StatusMethodNotAllowed, "method not allowed")
}
