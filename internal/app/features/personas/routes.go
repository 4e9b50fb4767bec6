// internal/app/features/personas/routes.go
package personas

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/refresh", h.HandleRefresh)
	return r
}
