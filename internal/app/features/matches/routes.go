// internal/app/features/matches/routes.go
package matches

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleFind)
	return r
}
