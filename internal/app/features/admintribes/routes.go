// internal/app/features/admintribes/routes.go
package admintribes

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleCreate)
	r.Post("/preview", h.HandlePreview)
	r.Post("/{id}/activate", h.HandleActivate)
	r.Post("/{id}/deactivate", h.HandleDeactivate)
	r.Post("/{id}/archive", h.HandleArchive)
	r.Post("/{id}/delete", h.HandleDelete)
	return r
}
