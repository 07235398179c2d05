package periods

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/{id}/lock", h.Lock)
	r.Post("/{id}/reopen", h.Reopen)
	r.Post("/{id}/archive", h.Archive)
}
