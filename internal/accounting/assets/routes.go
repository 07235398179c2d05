package assets

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Register)
	r.Get("/{id}", h.Get)
	r.Post("/depreciation-runs", h.EnqueueRun)
}
