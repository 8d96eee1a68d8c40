package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the holdings routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolio/holdings/defaults", h.HandleGetDefaults)
	r.Post("/portfolio/holdings/import", h.HandleImport)
}
