package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the classification routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolio-classifications", h.HandleGetClassifications)
}
