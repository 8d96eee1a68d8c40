package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the factor routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/factors", h.HandleGetFactors)
}
