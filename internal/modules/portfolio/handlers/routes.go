package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the portfolio analysis routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/portfolio/analyze", h.HandleAnalyze)

	r.Get("/portfolio/runs", h.HandleListRuns)
	r.Get("/portfolio/runs/{id}", h.HandleGetRun)
	r.Get("/portfolio/runs/{id}/exports/correlation.csv", h.HandleCorrelationExport)
	r.Get("/portfolio/runs/{id}/exports/factors.csv", h.HandleFactorsExport)
	r.Get("/portfolio/runs/{id}/exports/groups.csv", h.HandleGroupsExport)
	r.Post("/portfolio/runs/{id}/publish", h.HandlePublish)
}
