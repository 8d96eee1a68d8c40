// Package handlers provides HTTP handlers for factor data.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/factorlens/internal/domain"
	"github.com/aristath/factorlens/internal/modules/factors"
)

// Handler handles factor data requests
type Handler struct {
	service *factors.Service
	log     zerolog.Logger
}

// NewHandler creates a new factors handler
func NewHandler(service *factors.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "factors").Logger(),
	}
}

// HandleGetFactors returns benchmark factors, loadings for the optional
// ?tickers= list and the factor catalog
func (h *Handler) HandleGetFactors(w http.ResponseWriter, r *http.Request) {
	tickers := domain.ParseTickers(r.URL.Query().Get("tickers"))
	h.writeJSON(w, http.StatusOK, h.service.Report(r.Context(), tickers))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
