// Package handlers provides HTTP handlers for price histories.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/factorlens/internal/domain"
	"github.com/aristath/factorlens/internal/modules/prices"
)

// Handler handles price history requests
type Handler struct {
	service *prices.Service
	log     zerolog.Logger
}

// NewHandler creates a new prices handler
func NewHandler(service *prices.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "prices").Logger(),
	}
}

// HandleGetPrices returns {prices, warnings} for ?tickers=A,B
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("tickers")
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, "Provide tickers query param")
		return
	}

	result := h.service.Fetch(r.Context(), domain.ParseTickers(raw))
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
