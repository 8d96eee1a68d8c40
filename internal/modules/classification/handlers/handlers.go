// Package handlers provides HTTP handlers for ticker classification.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/factorlens/internal/domain"
	"github.com/aristath/factorlens/internal/modules/classification"
)

// Handler handles classification requests
type Handler struct {
	service *classification.Service
	log     zerolog.Logger
}

// NewHandler creates a new classification handler
func NewHandler(service *classification.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "classification").Logger(),
	}
}

// ClassificationsResponse is the classifications endpoint payload
type ClassificationsResponse struct {
	Classifications map[string]domain.Classification `json:"classifications"`
	Warnings        []string                         `json:"warnings"`
	Diagnostics     Diagnostics                      `json:"diagnostics"`
}

// Diagnostics reports which fallbacks are available
type Diagnostics struct {
	FinnhubConfigured bool `json:"finnhubConfigured"`
}

// HandleGetClassifications classifies ?tickers=A,B from upstream sources
func (h *Handler) HandleGetClassifications(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("tickers")
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, "Provide tickers query param")
		return
	}

	classifications, warnings, err := h.service.Classify(r.Context(), domain.ParseTickers(raw))
	if err != nil {
		h.log.Error().Err(err).Msg("Classification failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, ClassificationsResponse{
		Classifications: classifications,
		Warnings:        warnings,
		Diagnostics:     Diagnostics{FinnhubConfigured: h.service.FinnhubConfigured()},
	})
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
