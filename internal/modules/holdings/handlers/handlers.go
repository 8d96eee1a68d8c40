// Package handlers provides HTTP handlers for holdings input.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/factorlens/internal/modules/analytics"
	"github.com/aristath/factorlens/internal/modules/holdings"
)

// MaxUploadBytes caps the size of an imported holdings file.
const MaxUploadBytes = 5 << 20

// Handler handles holdings requests
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a new holdings handler
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{
		log: log.With().Str("handler", "holdings").Logger(),
	}
}

// HoldingsResponse is the payload of both holdings endpoints
type HoldingsResponse struct {
	Holdings []analytics.HoldingInput `json:"holdings"`
	Warnings []string                 `json:"warnings"`
}

// HandleGetDefaults returns the sample portfolio
func (h *Handler) HandleGetDefaults(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HoldingsResponse{
		Holdings: holdings.Defaults(),
		Warnings: []string{},
	})
}

// HandleImport parses a holdings CSV sent either as the raw request body or
// as the "file" field of a multipart form.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Upload a CSV in the file field")
			return
		}
		defer file.Close()
		src = file
	}

	parsed, err := holdings.ParseCSV(src)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "Holdings file too large")
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	warnings := analytics.StructureWarnings(analytics.NormalizeHoldings(parsed))
	if len(parsed) == 0 {
		warnings = append(warnings, "No valid holdings found in CSV")
	}
	if warnings == nil {
		warnings = []string{}
	}

	h.log.Debug().Int("holdings", len(parsed)).Msg("Imported holdings CSV")
	h.writeJSON(w, http.StatusOK, HoldingsResponse{Holdings: parsed, Warnings: warnings})
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
