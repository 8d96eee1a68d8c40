// Package handlers provides HTTP handlers for portfolio analysis runs.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/factorlens/internal/modules/portfolio"
)

// maxRequestBytes caps an analysis request body.
const maxRequestBytes = 2 << 20

// Handler handles portfolio analysis requests
type Handler struct {
	service   *portfolio.Service
	runs      *portfolio.RunRepository
	publisher *portfolio.Publisher
	log       zerolog.Logger
}

// NewHandler creates a new portfolio handler. publisher may be nil when
// no bucket is configured.
func NewHandler(service *portfolio.Service, runs *portfolio.RunRepository, publisher *portfolio.Publisher, log zerolog.Logger) *Handler {
	return &Handler{
		service:   service,
		runs:      runs,
		publisher: publisher,
		log:       log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleAnalyze runs a full analysis of the posted holdings
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req portfolio.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	analysis, err := h.service.Analyze(r.Context(), req)
	if errors.Is(err, portfolio.ErrNoHoldings) {
		h.writeError(w, http.StatusBadRequest, "No valid holdings")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Analysis failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, analysis)
}

// HandleListRuns lists recent runs, ?limit=N
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	runs, err := h.runs.List(r.Context(), limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// HandleGetRun returns a stored analysis
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, analysis)
}

// HandleCorrelationExport downloads the 6 month correlation matrix
func (h *Handler) HandleCorrelationExport(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	m, found := analysis.Correlation(portfolio.ExportWindow)
	if !found {
		h.writeError(w, http.StatusNotFound, "Correlation matrix not available")
		return
	}
	h.writeCSV(w, portfolio.CorrelationExportFile, portfolio.CorrelationCSV(m))
}

// HandleFactorsExport downloads the factor regression summary
func (h *Handler) HandleFactorsExport(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	h.writeCSV(w, portfolio.FactorsExportFile, portfolio.FactorsCSV(analysis.Factors.Results))
}

// HandleGroupsExport downloads the sector, region and factor bucket weights
func (h *Handler) HandleGroupsExport(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	h.writeCSV(w, portfolio.GroupsExportFile, portfolio.GroupsCSV(analysis.Concentration))
}

// HandlePublish uploads a run to the configured bucket
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		h.writeError(w, http.StatusServiceUnavailable, "Publishing is not configured")
		return
	}

	analysis, ok := h.loadRun(w, r)
	if !ok {
		return
	}

	pub, err := h.publisher.Publish(r.Context(), analysis)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", analysis.ID).Msg("Publish failed")
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := h.runs.MarkPublished(r.Context(), analysis.ID, pub.Prefix, time.Now().UTC()); err != nil {
		h.log.Warn().Err(err).Str("run_id", analysis.ID).Msg("Failed to record publication")
	}

	h.writeJSON(w, http.StatusOK, pub)
}

func (h *Handler) loadRun(w http.ResponseWriter, r *http.Request) (*portfolio.Analysis, bool) {
	analysis, err := h.runs.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, portfolio.ErrRunNotFound) {
		h.writeError(w, http.StatusNotFound, "Run not found")
		return nil, false
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return analysis, true
}

func (h *Handler) writeCSV(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		h.log.Error().Err(err).Msg("Failed to write CSV response")
	}
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
