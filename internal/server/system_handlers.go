// Package server provides the HTTP server and routing for factorlens.
package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/factorlens/internal/clients/factorstoday"
	"github.com/aristath/factorlens/internal/clients/finnhub"
	"github.com/aristath/factorlens/internal/clients/french"
	"github.com/aristath/factorlens/internal/clients/yahoo"
	"github.com/aristath/factorlens/internal/database"
	"github.com/aristath/factorlens/internal/scheduler"
)

// providers lists the upstream breakers reported by the status endpoint.
var providers = []string{yahoo.Provider, french.Provider, factorstoday.Provider, finnhub.Provider}

// BreakerReporter exposes circuit breaker state per provider.
type BreakerReporter interface {
	BreakerState(provider string) string
}

// JobCatalog finds registered jobs by name.
type JobCatalog interface {
	All() []scheduler.Job
	Lookup(name string) (scheduler.Job, bool)
}

// JobRunner executes a job outside its schedule.
type JobRunner interface {
	RunNow(job scheduler.Job) error
}

// Features describes optional capabilities for the status endpoint.
type Features struct {
	CacheBackend      string
	FinnhubConfigured bool
	PublishingEnabled bool
}

// SystemHandlers handles system-wide monitoring and operations endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	databases   []*database.DB
	breakers    BreakerReporter
	jobs        JobCatalog
	runner      JobRunner
	features    Features
}

// NewSystemHandlers creates a new system handlers instance. breakers, jobs
// and runner may be nil.
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	databases []*database.DB,
	breakers BreakerReporter,
	jobs JobCatalog,
	runner JobRunner,
	features Features,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		databases:   databases,
		breakers:    breakers,
		jobs:        jobs,
		runner:      runner,
		features:    features,
	}
}

// SystemStatusResponse is the payload of GET /api/system/status
type SystemStatusResponse struct {
	Status            string            `json:"status"`
	Uptime            string            `json:"uptime"`
	UptimeSeconds     int64             `json:"uptime_seconds"`
	CPUPercent        float64           `json:"cpu_percent"`
	MemoryPercent     float64           `json:"memory_percent"`
	CacheBackend      string            `json:"cache_backend"`
	Breakers          map[string]string `json:"breakers"`
	FinnhubConfigured bool              `json:"finnhub_configured"`
	PublishingEnabled bool              `json:"publishing_enabled"`
	Jobs              []string          `json:"jobs"`
	LastChecked       string            `json:"last_checked"`
}

// DatabaseStatsResponse represents database statistics
type DatabaseStatsResponse struct {
	Databases     []DBInfo `json:"databases"`
	TotalSizeMB   float64  `json:"total_size_mb"`
	DataDirSizeMB float64  `json:"data_dir_size_mb"`
	LastChecked   string   `json:"last_checked"`
}

// DBInfo represents information about a single database
type DBInfo struct {
	Name   string  `json:"name"`
	Path   string  `json:"path"`
	SizeMB float64 `json:"size_mb"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()
	uptime := time.Since(h.startupTime)

	breakers := make(map[string]string, len(providers))
	if h.breakers != nil {
		for _, p := range providers {
			breakers[p] = h.breakers.BreakerState(p)
		}
	}

	jobs := []string{}
	if h.jobs != nil {
		for _, job := range h.jobs.All() {
			jobs = append(jobs, job.Name())
		}
	}

	h.writeJSON(w, http.StatusOK, SystemStatusResponse{
		Status:            "healthy",
		Uptime:            uptime.Truncate(time.Second).String(),
		UptimeSeconds:     int64(uptime.Seconds()),
		CPUPercent:        cpuPercent,
		MemoryPercent:     memPercent,
		CacheBackend:      h.features.CacheBackend,
		Breakers:          breakers,
		FinnhubConfigured: h.features.FinnhubConfigured,
		PublishingEnabled: h.features.PublishingEnabled,
		Jobs:              jobs,
		LastChecked:       time.Now().Format(time.RFC3339),
	})
}

// HandleDatabaseStats handles GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	databases := []DBInfo{}
	totalSizeMB := 0.0

	for _, db := range h.databases {
		if db == nil {
			continue
		}
		// WAL and shared memory files belong to the database too
		sizeMB := 0.0
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if info, err := os.Stat(db.Path() + suffix); err == nil {
				sizeMB += float64(info.Size()) / 1024 / 1024
			}
		}
		totalSizeMB += sizeMB

		databases = append(databases, DBInfo{
			Name:   db.Name(),
			Path:   db.Path(),
			SizeMB: sizeMB,
		})
	}

	h.writeJSON(w, http.StatusOK, DatabaseStatsResponse{
		Databases:     databases,
		TotalSizeMB:   totalSizeMB,
		DataDirSizeMB: h.getDirSize(h.dataDir),
		LastChecked:   time.Now().Format(time.RFC3339),
	})
}

// HandleTriggerJob handles POST /api/system/jobs/{name}. The job runs in
// the background; failures are logged.
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if h.jobs == nil || h.runner == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "message": "Jobs not registered"})
		return
	}

	job, ok := h.jobs.Lookup(name)
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"status": "error", "message": "Unknown job: " + name})
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job run triggered")
	go func() {
		if err := h.runner.RunNow(job); err != nil {
			h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		}
	}()

	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "success", "message": name + " triggered successfully"})
}

func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	if dirPath == "" {
		return 0
	}

	var totalSize int64
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

func (h *SystemHandlers) getSystemStats() (float64, float64) {
	// Sample CPU over 100ms so the status call stays fast
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
