// Package server provides the HTTP server and routing for factorlens.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/factorlens/internal/config"
	"github.com/aristath/factorlens/internal/database"
	"github.com/aristath/factorlens/internal/di"
	"github.com/aristath/factorlens/internal/metrics"
	classificationhandlers "github.com/aristath/factorlens/internal/modules/classification/handlers"
	factorshandlers "github.com/aristath/factorlens/internal/modules/factors/handlers"
	holdingshandlers "github.com/aristath/factorlens/internal/modules/holdings/handlers"
	portfoliohandlers "github.com/aristath/factorlens/internal/modules/portfolio/handlers"
	priceshandlers "github.com/aristath/factorlens/internal/modules/prices/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container    // DI container with all services
	Jobs      *di.JobInstances // optional; enables manual job runs
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	metrics        *metrics.Registry
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	c := cfg.Container

	var jobs JobCatalog
	var runner JobRunner
	if cfg.Jobs != nil {
		jobs = cfg.Jobs
	}
	if c.Scheduler != nil {
		runner = c.Scheduler
	}

	var breakers BreakerReporter
	if c.Upstream != nil {
		breakers = c.Upstream
	}

	systemHandlers := NewSystemHandlers(
		cfg.Log,
		cfg.Config.DataDir,
		[]*database.DB{c.CacheDB, c.RunsDB},
		breakers,
		jobs,
		runner,
		Features{
			CacheBackend:      cfg.Config.Cache.Backend,
			FinnhubConfigured: c.ClassificationService != nil && c.ClassificationService.FinnhubConfigured(),
			PublishingEnabled: c.Publisher != nil,
		},
	)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		container:      c,
		metrics:        c.Metrics,
		systemHandlers: systemHandlers,
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // cold analyses fetch every ticker upstream
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	c := s.container

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
			r.Post("/jobs/{name}", s.systemHandlers.HandleTriggerJob)
		})

		priceshandlers.NewHandler(c.PriceService, s.log).RegisterRoutes(r)
		factorshandlers.NewHandler(c.FactorService, s.log).RegisterRoutes(r)
		classificationhandlers.NewHandler(c.ClassificationService, s.log).RegisterRoutes(r)
		holdingshandlers.NewHandler(s.log).RegisterRoutes(r)
		portfoliohandlers.NewHandler(c.PortfolioService, c.RunRepo, c.Publisher, s.log).RegisterRoutes(r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests and counts them by status
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveHTTP(r.Method, strconv.Itoa(status))

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
