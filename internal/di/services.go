// Package di provides dependency injection for services.
package di

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/factorlens/internal/cache"
	"github.com/aristath/factorlens/internal/clientdata"
	"github.com/aristath/factorlens/internal/clients/factorstoday"
	"github.com/aristath/factorlens/internal/clients/finnhub"
	"github.com/aristath/factorlens/internal/clients/french"
	"github.com/aristath/factorlens/internal/clients/upstream"
	"github.com/aristath/factorlens/internal/clients/yahoo"
	"github.com/aristath/factorlens/internal/config"
	"github.com/aristath/factorlens/internal/metrics"
	"github.com/aristath/factorlens/internal/modules/classification"
	"github.com/aristath/factorlens/internal/modules/factors"
	"github.com/aristath/factorlens/internal/modules/portfolio"
	"github.com/aristath/factorlens/internal/modules/prices"
)

// InitializeServices creates the cache, the provider clients and the
// services that use them. Order matters: clients need the loader, services
// need the clients, the portfolio service needs everything.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.Metrics = metrics.NewRegistry()

	// ==========================================
	// STEP 1: Provider response cache
	// ==========================================
	store, closeCache, err := cache.Open(ctx, cfg.Cache, container.CacheDB, log)
	if err != nil {
		return fmt.Errorf("failed to open %s cache: %w", cfg.Cache.Backend, err)
	}
	container.CacheStore = store
	container.closeCache = closeCache
	container.Loader = clientdata.NewLoader(store, container.Metrics, log.With().Str("component", "cache").Logger())

	// ==========================================
	// STEP 2: Clients
	// ==========================================
	container.Upstream = upstream.NewClient(upstream.Options{
		Timeout:           cfg.Upstream.Timeout,
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		Burst:             cfg.Upstream.Burst,
		UserAgent:         cfg.Upstream.UserAgent,
	}, container.Metrics, log)

	container.YahooClient = yahoo.NewClient(container.Upstream, container.Loader, log)
	container.FrenchClient = french.NewClient(container.Upstream, container.Loader, log)
	container.FactorsTodayClient = factorstoday.NewClient(container.Upstream, container.Loader, cfg.Providers.FactorsTodayAPIKey, log)
	container.FinnhubClient = finnhub.NewClient(container.Upstream, cfg.Providers.FinnhubAPIKey, log)

	if !container.FinnhubClient.Configured() {
		log.Warn().Msg("FINNHUB_KEY not set, classification falls back to Yahoo metadata only")
	}

	// ==========================================
	// STEP 3: Domain services
	// ==========================================
	overrides, err := classification.LoadOverrides(cfg.ClassificationOverridesPath)
	if err != nil {
		return err
	}

	container.SectorSource = classification.NewSectorSource(store, cfg.SectorSeedPath, log)
	container.PriceService = prices.NewService(container.YahooClient, log)
	container.FactorService = factors.NewService(container.FrenchClient, container.FactorsTodayClient, log)
	container.ClassificationService = classification.NewService(
		container.SectorSource,
		container.YahooClient,
		container.FinnhubClient,
		container.Loader,
		overrides,
		log,
	)

	// ==========================================
	// STEP 4: Portfolio orchestration, persistence and publishing
	// ==========================================
	container.RunRepo = portfolio.NewRunRepository(container.RunsDB.Conn(), log)
	container.PortfolioService = portfolio.NewService(
		container.PriceService,
		container.FactorService,
		container.ClassificationService,
		container.RunRepo,
		container.Metrics,
		log,
	)
	container.PortfolioService.SetDefaultFactorWindow(cfg.DefaultFactorWindow)

	publisher, err := portfolio.NewS3Publisher(ctx, cfg.S3, log)
	switch {
	case errors.Is(err, portfolio.ErrPublishingDisabled):
		log.Info().Msg("S3_BUCKET not set, run publishing disabled")
	case err != nil:
		return fmt.Errorf("failed to create S3 publisher: %w", err)
	default:
		container.Publisher = publisher
	}

	log.Info().
		Str("cache_backend", cfg.Cache.Backend).
		Bool("finnhub", container.FinnhubClient.Configured()).
		Bool("publishing", container.Publisher != nil).
		Msg("Services initialized")

	return nil
}
