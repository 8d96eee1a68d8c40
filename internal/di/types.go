/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server and the CLI for access to services.
 */
package di

import (
	"errors"

	"github.com/aristath/factorlens/internal/clientdata"
	"github.com/aristath/factorlens/internal/clients/factorstoday"
	"github.com/aristath/factorlens/internal/clients/finnhub"
	"github.com/aristath/factorlens/internal/clients/french"
	"github.com/aristath/factorlens/internal/clients/upstream"
	"github.com/aristath/factorlens/internal/clients/yahoo"
	"github.com/aristath/factorlens/internal/database"
	"github.com/aristath/factorlens/internal/metrics"
	"github.com/aristath/factorlens/internal/modules/classification"
	"github.com/aristath/factorlens/internal/modules/factors"
	"github.com/aristath/factorlens/internal/modules/portfolio"
	"github.com/aristath/factorlens/internal/modules/prices"
	"github.com/aristath/factorlens/internal/scheduler"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Databases: cache.db (provider responses, sqlite backend) and runs.db (stored analyses)
 * - Cache: the provider response store selected by CACHE_BACKEND, behind a Loader
 * - Clients: market data providers sharing one rate limited upstream client
 * - Services: prices, factors, classification and the portfolio orchestrator
 * - Scheduler: cron driven maintenance jobs
 */
type Container struct {
	// Databases
	CacheDB *database.DB // Provider response cache (ProfileCache)
	RunsDB  *database.DB // Stored analysis runs

	// Observability
	Metrics *metrics.Registry

	// Cache
	CacheStore clientdata.Store   // Backend chosen by CACHE_BACKEND
	Loader     *clientdata.Loader // Cache-first, stale-on-failure policy
	closeCache func() error       // Releases backend resources (redis connection)

	// Clients - External API integrations
	Upstream           *upstream.Client // Shared rate limiter, breakers and retries
	YahooClient        *yahoo.Client
	FrenchClient       *french.Client
	FactorsTodayClient *factorstoday.Client
	FinnhubClient      *finnhub.Client

	// Services - Business logic layer
	SectorSource          *classification.SectorSource
	PriceService          *prices.Service
	FactorService         *factors.Service
	ClassificationService *classification.Service
	RunRepo               *portfolio.RunRepository
	PortfolioService      *portfolio.Service
	Publisher             *portfolio.Publisher // nil when S3_BUCKET is unset

	// Background jobs
	Scheduler *scheduler.Scheduler
}

// JobInstances holds references to the registered jobs for manual triggering.
type JobInstances struct {
	CacheCleanup        *clientdata.CleanupJob
	FactorWarmup        *scheduler.FactorWarmupJob
	SectorRefresh       *scheduler.SectorRefreshJob
	CheckWALCheckpoints *scheduler.CheckWALCheckpointsJob
	RunRetention        *scheduler.RunRetentionJob
}

// All returns every job in registration order.
func (j *JobInstances) All() []scheduler.Job {
	if j == nil {
		return nil
	}
	return []scheduler.Job{j.CacheCleanup, j.FactorWarmup, j.SectorRefresh, j.CheckWALCheckpoints, j.RunRetention}
}

// Lookup finds a job by its Name.
func (j *JobInstances) Lookup(name string) (scheduler.Job, bool) {
	for _, job := range j.All() {
		if job.Name() == name {
			return job, true
		}
	}
	return nil, false
}

// Close stops the scheduler and releases the cache backend and databases.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}

	var errs []error
	if c.closeCache != nil {
		errs = append(errs, c.closeCache())
	}
	if c.CacheDB != nil {
		errs = append(errs, c.CacheDB.Close())
	}
	if c.RunsDB != nil {
		errs = append(errs, c.RunsDB.Close())
	}
	return errors.Join(errs...)
}

// closeDatabases is the cleanup used by Wire when a later step fails.
func (c *Container) closeDatabases() {
	if c.closeCache != nil {
		_ = c.closeCache()
	}
	if c.CacheDB != nil {
		_ = c.CacheDB.Close()
	}
	if c.RunsDB != nil {
		_ = c.RunsDB.Close()
	}
}
