// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/factorlens/internal/clientdata"
	"github.com/aristath/factorlens/internal/config"
	"github.com/aristath/factorlens/internal/database"
	"github.com/aristath/factorlens/internal/scheduler"
)

// Cron schedules (with seconds field).
const (
	ScheduleCacheCleanup        = "0 15 * * * *"   // hourly
	ScheduleFactorWarmup        = "0 30 6 * * *"   // daily, before the US open
	ScheduleSectorRefresh       = "0 0 5 * * *"    // daily
	ScheduleCheckWALCheckpoints = "0 */30 * * * *" // every 30 minutes
	ScheduleRunRetention        = "0 45 3 * * *"   // daily
)

// RegisterJobs creates the maintenance jobs and adds them to the scheduler.
// Returns JobInstances for manual triggering via API. The scheduler is not
// started here.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	container.Scheduler = scheduler.New(log)

	walJob := scheduler.NewCheckWALCheckpointsJob(map[string]*database.DB{
		database.NameCache: container.CacheDB,
		database.NameRuns:  container.RunsDB,
	})
	walJob.SetLogger(log)

	instances := &JobInstances{
		CacheCleanup:        clientdata.NewCleanupJob(container.CacheStore, log),
		FactorWarmup:        scheduler.NewFactorWarmupJob(container.FactorService, log),
		SectorRefresh:       scheduler.NewSectorRefreshJob(container.SectorSource, log),
		CheckWALCheckpoints: walJob,
		RunRetention:        scheduler.NewRunRetentionJob(container.RunRepo, cfg.RunRetention, log),
	}

	schedules := []struct {
		cron string
		job  scheduler.Job
	}{
		{ScheduleCacheCleanup, instances.CacheCleanup},
		{ScheduleFactorWarmup, instances.FactorWarmup},
		{ScheduleSectorRefresh, instances.SectorRefresh},
		{ScheduleCheckWALCheckpoints, instances.CheckWALCheckpoints},
		{ScheduleRunRetention, instances.RunRetention},
	}

	for _, s := range schedules {
		if err := container.Scheduler.AddJob(s.cron, s.job); err != nil {
			return nil, fmt.Errorf("failed to schedule %s: %w", s.job.Name(), err)
		}
	}

	log.Info().Int("jobs", container.Scheduler.Entries()).Msg("Jobs registered")

	return instances, nil
}
