package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/factorlens/internal/domain"
)

// FactorWarmupJob loads the benchmark factors so the first analysis of the
// day finds them cached.
type FactorWarmupJob struct {
	factors domain.FactorDataProvider
	log     zerolog.Logger
	timeout time.Duration
}

// NewFactorWarmupJob creates a new factor warm-up job
func NewFactorWarmupJob(factors domain.FactorDataProvider, log zerolog.Logger) *FactorWarmupJob {
	return &FactorWarmupJob{
		factors: factors,
		log:     log.With().Str("job", "factor_warmup").Logger(),
		timeout: 2 * time.Minute,
	}
}

// Name returns the job name
func (j *FactorWarmupJob) Name() string {
	return "factor_warmup"
}

// Run executes the factor warm-up job
func (j *FactorWarmupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	set, err := j.factors.DailyFactors(ctx)
	if err != nil {
		return fmt.Errorf("factor warm-up: %w", err)
	}

	j.log.Info().
		Int("rows", len(set.Rows)).
		Bool("has_momentum", set.HasMomentum).
		Msg("Factor data warmed")
	return nil
}

// SectorRefresher reloads the constituent sector snapshot.
type SectorRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// SectorRefreshJob keeps the sector snapshot cache populated.
type SectorRefreshJob struct {
	sectors SectorRefresher
	log     zerolog.Logger
	timeout time.Duration
}

// NewSectorRefreshJob creates a new sector refresh job
func NewSectorRefreshJob(sectors SectorRefresher, log zerolog.Logger) *SectorRefreshJob {
	return &SectorRefreshJob{
		sectors: sectors,
		log:     log.With().Str("job", "sector_refresh").Logger(),
		timeout: time.Minute,
	}
}

// Name returns the job name
func (j *SectorRefreshJob) Name() string {
	return "sector_refresh"
}

// Run executes the sector refresh job
func (j *SectorRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.sectors.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("sector refresh: %w", err)
	}

	j.log.Info().Int("constituents", n).Msg("Sector snapshot refreshed")
	return nil
}

// RunPruner deletes stored analyses.
type RunPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunRetentionJob deletes analysis runs older than the retention period.
type RunRetentionJob struct {
	runs      RunPruner
	retention time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// NewRunRetentionJob creates a new run retention job
func NewRunRetentionJob(runs RunPruner, retention time.Duration, log zerolog.Logger) *RunRetentionJob {
	return &RunRetentionJob{
		runs:      runs,
		retention: retention,
		log:       log.With().Str("job", "run_retention").Logger(),
		now:       time.Now,
	}
}

// Name returns the job name
func (j *RunRetentionJob) Name() string {
	return "run_retention"
}

// Run executes the run retention job. A non-positive retention keeps
// everything.
func (j *RunRetentionJob) Run() error {
	if j.retention <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := j.now().Add(-j.retention)
	deleted, err := j.runs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("run retention: %w", err)
	}

	if deleted > 0 {
		j.log.Info().
			Int64("deleted", deleted).
			Time("cutoff", cutoff).
			Msg("Deleted old analysis runs")
	}
	return nil
}
