package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/factorlens/internal/clientdata"
	"github.com/aristath/factorlens/internal/database"
	testingpkg "github.com/aristath/factorlens/internal/testing"
)

type countingJob struct {
	name string
	runs int
	err  error
}

func (j *countingJob) Run() error {
	j.runs++
	return j.err
}

func (j *countingJob) Name() string { return j.name }

func TestScheduler_AddJob(t *testing.T) {
	s := New(zerolog.Nop())

	require.NoError(t, s.AddJob("@every 1h", &countingJob{name: "a"}))
	require.NoError(t, s.AddJob("0 30 3 * * *", &countingJob{name: "b"}))
	assert.Error(t, s.AddJob("not a schedule", &countingJob{name: "c"}))
	assert.Equal(t, 2, s.Entries())

	s.Start()
	s.Stop()
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "a", err: errors.New("boom")}

	assert.EqualError(t, s.RunNow(job), "boom")
	assert.Equal(t, 1, job.runs)
}

func TestFactorWarmupJob(t *testing.T) {
	provider := testingpkg.NewMockFactorProvider(testingpkg.NewFactorSet(10, true))
	job := NewFactorWarmupJob(provider, zerolog.Nop())

	assert.Equal(t, "factor_warmup", job.Name())
	require.NoError(t, job.Run())
	assert.Equal(t, 1, provider.Calls())

	provider.SetError(errors.New("offline"))
	assert.ErrorContains(t, job.Run(), "offline")
}

type stubSectors struct {
	n   int
	err error
}

func (s stubSectors) Refresh(ctx context.Context) (int, error) { return s.n, s.err }

func TestSectorRefreshJob(t *testing.T) {
	assert.NoError(t, NewSectorRefreshJob(stubSectors{n: 503}, zerolog.Nop()).Run())
	assert.Error(t, NewSectorRefreshJob(stubSectors{err: errors.New("no seed")}, zerolog.Nop()).Run())
}

type stubPruner struct {
	cutoff time.Time
}

func (s *stubPruner) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return 2, nil
}

func TestRunRetentionJob(t *testing.T) {
	pruner := &stubPruner{}
	job := NewRunRetentionJob(pruner, 30*24*time.Hour, zerolog.Nop())
	job.now = func() time.Time { return time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, job.Run())
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), pruner.cutoff)

	disabled := &stubPruner{}
	require.NoError(t, NewRunRetentionJob(disabled, 0, zerolog.Nop()).Run())
	assert.True(t, disabled.cutoff.IsZero())
}

func TestClientDataCleanupJob_Schedules(t *testing.T) {
	repo := clientdata.NewRepository(testingpkg.NewTestDB(t, database.NameCache).Conn())
	require.NoError(t, repo.Store(context.Background(), clientdata.TablePriceHistory, "VOO", []int{1}, -time.Hour))

	s := New(zerolog.Nop())
	job := clientdata.NewCleanupJob(repo, zerolog.Nop())
	require.NoError(t, s.AddJob("0 0 4 * * *", job))
	require.NoError(t, s.RunNow(job))

	data, err := repo.Get(context.Background(), clientdata.TablePriceHistory, "VOO")
	require.NoError(t, err)
	assert.Nil(t, data)
}
