package scheduler

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aristath/factorlens/internal/database"
	testingpkg "github.com/aristath/factorlens/internal/testing"
)

func TestCheckWALCheckpointsJob_Name(t *testing.T) {
	job := NewCheckWALCheckpointsJob(nil)
	assert.Equal(t, "check_wal_checkpoints", job.Name())
}

func TestCheckWALCheckpointsJob_Run_NoDatabases(t *testing.T) {
	job := NewCheckWALCheckpointsJob(map[string]*database.DB{"cache": nil})
	job.SetLogger(zerolog.Nop())

	err := job.Run()
	assert.NoError(t, err) // Should handle nil databases gracefully
}

func TestCheckWALCheckpointsJob_Run(t *testing.T) {
	job := NewCheckWALCheckpointsJob(map[string]*database.DB{
		"cache": testingpkg.NewTestDB(t, database.NameCache),
		"runs":  testingpkg.NewTestDB(t, database.NameRuns),
	})
	assert.NoError(t, job.Run())
}
