package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, name string, profile DatabaseProfile) *DB {
	t.Helper()
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: profile,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_CreatesDirectoryAndDefaultsProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "runs.db")

	db, err := New(Config{Path: path, Name: NameRuns})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, path, db.Path())
	assert.Equal(t, ProfileStandard, db.Profile())
	assert.Equal(t, NameRuns, db.Name())
	assert.NoError(t, db.QuickCheck(context.Background()))
}

func TestMigrate_CacheSchema(t *testing.T) {
	db := newTestDB(t, NameCache, ProfileCache)

	require.NoError(t, db.Migrate())
	// Second run is a no-op.
	require.NoError(t, db.Migrate())

	for _, table := range []string{"price_history", "factor_data", "factor_loadings", "factor_catalog", "classifications", "sector_snapshot"} {
		var name string
		err := db.Conn().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestMigrate_RunsSchema(t *testing.T) {
	db := newTestDB(t, NameRuns, ProfileStandard)
	require.NoError(t, db.Migrate())

	_, err := db.Conn().Exec(
		"INSERT INTO analysis_runs (id, created_at, tickers, factor_window, snapshot) VALUES (?, ?, ?, ?, ?)",
		"run-1", 1700000000, "VOO,VXUS", 252, []byte{0x80},
	)
	assert.NoError(t, err)
}

func TestMigrate_UnknownNameIsNoop(t *testing.T) {
	db := newTestDB(t, "scratch", ProfileStandard)
	assert.NoError(t, db.Migrate())
}

func TestSchema(t *testing.T) {
	schema, err := Schema(NameRuns)
	require.NoError(t, err)
	assert.Contains(t, schema, "analysis_runs")

	_, err = Schema("missing")
	assert.Error(t, err)
}

func TestWithTransaction(t *testing.T) {
	db := newTestDB(t, "tx", ProfileStandard)
	_, err := db.Conn().Exec("CREATE TABLE items (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	count := func() int {
		var n int
		require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM items").Scan(&n))
		return n
	}

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO items (id) VALUES (1)")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count())

	boom := errors.New("boom")
	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, _ = tx.Exec("INSERT INTO items (id) VALUES (2)")
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, count())

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, _ = tx.Exec("INSERT INTO items (id) VALUES (3)")
		panic("unexpected")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, count())

	assert.Error(t, WithTransaction(nil, func(*sql.Tx) error { return nil }))
}

func TestGetStatsAndCheckpoint(t *testing.T) {
	db := newTestDB(t, NameCache, ProfileCache)
	require.NoError(t, db.Migrate())

	require.NoError(t, db.WALCheckpoint(""))

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageCount, int64(0))
	assert.Greater(t, stats.PageSize, int64(0))
}
