package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = errors.New("analysis run not found")

// RunRepository stores analyses in the runs database as msgpack snapshots.
type RunRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sql.DB, log zerolog.Logger) *RunRepository {
	return &RunRepository{
		db:  db,
		log: log.With().Str("repo", "analysis_runs").Logger(),
	}
}

// Save inserts or replaces a run.
func (r *RunRepository) Save(ctx context.Context, a *Analysis) error {
	snapshot, err := msgpack.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", a.ID, err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO analysis_runs (id, created_at, tickers, factor_window, snapshot)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.CreatedAt.Unix(), strings.Join(a.Tickers, ","), a.FactorWindow, snapshot,
	)
	if err != nil {
		return fmt.Errorf("failed to store run %s: %w", a.ID, err)
	}

	r.log.Debug().Str("run_id", a.ID).Int("bytes", len(snapshot)).Msg("Stored analysis run")
	return nil
}

// Get loads a run by id.
func (r *RunRepository) Get(ctx context.Context, id string) (*Analysis, error) {
	var snapshot []byte
	err := r.db.QueryRowContext(ctx, "SELECT snapshot FROM analysis_runs WHERE id = ?", id).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	var a Analysis
	if err := msgpack.Unmarshal(snapshot, &a); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", id, err)
	}
	return &a, nil
}

// List returns the most recent runs, newest first.
func (r *RunRepository) List(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, tickers, factor_window, published_at, published_prefix
		FROM analysis_runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	out := make([]RunSummary, 0)
	for rows.Next() {
		var (
			s           RunSummary
			createdAt   int64
			tickers     string
			publishedAt sql.NullInt64
			prefix      sql.NullString
		)
		if err := rows.Scan(&s.ID, &createdAt, &tickers, &s.FactorWindow, &publishedAt, &prefix); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.CreatedAt = time.Unix(createdAt, 0).UTC()
		s.Tickers = splitTickers(tickers)
		if publishedAt.Valid {
			t := time.Unix(publishedAt.Int64, 0).UTC()
			s.PublishedAt = &t
		}
		s.PublishedPrefix = prefix.String
		out = append(out, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return out, nil
}

// MarkPublished records where a run's exports were uploaded.
func (r *RunRepository) MarkPublished(ctx context.Context, id, prefix string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE analysis_runs SET published_at = ?, published_prefix = ? WHERE id = ?",
		at.Unix(), prefix, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark run %s published: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// DeleteOlderThan removes runs created before cutoff.
func (r *RunRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM analysis_runs WHERE created_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old runs: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

func splitTickers(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, ",")
}
