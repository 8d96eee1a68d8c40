package clientdata

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// Lookup results reported to a CacheObserver.
const (
	ResultHit   = "hit"
	ResultStale = "stale"
	ResultMiss  = "miss"
)

// CacheObserver receives one call per lookup. The metrics registry
// implements it.
type CacheObserver interface {
	ObserveCache(table, result string)
}

// Source tells the caller where a loaded value came from.
type Source int

const (
	SourceFetched Source = iota
	SourceCache
	SourceStale
)

// Loader wraps a Store with the cache-first, stale-on-failure policy shared
// by every provider client: fresh cache wins, otherwise fetch and store, and
// if the fetch fails fall back to whatever expired copy is left.
type Loader struct {
	store    Store
	observer CacheObserver
	log      zerolog.Logger
}

// NewLoader creates a Loader. store and observer may both be nil; a nil
// store disables caching.
func NewLoader(store Store, observer CacheObserver, log zerolog.Logger) *Loader {
	return &Loader{store: store, observer: observer, log: log}
}

func (l *Loader) observe(table, result string) {
	if l == nil || l.observer == nil {
		return
	}
	l.observer.ObserveCache(table, result)
}

// Load returns the cached value for (table, key) or calls fetch. The fetch
// error is returned only when no stale copy exists.
func Load[T any](ctx context.Context, l *Loader, table, key string, ttl time.Duration, fetch func(ctx context.Context) (T, error)) (T, Source, error) {
	var zero T

	if l != nil && l.store != nil {
		if raw, err := l.store.GetIfFresh(ctx, table, key); err == nil && raw != nil {
			var cached T
			if err := json.Unmarshal(raw, &cached); err == nil {
				l.observe(table, ResultHit)
				return cached, SourceCache, nil
			}
		}
	}

	value, fetchErr := fetch(ctx)
	if fetchErr == nil {
		if l != nil && l.store != nil {
			l.observe(table, ResultMiss)
			if err := l.store.Store(ctx, table, key, value, ttl); err != nil {
				l.log.Warn().Err(err).Str("table", table).Str("key", key).Msg("Failed to cache provider response")
			}
		}
		return value, SourceFetched, nil
	}

	if l != nil && l.store != nil {
		if raw, err := l.store.Get(ctx, table, key); err == nil && raw != nil {
			var stale T
			if err := json.Unmarshal(raw, &stale); err == nil {
				l.observe(table, ResultStale)
				l.log.Warn().
					Err(fetchErr).
					Str("table", table).
					Str("key", key).
					Msg("Upstream failed, using stale cached data")
				return stale, SourceStale, nil
			}
		}
		l.observe(table, ResultMiss)
	}

	return zero, SourceFetched, fetchErr
}
