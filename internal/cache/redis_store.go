package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/aristath/factorlens/internal/clientdata"
)

// StaleRetention is how long Redis keeps an entry past its expiry so it can
// still serve as a stale fallback.
const StaleRetention = 7 * 24 * time.Hour

// KeyPrefix namespaces every key this service writes.
const KeyPrefix = "factorlens"

// envelope carries the logical expiry next to the payload; Redis' own TTL
// is longer so stale reads remain possible.
type envelope struct {
	ExpiresAt int64           `json:"expires_at"`
	Data      json.RawMessage `json:"data"`
}

// RedisStore implements clientdata.Store on Redis.
type RedisStore struct {
	client *redis.Client
	log    zerolog.Logger
	now    func() time.Time
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, log zerolog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		log:    log.With().Str("component", "redis_cache").Logger(),
		now:    time.Now,
	}
}

// DialRedis connects and pings the server.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// Key returns the Redis key of a cache entry.
func Key(table, key string) string {
	return KeyPrefix + ":" + table + ":" + key
}

// Store saves the entry with a logical expiry of now + ttl.
func (s *RedisStore) Store(ctx context.Context, table, key string, data interface{}, ttl time.Duration) error {
	if err := clientdata.ValidateTable(table); err != nil {
		return err
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	payload, err := json.Marshal(envelope{ExpiresAt: s.now().Add(ttl).Unix(), Data: raw})
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	if err := s.client.Set(ctx, Key(table, key), string(payload), ttl+StaleRetention).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// GetIfFresh returns nil, nil for missing or logically expired entries.
func (s *RedisStore) GetIfFresh(ctx context.Context, table, key string) (json.RawMessage, error) {
	env, err := s.load(ctx, table, key)
	if err != nil || env == nil {
		return nil, err
	}
	if env.ExpiresAt <= s.now().Unix() {
		return nil, nil
	}
	return env.Data, nil
}

// Get returns the entry regardless of logical expiry.
func (s *RedisStore) Get(ctx context.Context, table, key string) (json.RawMessage, error) {
	env, err := s.load(ctx, table, key)
	if err != nil || env == nil {
		return nil, err
	}
	return env.Data, nil
}

func (s *RedisStore) load(ctx context.Context, table, key string) (*envelope, error) {
	if err := clientdata.ValidateTable(table); err != nil {
		return nil, err
	}

	val, err := s.client.Get(ctx, Key(table, key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var env envelope
	if err := json.Unmarshal([]byte(val), &env); err != nil {
		s.log.Warn().Err(err).Str("key", Key(table, key)).Msg("Discarding unreadable cache entry")
		return nil, nil
	}
	return &env, nil
}

// DeleteAllExpired is a no-op: Redis evicts entries on its own once
// StaleRetention has passed.
func (s *RedisStore) DeleteAllExpired(ctx context.Context) (map[string]int64, error) {
	results := make(map[string]int64, len(clientdata.AllTables))
	for _, table := range clientdata.AllTables {
		results[table] = 0
	}
	return results, nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
