package cache

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/factorlens/internal/clientdata"
	"github.com/aristath/factorlens/internal/config"
	"github.com/aristath/factorlens/internal/database"
)

// Open returns the store selected by cfg.Backend. cacheDB is only used by
// the sqlite backend. The returned close function releases backend
// resources other than cacheDB.
func Open(ctx context.Context, cfg config.CacheConfig, cacheDB *database.DB, log zerolog.Logger) (clientdata.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.CacheBackendSQLite, "":
		if cacheDB == nil {
			return nil, noop, fmt.Errorf("sqlite cache backend needs the cache database")
		}
		return clientdata.NewRepository(cacheDB.Conn()), noop, nil

	case config.CacheBackendFile:
		return NewFileStore(CandidateDirs(cfg.Dir, cfg.Serverless), log), noop, nil

	case config.CacheBackendRedis:
		client, err := DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, noop, err
		}
		return NewRedisStore(client, log), client.Close, nil
	}

	return nil, noop, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}
