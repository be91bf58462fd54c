package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/store"
)

// Backend is the key-value store selected by STORE_DRIVER. Redis is set
// whenever a Redis connection is open, so that the change relay can share
// it.
type Backend struct {
	KV    store.KV
	Redis *redis.Client
	close []func()
}

// Close releases every connection opened by Open, newest first.
func (b *Backend) Close() {
	for i := len(b.close) - 1; i >= 0; i-- {
		b.close[i]()
	}
}

// Open connects the storage backend named by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Backend, error) {
	b := &Backend{}

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn().Msg("Using in-memory store, data is lost on restart")
		b.KV = store.NewMemoryKV()

	case config.StoreDriverRedis:
		rdb, err := NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, err
		}
		b.Redis = rdb
		b.close = append(b.close, func() { _ = rdb.Close() })
		b.KV = store.NewRedisKV(rdb)

	case config.StoreDriverPostgres:
		pool, err := NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		b.close = append(b.close, pool.Close)
		b.KV = store.NewPostgresKV(pool)

		// Postgres instances still relay changes through Redis when it is
		// reachable.
		if rdb, err := NewRedisClient(ctx, cfg.RedisURL, log); err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, changes stay local to this instance")
		} else {
			b.Redis = rdb
			b.close = append(b.close, func() { _ = rdb.Close() })
		}

	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	log.Info().Str("driver", cfg.StoreDriver).Msg("Store opened")
	return b, nil
}
