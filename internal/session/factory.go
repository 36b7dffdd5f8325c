package session

import (
	"context"
	"fmt"
	"time"
)

type StoreType string

const (
	StoreTypeMemory   StoreType = "memory"
	StoreTypeRedis    StoreType = "redis"
	StoreTypePostgres StoreType = "postgres"
	StoreTypeSQLite   StoreType = "sqlite"
)

const DefaultTTL = 30 * 24 * time.Hour

// NewStore creates a Store of the given type. Redis requires WithRedisClient,
// postgres WithPostgresPool and sqlite WithSQLitePath.
func NewStore(ctx context.Context, storeType StoreType, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.ttl <= 0 {
		cfg.ttl = DefaultTTL
	}

	switch storeType {
	case StoreTypeMemory:
		return NewMemoryStore(cfg.now), nil

	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return NewRedisStore(cfg.redisClient, cfg.ttl), nil

	case StoreTypePostgres:
		if cfg.postgresPool == nil {
			return nil, ErrInvalidConfig
		}
		store := NewPostgresStore(cfg.postgresPool, cfg.now)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("postgres session schema: %w", err)
		}
		return store, nil

	case StoreTypeSQLite:
		if cfg.sqlitePath == "" {
			return nil, ErrInvalidConfig
		}
		store, err := OpenSQLiteStore(ctx, cfg.sqlitePath, cfg.now)
		if err != nil {
			return nil, fmt.Errorf("open sqlite session store: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidStoreType, storeType)
	}
}
