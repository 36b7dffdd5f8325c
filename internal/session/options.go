package session

import (
	"time"

	"github.com/go-redis/redis/v8"
)

type storeConfig struct {
	redisClient  *redis.Client
	ttl          time.Duration
	postgresPool pgxPool
	sqlitePath   string
	now          func() time.Time
}

// StoreOption configures a store created by NewStore.
type StoreOption func(*storeConfig)

func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithTTL sets how long an untouched profile is kept.
func WithTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.ttl = ttl
	}
}

func WithPostgresPool(pool pgxPool) StoreOption {
	return func(c *storeConfig) {
		c.postgresPool = pool
	}
}

func WithSQLitePath(path string) StoreOption {
	return func(c *storeConfig) {
		c.sqlitePath = path
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(c *storeConfig) {
		c.now = now
	}
}
