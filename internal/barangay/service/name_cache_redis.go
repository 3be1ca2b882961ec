package service

import (
	"context"
	"log/slog"
	"time"

	platformredis "baranex/internal/platform/redis"
	id "baranex/pkg/domain"
)

const nameCachePrefix = "barangay:name:"

// RedisNameCache is the Redis-backed display-name cache. All failures are
// logged and treated as misses; the directory store stays authoritative.
type RedisNameCache struct {
	client *platformredis.Client
	logger *slog.Logger
}

func NewRedisNameCache(client *platformredis.Client, logger *slog.Logger) *RedisNameCache {
	return &RedisNameCache{client: client, logger: logger}
}

func (c *RedisNameCache) Get(ctx context.Context, barangayID id.BarangayID) (string, bool) {
	name, err := c.client.Get(ctx, nameCachePrefix+barangayID.String()).Result()
	if err != nil {
		return "", false
	}
	return name, true
}

func (c *RedisNameCache) Set(ctx context.Context, barangayID id.BarangayID, name string, ttl time.Duration) {
	if err := c.client.Set(ctx, nameCachePrefix+barangayID.String(), name, ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "barangay name cache write failed",
			"barangay_id", barangayID.String(),
			"error", err,
		)
	}
}
