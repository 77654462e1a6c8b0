package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/SharedMindsApp/accesskit/pkg/entity"
)

const redisKeyPrefix = "accesskit:perm"

// RedisCache stores resolutions in Redis so multiple engine instances
// share one coherent cache. Keys embed the project ID ahead of the user
// and entity segments, which makes project-coarse purges a single pattern
// scan.
//
// Cache failures degrade to misses: a Redis outage slows resolution down
// but never changes its outcome, and it never fails open.
type RedisCache struct {
	client *redis.Client
	log    *slog.Logger
}

// RedisCacheOption configures a RedisCache.
type RedisCacheOption func(*RedisCache)

// WithRedisCacheLogger sets the logger for degraded-mode cache errors.
func WithRedisCacheLogger(log *slog.Logger) RedisCacheOption {
	return func(c *RedisCache) {
		if log != nil {
			c.log = log
		}
	}
}

// NewRedisCache creates a resolution cache on top of a connected client.
func NewRedisCache(client *redis.Client, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{client: client, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func redisKey(key Key) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s",
		redisKeyPrefix, key.ProjectID, key.UserID, key.Entity.Type, key.Entity.ID)
}

// Get retrieves a cached resolution.
func (c *RedisCache) Get(ctx context.Context, key Key) (Resolution, bool) {
	raw, err := c.client.Get(ctx, redisKey(key)).Bytes()
	if err == redis.Nil {
		return Resolution{}, false
	}
	if err != nil {
		c.log.WarnContext(ctx, "resolution cache read failed", "error", err)
		return Resolution{}, false
	}

	var res Resolution
	if err := json.Unmarshal(raw, &res); err != nil {
		c.log.WarnContext(ctx, "resolution cache entry corrupt", "error", err)
		_ = c.client.Del(ctx, redisKey(key)).Err()
		return Resolution{}, false
	}
	return res, true
}

// Set stores a resolution with the given TTL.
func (c *RedisCache) Set(ctx context.Context, key Key, res Resolution, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		c.log.WarnContext(ctx, "resolution cache encode failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, redisKey(key), raw, ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "resolution cache write failed", "error", err)
	}
}

// DeleteEntity removes every user's entry for one entity.
func (c *RedisCache) DeleteEntity(ctx context.Context, ref entity.Ref) {
	c.deletePattern(ctx, fmt.Sprintf("%s:*:*:%s:%s", redisKeyPrefix, ref.Type, ref.ID))
}

// DeleteProject removes every entry under one project.
func (c *RedisCache) DeleteProject(ctx context.Context, projectID uuid.UUID) {
	c.deletePattern(ctx, fmt.Sprintf("%s:%s:*", redisKeyPrefix, projectID))
}

// DeleteAll purges the cache.
func (c *RedisCache) DeleteAll(ctx context.Context) {
	c.deletePattern(ctx, redisKeyPrefix+":*")
}

func (c *RedisCache) deletePattern(ctx context.Context, pattern string) {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.log.WarnContext(ctx, "resolution cache purge failed",
				"key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		c.log.WarnContext(ctx, "resolution cache scan failed",
			"pattern", pattern, "error", err)
	}
}

// Close is a no-op; the caller owns the client's lifecycle.
func (c *RedisCache) Close() error {
	return nil
}
