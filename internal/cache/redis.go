package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/oggyb/approach/internal/config"
	"github.com/redis/go-redis/v9"
)

// PendingCountTTL bounds how long a badge count may live without a refresh.
const PendingCountTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// KeyForPendingCount generates the Redis key for a receiver's pending-request badge.
func (c *RedisCache) KeyForPendingCount(receiverID string) string {
	return fmt.Sprintf("requests:pending:count:%s", receiverID)
}

// GetPendingCount returns the cached badge count. ok is false on a miss.
// A hit refreshes the TTL since the user is active.
func (c *RedisCache) GetPendingCount(ctx context.Context, receiverID string) (count int64, ok bool, err error) {
	key := c.KeyForPendingCount(receiverID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}

	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// garbage in the slot, treat as a miss
		_ = c.Client.Del(ctx, key).Err()
		return 0, false, nil
	}
	_ = c.Client.Expire(ctx, key, PendingCountTTL).Err()
	return n, true, nil
}

func (c *RedisCache) SetPendingCount(ctx context.Context, receiverID string, count int64) error {
	return c.Client.Set(ctx, c.KeyForPendingCount(receiverID), count, PendingCountTTL).Err()
}

// InvalidatePendingCount drops the badge so the next read goes to the store.
// Deleting rather than Incr/Decr keeps the cache from drifting when a write
// and its cache update race.
func (c *RedisCache) InvalidatePendingCount(ctx context.Context, receiverID string) error {
	return c.Client.Del(ctx, c.KeyForPendingCount(receiverID)).Err()
}

func (c *RedisCache) keyForRevoked(jti string) string {
	return fmt.Sprintf("sessions:revoked:%s", jti)
}

// RevokeSession denylists a session id until its token would have expired anyway.
func (c *RedisCache) RevokeSession(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return c.Client.Set(ctx, c.keyForRevoked(jti), 1, ttl).Err()
}

func (c *RedisCache) IsSessionRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := c.Client.Exists(ctx, c.keyForRevoked(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
