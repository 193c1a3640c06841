package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const versionKey = "schedule:ver"

// ScheduleCache stores rendered calendar layouts in Redis. Invalidation is
// by version counter: every schedule write bumps the counter, and layout
// keys embed the version they were computed against, so stale entries are
// simply never read again and age out via TTL.
type ScheduleCache struct {
	rdb *redis.Client
}

func New(redisURL string) (*ScheduleCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &ScheduleCache{rdb: rdb}, nil
}

// NewWithClient wraps an existing client. Used by tests.
func NewWithClient(rdb *redis.Client) *ScheduleCache {
	return &ScheduleCache{rdb: rdb}
}

func (c *ScheduleCache) Version(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *ScheduleCache) Bump(ctx context.Context) error {
	return c.rdb.Incr(ctx, versionKey).Err()
}

func (c *ScheduleCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (c *ScheduleCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, val, ttl).Err()
}

func (c *ScheduleCache) Close() error {
	return c.rdb.Close()
}
