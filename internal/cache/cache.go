package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fitsync-schedule/internal/interval"
)

// FreeIntervalsCache memoizes availability queries keyed by trainer and
// window. Reads on the display path may serve slightly stale results; commit
// paths must bypass the cache entirely and consult the authoritative store.
type FreeIntervalsCache interface {
	Get(ctx context.Context, trainerID string, window interval.Interval) ([]interval.Interval, bool)
	Set(ctx context.Context, trainerID string, window interval.Interval, free []interval.Interval)
	Invalidate(ctx context.Context, trainerID string)
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(redisAddr string, ttl time.Duration) (*RedisCache, error) {
	const op = "cache.NewRedisCache"

	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

func key(trainerID string, window interval.Interval) string {
	return fmt.Sprintf("free:%s:%d:%d", trainerID, window.Start.Unix(), window.End.Unix())
}

func (c *RedisCache) Get(ctx context.Context, trainerID string, window interval.Interval) ([]interval.Interval, bool) {
	data, err := c.client.Get(ctx, key(trainerID, window)).Bytes()
	if err != nil {
		return nil, false
	}

	var free []interval.Interval
	if err := json.Unmarshal(data, &free); err != nil {
		return nil, false
	}

	return free, true
}

func (c *RedisCache) Set(ctx context.Context, trainerID string, window interval.Interval, free []interval.Interval) {
	data, err := json.Marshal(free)
	if err != nil {
		return
	}

	_ = c.client.Set(ctx, key(trainerID, window), data, c.ttl).Err()
}

// Invalidate drops every cached window for the trainer. Called after any
// committed mutation of the trainer's calendar.
func (c *RedisCache) Invalidate(ctx context.Context, trainerID string) {
	pattern := fmt.Sprintf("free:%s:*", trainerID)

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		_ = c.client.Del(ctx, iter.Val()).Err()
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// NopCache disables caching; every read goes to the store.
type NopCache struct{}

func (NopCache) Get(context.Context, string, interval.Interval) ([]interval.Interval, bool) {
	return nil, false
}
func (NopCache) Set(context.Context, string, interval.Interval, []interval.Interval) {}
func (NopCache) Invalidate(context.Context, string)                                  {}
