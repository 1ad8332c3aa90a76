package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is the KV backend used when REDIS_URL is configured.
type Redis struct {
	rdb *redis.Client
}

// NewRedis parses the URL, connects, and verifies the connection with a ping.
// Callers fall back to the memory backend when this fails.
func NewRedis(ctx context.Context, rawURL string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{rdb: rdb}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, key, value, 0).Err()
}

func (r *Redis) HSet(ctx context.Context, name, key, value string) error {
	return r.rdb.HSet(ctx, name, key, value).Err()
}

func (r *Redis) HGetAll(ctx context.Context, name string) (map[string]string, error) {
	return r.rdb.HGetAll(ctx, name).Result()
}

func (r *Redis) Reset(ctx context.Context) error {
	return r.rdb.FlushDB(ctx).Err()
}

func (r *Redis) Close() error { return r.rdb.Close() }
