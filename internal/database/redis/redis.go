package redis

import (
	"context"
	"fmt"

	"docqa/internal/config"

	"github.com/go-redis/redis/v8"
)

// New creates a Redis client and verifies connectivity with a ping.
func New(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cannot connect to Redis: %w", err)
	}

	return rdb, nil
}

// HealthCheck pings Redis to verify connectivity.
func HealthCheck(ctx context.Context, rdb *redis.Client) error {
	if rdb == nil {
		return fmt.Errorf("Redis client is not initialized")
	}
	return rdb.Ping(ctx).Err()
}
