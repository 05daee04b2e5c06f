package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learnquest/internal/config"

	"github.com/redis/go-redis/v9"
)

// ErrRedisNotConfigured is returned when no Redis address is set. Callers fall
// back to the in-process cache.
var ErrRedisNotConfigured = errors.New("redis address is not configured")

// NewRedisClient creates and returns a new Redis client instance.
// It pings the server to ensure connectivity.
func NewRedisClient(redisCfg config.RedisConfig) (*redis.Client, error) {
	if redisCfg.Address == "" {
		return nil, ErrRedisNotConfigured
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Address,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", redisCfg.Address, err)
	}

	return client, nil
}
