package adapter

import (
	"context"
	"errors"
	"time"

	"learnquest/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisCache backs domain.Cache with a go-redis client.
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCacheAdapter wraps an already connected client.
func NewRedisCacheAdapter(client redis.UniversalClient) domain.Cache {
	return &RedisCache{client: client}
}

func missOr(err error) error {
	if errors.Is(err, redis.Nil) {
		return domain.ErrCacheMiss
	}
	return err
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", missOr(err)
	}
	return val, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

// Delete succeeds for absent keys.
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	val, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, missOr(err)
	}
	// HGETALL on a missing key yields an empty map, not redis.Nil.
	if len(val) == 0 {
		return nil, domain.ErrCacheMiss
	}
	return val, nil
}

func (r *RedisCache) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return r.client.HSet(ctx, key, fields).Err()
}

func (r *RedisCache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	if expiration <= 0 {
		return r.client.Del(ctx, key).Err()
	}
	return r.client.Expire(ctx, key, expiration).Err()
}
