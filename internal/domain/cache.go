package domain

import (
	"context"
	"time"
)

type CacheError string

func (e CacheError) Error() string { return string(e) }

// ErrCacheMiss is returned by Get and HGetAll for absent or expired keys.
const ErrCacheMiss = CacheError("cache: miss")

// Cache is the key/value port shared by the quiz result cache, the quiz
// definition cache, the leaderboard and live-session markers. A zero
// expiration keeps an entry until it is deleted.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Delete(ctx context.Context, key string) error

	// HGetAll treats an empty hash as a miss.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// HSet writes all fields in one round trip, creating the hash if needed.
	HSet(ctx context.Context, key string, fields map[string]string) error
	// Expire with a non-positive duration removes the key.
	Expire(ctx context.Context, key string, expiration time.Duration) error

	Ping(ctx context.Context) error
}
