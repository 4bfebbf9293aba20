package redis

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get and HGetAll when the key is absent
var ErrNotFound = errors.New("redis: key not found")

// Client is the Redis surface used for sky state
type Client interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)

	HSet(ctx context.Context, key string, fields map[string]interface{}) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// PushCapped prepends value, keeps the newest maxLen entries and refreshes
	// the TTL, all in one MULTI/EXEC
	PushCapped(ctx context.Context, key string, value interface{}, maxLen int64, ttl time.Duration) error

	Ping(ctx context.Context) error
	Close() error
}
