package repository

import (
	"context"
	"time"
)

// QueryCache fronts the geo-query engine with TTL-bounded entries.
// Get returns domain.ErrCacheMiss when the key is absent.
type QueryCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeleteByPattern removes all keys matching the glob pattern and returns
	// how many were dropped. Operator-triggered; the write path never calls it.
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}
