package redis

import (
	"context"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/spotsync/backend/domain"
	"github.com/spotsync/backend/repository"
)

type queryCache struct {
	client *redislib.Client
}

// NewQueryCache creates a Redis-backed query result cache.
func NewQueryCache(client *redislib.Client) repository.QueryCache {
	return &queryCache{client: client}
}

func (c *queryCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redislib.Nil {
			return nil, domain.ErrCacheMiss
		}
		return nil, err
	}
	return value, nil
}

func (c *queryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *queryCache) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	var deleted int
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, err
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	return deleted, nil
}
