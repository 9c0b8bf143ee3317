package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("product cache miss")

type Cache interface {
	Get(ctx context.Context, id int64) (*Product, error)
	Set(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) Cache {
	return &redisCache{client: client, ttl: ttl}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func (c *redisCache) Get(ctx context.Context, id int64) (*Product, error) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache: failed to get product %d: %w", id, err)
	}

	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("cache: failed to decode product %d: %w", id, err)
	}
	return &p, nil
}

func (c *redisCache) Set(ctx context.Context, p *Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("cache: failed to encode product %d: %w", p.ID, err)
	}
	if err := c.client.Set(ctx, cacheKey(p.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: failed to set product %d: %w", p.ID, err)
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, id int64) error {
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("cache: failed to delete product %d: %w", id, err)
	}
	return nil
}

type noopCache struct{}

// NewNoopCache is used when redis is not configured; every lookup misses.
func NewNoopCache() Cache {
	return noopCache{}
}

func (noopCache) Get(context.Context, int64) (*Product, error) { return nil, ErrCacheMiss }
func (noopCache) Set(context.Context, *Product) error          { return nil }
func (noopCache) Delete(context.Context, int64) error          { return nil }
