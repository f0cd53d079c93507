package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dhnam/shoplite/internal/core/domain"
	"github.com/dhnam/shoplite/internal/port"
)

const productKeyPrefix = "product:"

type RedisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProductCache(client *redis.Client, ttl time.Duration) *RedisProductCache {
	return &RedisProductCache{client: client, ttl: ttl}
}

func (c *RedisProductCache) Get(ctx context.Context, productID string) (domain.Product, error) {
	data, err := c.client.Get(ctx, productKeyPrefix+productID).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Product{}, port.ErrCacheMiss
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("redis get: %w", err)
	}

	var p domain.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Product{}, fmt.Errorf("unmarshal product: %w", err)
	}
	return p, nil
}

func (c *RedisProductCache) Set(ctx context.Context, p domain.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	// Jitter spreads expiry so entries written together do not fall out together.
	ttl := c.ttl + time.Duration(rand.Intn(30))*time.Second
	if err := c.client.Set(ctx, productKeyPrefix+p.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisProductCache) Invalidate(ctx context.Context, productID string) error {
	if err := c.client.Del(ctx, productKeyPrefix+productID).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
