package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/billing-reconciler/internal/domain/provider"
)

const productKeyPrefix = "reconciler:product:"

// MemoryProductCache keeps product names for the lifetime of one run
type MemoryProductCache struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewMemoryProductCache creates an empty in-process cache
func NewMemoryProductCache() *MemoryProductCache {
	return &MemoryProductCache{names: make(map[string]string)}
}

var _ provider.ProductCache = (*MemoryProductCache)(nil)

func (c *MemoryProductCache) Get(_ context.Context, productID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.names[productID]
	return name, ok
}

func (c *MemoryProductCache) Set(_ context.Context, productID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[productID] = name
}

// RedisProductCache shares product names across runs. Redis failures degrade to a miss.
type RedisProductCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	local  *MemoryProductCache
	logger *zap.Logger
}

// NewRedisProductCache creates a Redis-backed cache fronted by a per-run memory cache
func NewRedisProductCache(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisProductCache {
	return &RedisProductCache{
		client: client,
		ttl:    ttl,
		local:  NewMemoryProductCache(),
		logger: logger,
	}
}

var _ provider.ProductCache = (*RedisProductCache)(nil)

func (c *RedisProductCache) Get(ctx context.Context, productID string) (string, bool) {
	if name, ok := c.local.Get(ctx, productID); ok {
		return name, true
	}

	name, err := c.client.Get(ctx, productKeyPrefix+productID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Product cache read failed",
				zap.String("product_id", productID),
				zap.Error(err))
		}
		return "", false
	}

	c.local.Set(ctx, productID, name)
	return name, true
}

func (c *RedisProductCache) Set(ctx context.Context, productID, name string) {
	c.local.Set(ctx, productID, name)

	if err := c.client.Set(ctx, productKeyPrefix+productID, name, c.ttl).Err(); err != nil {
		c.logger.Warn("Product cache write failed",
			zap.String("product_id", productID),
			zap.Error(err))
	}
}
