package imagery

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultCacheTTL is how long a resolved image URL is reused.
const DefaultCacheTTL = 5 * time.Minute

// MemoryCache is an in-process TTL cache.
type MemoryCache struct {
	items *gocache.Cache
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates an in-process cache whose entries expire after ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{items: gocache.New(ttl, 2*ttl)}
}

// Get returns a cached URL.
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	v, ok := c.items.Get(key)
	if !ok {
		return "", false
	}
	url, ok := v.(string)
	return url, ok
}

// Set stores a URL with the default expiration.
func (c *MemoryCache) Set(_ context.Context, key, url string) {
	c.items.Set(key, url, gocache.DefaultExpiration)
}

// Len returns the number of unexpired entries.
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}

// RedisCache shares resolved URLs between processes.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache creates a Redis-backed cache. Keys are namespaced with prefix.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration, logger zerolog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if prefix == "" {
		prefix = "imagery:"
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

// Get returns a cached URL. Redis errors count as misses.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	url, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("redis image cache read failed")
		}
		return "", false
	}
	return url, true
}

// Set stores a URL. Failures are logged and otherwise ignored.
func (c *RedisCache) Set(ctx context.Context, key, url string) {
	if err := c.client.Set(ctx, c.prefix+key, url, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis image cache write failed")
	}
}

// TieredCache reads from the first tier that has a key and writes to all
// tiers. Hits in a lower tier are copied into the tiers above it.
type TieredCache struct {
	tiers []Cache
}

var _ Cache = (*TieredCache)(nil)

// NewTieredCache creates a cache over tiers, fastest first.
func NewTieredCache(tiers ...Cache) *TieredCache {
	return &TieredCache{tiers: tiers}
}

// Get returns the first hit.
func (c *TieredCache) Get(ctx context.Context, key string) (string, bool) {
	for i, tier := range c.tiers {
		if url, ok := tier.Get(ctx, key); ok {
			for _, upper := range c.tiers[:i] {
				upper.Set(ctx, key, url)
			}
			return url, true
		}
	}
	return "", false
}

// Set writes to every tier.
func (c *TieredCache) Set(ctx context.Context, key, url string) {
	for _, tier := range c.tiers {
		tier.Set(ctx, key, url)
	}
}
