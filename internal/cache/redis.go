package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache backed by a shared Redis instance, letting
// multiple pipeline replicas reuse each other's embeddings.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis using a URI like redis://host:6379/0
func NewRedisCache(uri string, defaultTTL time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(uri)
	if err != nil {
		return nil, err
	}
	return &RedisCache{
		client: redis.NewClient(opt),
		ttl:    defaultTTL,
	}, nil
}

// Get retrieves a value from Redis
func (c *RedisCache) Get(key string) ([]byte, bool) {
	val, err := c.client.Get(context.Background(), key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

// Set stores a value in Redis with the given TTL
func (c *RedisCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	return c.client.Set(context.Background(), key, value, ttl).Err()
}

// Delete removes a value from Redis
func (c *RedisCache) Delete(key string) error {
	return c.client.Del(context.Background(), key).Err()
}

// Clear is a no-op for the shared Redis backend: flushing a shared instance
// would evict other tenants' keys.
func (c *RedisCache) Clear() error {
	return nil
}

// Close releases the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
