package redis

import (
	"context"
	"errors"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Cache.Get when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// Client is the subset of the go-redis API the cache relies on.
type Client interface {
	Get(ctx context.Context, key string) *redisv9.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redisv9.StatusCmd
}

// NewClient connects to the Redis server at addr. Connections are opened lazily.
func NewClient(addr string) *redisv9.Client {
	return redisv9.NewClient(&redisv9.Options{
		Addr: addr,
	})
}

// Cache stores raw byte payloads with a fixed time-to-live.
type Cache struct {
	client Client
	ttl    time.Duration
}

func NewCache(client Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// TTL reports the expiration applied to every write.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	return c.client.Set(ctx, key, value, c.ttl).Err()
}
