package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// TurnsTTL is how long an idle conversation log survives
const TurnsTTL = 7 * 24 * time.Hour

const connectTimeout = 5 * time.Second

// Cache is a Redis connection whose keys all live under one prefix
type Cache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to url and checks the server answers
func NewRedisCache(url string, prefix string) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Cache{client: client, prefix: prefix}, nil
}

// Key joins parts with ':' under the cache prefix
func (c *Cache) Key(parts ...string) string {
	key := strings.Join(parts, ":")
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

// PushCapped puts value at the head of the list at key, keeps only the newest
// max entries and refreshes the expiry. The three steps run in one transaction.
func (c *Cache) PushCapped(ctx context.Context, key, value string, max int64, ttl time.Duration) error {
	if max <= 0 {
		return fmt.Errorf("list cap must be positive, got %d", max)
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, value)
		pipe.LTrim(ctx, key, 0, max-1)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	return err
}

// Newest returns up to n entries from the head of the list at key, newest first
func (c *Cache) Newest(ctx context.Context, key string, n int64) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	return c.client.LRange(ctx, key, 0, n-1).Result()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
