package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"lovelink/pkg/cache"
)

// RedisHistory keeps a profile's latest turns in a capped Redis list, newest first
type RedisHistory struct {
	cache *cache.Cache
	key   string
	max   int64
}

// NewRedisHistory stores the turns of profileID under the cache's prefix
func NewRedisHistory(c *cache.Cache, profileID string, max int) *RedisHistory {
	if max <= 0 {
		max = 100
	}
	return &RedisHistory{
		cache: c,
		key:   c.Key("turns", profileID),
		max:   int64(max),
	}
}

func (h *RedisHistory) Append(ctx context.Context, t Turn) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}
	if err := h.cache.PushCapped(ctx, h.key, string(data), h.max, cache.TurnsTTL); err != nil {
		return fmt.Errorf("failed to store turn: %w", err)
	}
	return nil
}

func (h *RedisHistory) Recent(ctx context.Context, n int) ([]Turn, error) {
	items, err := h.cache.Newest(ctx, h.key, int64(n))
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	turns := make([]Turn, 0, len(items))
	// The list is newest first
	for i := len(items) - 1; i >= 0; i-- {
		var t Turn
		if err := json.Unmarshal([]byte(items[i]), &t); err != nil {
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Clear drops the stored history
func (h *RedisHistory) Clear(ctx context.Context) error {
	return h.cache.Delete(ctx, h.key)
}
