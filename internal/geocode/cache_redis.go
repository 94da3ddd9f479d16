package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores places as JSON strings with a per-key expiry.
type RedisCache struct {
	client redis.UniversalClient
}

func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Place, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var place Place
	if err := json.Unmarshal(raw, &place); err != nil {
		return nil, false, fmt.Errorf("decode cached place: %w", err)
	}
	if place.Address == nil {
		place.Address = Address{}
	}
	return &place, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, place *Place, ttl time.Duration) error {
	raw, err := json.Marshal(place)
	if err != nil {
		return fmt.Errorf("encode place: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
