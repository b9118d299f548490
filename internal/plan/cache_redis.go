package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPolicyCache stores resolved policies as JSON under
// plan:limits:{userId} with the bounded-staleness TTL.
type RedisPolicyCache struct {
	client redis.UniversalClient
}

// NewRedisCache constructs a Redis-backed policy cache.
func NewRedisCache(client redis.UniversalClient) (*RedisPolicyCache, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &RedisPolicyCache{client: client}, nil
}

func cacheKey(userID string) string {
	return "plan:limits:" + userID
}

// Get returns the cached policy for a user, or nil on a miss.
func (c *RedisPolicyCache) Get(ctx context.Context, userID string) (*QuotaPolicy, error) {
	raw, err := c.client.Get(ctx, cacheKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("policy cache get: %w", err)
	}

	var policy QuotaPolicy
	if err := json.Unmarshal([]byte(raw), &policy); err != nil {
		// A corrupt entry behaves like a miss; the resolver will overwrite it.
		return nil, fmt.Errorf("policy cache decode: %w", err)
	}
	return &policy, nil
}

// Set writes the resolved policy with the staleness-bounding TTL.
func (c *RedisPolicyCache) Set(ctx context.Context, userID string, policy QuotaPolicy) error {
	raw, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("policy cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(userID), raw, CacheTTL).Err(); err != nil {
		return fmt.Errorf("policy cache set: %w", err)
	}
	return nil
}
