package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores serialized catalog responses in Redis. A nil client disables
// caching, callers fall through to Postgres.
type Cache struct {
	R   *redis.Client
	TTL time.Duration
}

// GetJSON loads key into dest. Returns false on miss, cache error, or decode
// error; stale or corrupt entries are treated as misses.
func (c Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if c.R == nil {
		return false
	}
	raw, err := c.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// SetJSON writes value under key with the cache TTL. Failures are ignored.
func (c Cache) SetJSON(ctx context.Context, key string, value any) {
	if c.R == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	_ = c.R.Set(ctx, key, raw, ttl).Err()
}
