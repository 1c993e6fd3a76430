package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FilterCache fronts the filtered-candidate-id set for a (tenant,
// filter-hash) pair. A cache miss, a disabled cache, or any transport
// error all mean the same thing to the caller: recompute live. Nothing
// in the query path treats the cache as a hard dependency.
type FilterCache interface {
	Get(ctx context.Context, tenantID, filterHash string) ([]string, bool)
	Set(ctx context.Context, tenantID, filterHash string, candidateIDs []string)
}

// RedisFilterCache is the Component F cache backed by go-redis. It never
// returns an error to the caller: Get reports a miss on any Redis
// failure, and Set logs nothing and simply drops the write on failure,
// since the filtered set is always cheap to recompute.
type RedisFilterCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisFilterCache wires a go-redis client into the Query Engine's
// cache. Pass a nil client (or never call Engine.WithCache) to run without
// a cache; every call site treats absence the same as a miss.
func NewRedisFilterCache(client *redis.Client, ttl time.Duration) *RedisFilterCache {
	return &RedisFilterCache{client: client, ttl: ttl}
}

func (c *RedisFilterCache) Get(ctx context.Context, tenantID, filterHash string) ([]string, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, cacheKey(tenantID, filterHash)).Result()
	if err != nil {
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func (c *RedisFilterCache) Set(ctx context.Context, tenantID, filterHash string, candidateIDs []string) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(candidateIDs)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, cacheKey(tenantID, filterHash), raw, c.ttl).Err()
}

func cacheKey(tenantID, filterHash string) string {
	return fmt.Sprintf("talentgraph:query:%s:%s", tenantID, filterHash)
}

// noopFilterCache is the always-miss cache used when no Redis client is
// configured, so Engine never has to nil-check its cache field.
type noopFilterCache struct{}

func (noopFilterCache) Get(ctx context.Context, tenantID, filterHash string) ([]string, bool) {
	return nil, false
}

func (noopFilterCache) Set(ctx context.Context, tenantID, filterHash string, candidateIDs []string) {
}

// hashFilters derives a stable cache key component from a Filters value.
// It never errors: json.Marshal can only fail on unsupported types, and
// Filters contains none.
func hashFilters(f Filters) string {
	raw, _ := json.Marshal(f)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
