// In file: internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/joshinii/ai-governance/internal/prompt"
	"github.com/redis/go-redis/v9"
)

const scanBatch = 256

// Redis shares cached variants between gateway replicas. Entries expire after
// the configured TTL; keys embed component versions so a logic change never
// serves stale variants.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

var _ Cache = (*Redis)(nil)

// NewRedis wraps an existing client. Non-positive ttl uses DefaultTTL.
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]prompt.Variant, bool) {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.misses.Add(1)
		return nil, false
	} else if err != nil {
		log.Printf("Redis GET error for variant cache (key %s): %v", ShortKey(key), err)
		r.misses.Add(1)
		return nil, false
	}

	var variants []prompt.Variant
	if err := json.Unmarshal(val, &variants); err != nil {
		log.Printf("⚠️ Discarding unreadable variant cache entry %s: %v", ShortKey(key), err)
		r.misses.Add(1)
		return nil, false
	}
	r.hits.Add(1)
	return variants, true
}

func (r *Redis) Set(ctx context.Context, key string, variants []prompt.Variant) {
	payload, err := json.Marshal(variants)
	if err != nil {
		log.Printf("Failed to encode variants for cache key %s: %v", ShortKey(key), err)
		return
	}
	if err := r.rdb.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		log.Printf("Redis SET error for variant cache (key %s): %v", ShortKey(key), err)
	}
}

// Len counts live variant keys with SCAN so it never blocks the server.
func (r *Redis) Len(ctx context.Context) int {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, keyPrefix+":*", scanBatch).Result()
		if err != nil {
			log.Printf("Redis SCAN error for variant cache: %v", err)
			return total
		}
		total += len(keys)
		if next == 0 {
			return total
		}
		cursor = next
	}
}

func (r *Redis) Stats(ctx context.Context) Stats {
	return Stats{
		Enabled: true,
		Size:    r.Len(ctx),
		Type:    TypeRedis,
		Hits:    r.hits.Load(),
		Misses:  r.misses.Load(),
	}
}
