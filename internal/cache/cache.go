// In file: internal/cache/cache.go

// Package cache memoizes generated prompt variants. A cache is always injected
// into the engine; there is no package-level instance.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joshinii/ai-governance/internal/prompt"
	"github.com/joshinii/ai-governance/internal/version"
	"github.com/redis/go-redis/v9"
)

// Type names a cache implementation in config and stats.
type Type string

const (
	TypeMemory   Type = "memory"
	TypeRedis    Type = "redis"
	TypeDisabled Type = "disabled"
)

const (
	DefaultCapacity = 1024
	DefaultTTL      = 24 * time.Hour
	keyPrefix       = "variants"
)

// Stats is the read-only view exposed by the cache-stats endpoint.
type Stats struct {
	Enabled bool  `json:"enabled"`
	Size    int   `json:"size"`
	Type    Type  `json:"type"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Cache stores the variants computed for a key. Implementations are safe for
// concurrent use and treat backend failures as misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]prompt.Variant, bool)
	Set(ctx context.Context, key string, variants []prompt.Variant)
	Len(ctx context.Context) int
	Stats(ctx context.Context) Stats
}

// Config selects and tunes a cache implementation.
type Config struct {
	Type     Type
	Capacity int
	TTL      time.Duration
}

// New builds the cache named by cfg.Type. The Redis client is only required
// for TypeRedis.
func New(cfg Config, rdb *redis.Client) (Cache, error) {
	switch cfg.Type {
	case "", TypeMemory:
		return NewMemory(cfg.Capacity)
	case TypeRedis:
		if rdb == nil {
			return nil, fmt.Errorf("cache type %q requires a redis client", cfg.Type)
		}
		return NewRedis(rdb, cfg.TTL), nil
	case TypeDisabled:
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}

// Key derives the cache key for a prompt. Prompts that differ only in case or
// surrounding whitespace share a key. The resolved industry is part of the key
// because an explicit domain context changes the templates applied.
func Key(text string, industry prompt.Industry) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	return version.GenerateVersionedCacheKey(keyPrefix, string(industry), normalized)
}

// ShortKey returns a log-safe prefix of the key's hash segment.
func ShortKey(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) >= 3 && len(parts[2]) >= 12 {
		return parts[2][:12]
	}
	return key
}

func cloneVariants(in []prompt.Variant) []prompt.Variant {
	if in == nil {
		return nil
	}
	out := make([]prompt.Variant, len(in))
	for i, v := range in {
		out[i] = v
		out[i].Improvements = append([]string(nil), v.Improvements...)
	}
	return out
}
