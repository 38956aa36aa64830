// In file: internal/cache/memory.go
package cache

import (
	"context"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/joshinii/ai-governance/internal/prompt"
)

// Memory is a bounded in-process cache that evicts the least recently used
// entry once capacity is reached.
type Memory struct {
	entries  *lru.Cache[string, []prompt.Variant]
	capacity int

	hits   atomic.Int64
	misses atomic.Int64
}

var _ Cache = (*Memory)(nil)

// NewMemory creates an LRU cache. Non-positive capacity uses DefaultCapacity.
func NewMemory(capacity int) (*Memory, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	entries, err := lru.New[string, []prompt.Variant](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &Memory{entries: entries, capacity: capacity}, nil
}

// Get returns a copy of the cached variants.
func (m *Memory) Get(_ context.Context, key string) ([]prompt.Variant, bool) {
	v, ok := m.entries.Get(key)
	if !ok {
		m.misses.Add(1)
		return nil, false
	}
	m.hits.Add(1)
	return cloneVariants(v), true
}

// Set stores a copy of variants under key. Last write wins.
func (m *Memory) Set(_ context.Context, key string, variants []prompt.Variant) {
	m.entries.Add(key, cloneVariants(variants))
}

func (m *Memory) Len(_ context.Context) int {
	return m.entries.Len()
}

func (m *Memory) Stats(ctx context.Context) Stats {
	return Stats{
		Enabled: true,
		Size:    m.Len(ctx),
		Type:    TypeMemory,
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
	}
}

// Capacity reports the configured entry limit.
func (m *Memory) Capacity() int { return m.capacity }
