// In file: internal/memory/memory.go

// Package memory provides per-user context from a knowledge-graph memory
// service. Lookups are best effort: callers treat errors as empty context.
package memory

import (
	"context"
	"fmt"
	"strings"
)

// Provider names a context provider in config.
type Provider string

const (
	ProviderNone        Provider = "none"
	ProviderSupermemory Provider = "supermemory"
)

// None is the context provider used when no memory service is configured.
type None struct{}

// Search always returns no snippets.
func (None) Search(context.Context, string, string) ([]string, error) { return nil, nil }

// Add discards the document.
func (None) Add(context.Context, string, string, map[string]any) error { return nil }

// ParseProvider validates a provider name from config. Empty means none.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case "", ProviderNone:
		return ProviderNone, nil
	case ProviderSupermemory:
		return p, nil
	default:
		return "", fmt.Errorf("unknown context provider %q", s)
	}
}

// ContainerTag maps a user id onto the characters the memory service accepts
// for container tags: ASCII letters, digits, '-' and '_'.
func ContainerTag(userID string) string {
	s := strings.ReplaceAll(userID, "@", "_at_")
	s = strings.ReplaceAll(s, ".", "_dot_")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
