// In file: internal/cache/disabled.go
package cache

import (
	"context"

	"github.com/joshinii/ai-governance/internal/prompt"
)

// Disabled never stores anything. Every call recomputes its variants.
type Disabled struct{}

var _ Cache = Disabled{}

func (Disabled) Get(context.Context, string) ([]prompt.Variant, bool) { return nil, false }

func (Disabled) Set(context.Context, string, []prompt.Variant) {}

func (Disabled) Len(context.Context) int { return 0 }

func (Disabled) Stats(context.Context) Stats {
	return Stats{Enabled: false, Size: 0, Type: TypeDisabled}
}
