// In file: internal/version/version.go

// Package version tracks the logic versions that shape generated variants.
//
// Every shared cache key embeds these strings. Bumping Templates after editing
// an industry template, or Scoring after changing a rule weight, makes every
// old entry unreachable, so a Redis cache shared across deploys never serves
// variants built by retired logic.
package version

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComponentVersions holds the version strings for the variant pipeline.
// Increment the matching field before deploying a change to that component.
var ComponentVersions = struct {
	// Detector covers the regex signal and industry tables.
	Detector string

	// Scoring covers both scoring policies and their weights.
	Scoring string

	// Templates covers the industry templates, suffixes and the long-prompt
	// rewriting.
	Templates string

	// RemotePrompt covers the instruction sent to remote LLM backends.
	RemotePrompt string
}{
	Detector:     "v1.0",
	Scoring:      "v1.0",
	Templates:    "v1.0",
	RemotePrompt: "v1.0",
}

// Tag renders the current component versions as a compact key segment.
func Tag() string {
	return fmt.Sprintf("dv%s_sv%s_tv%s_rv%s",
		ComponentVersions.Detector,
		ComponentVersions.Scoring,
		ComponentVersions.Templates,
		ComponentVersions.RemotePrompt,
	)
}

// GenerateVersionedCacheKey combines a prefix, a namespace and a hash of the
// normalized text with the current component versions.
//
// Example output: "variants:code:a1b2c3d4...:dv1.0_sv1.0_tv1.0_rv1.0"
func GenerateVersionedCacheKey(prefix, namespace, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:%s:%s:%s", prefix, namespace, hex.EncodeToString(sum[:]), Tag())
}
