package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateVersionedCacheKey(t *testing.T) {
	key := GenerateVersionedCacheKey("variants", "code", "write code")
	parts := strings.Split(key, ":")
	assert.Len(t, parts, 4)
	assert.Equal(t, "variants", parts[0])
	assert.Equal(t, "code", parts[1])
	assert.Len(t, parts[2], 64)
	assert.Equal(t, Tag(), parts[3])

	assert.Equal(t, key, GenerateVersionedCacheKey("variants", "code", "write code"))
	assert.NotEqual(t, key, GenerateVersionedCacheKey("variants", "data", "write code"))
}

func TestVersionBumpChangesKey(t *testing.T) {
	before := GenerateVersionedCacheKey("variants", "general", "hello world")

	saved := ComponentVersions.Templates
	ComponentVersions.Templates = "v9.9"
	t.Cleanup(func() { ComponentVersions.Templates = saved })

	assert.NotEqual(t, before, GenerateVersionedCacheKey("variants", "general", "hello world"))
	assert.Contains(t, Tag(), "tvv9.9")
}
