package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joshinii/ai-governance/internal/cache"
	"github.com/joshinii/ai-governance/internal/memory"
	"github.com/joshinii/ai-governance/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the gateway reads so the host cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "REDIS_ADDR", "GEMINI_API_KEY", "GEMINI_MODEL", "LLM_SERVICE_URL",
		"LLM_API_KEY", "LLM_MODEL", "SUPERMEMORY_API_URL", "SUPERMEMORY_API_KEY",
		"GENERATION_BACKEND", "CONTEXT_PROVIDER", "CONFIG_FILE",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("GIN_MODE", "release")
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, defaultRedisAddr, cfg.RedisAddr)
	assert.Equal(t, BackendRuleBased, cfg.Backend)
	assert.Equal(t, prompt.PolicyAdditive, cfg.Policy)
	assert.Equal(t, memory.ProviderNone, cfg.Provider)
	assert.Equal(t, defaultHealthInterval, cfg.HealthInterval)
	assert.Zero(t, cfg.Engine.MaxPromptChars, "engine applies its own defaults")
}

func TestLoadConfig_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
limits:
  max_prompt_chars: 2000
  chunk_size: 800
scoring:
  policy: deductive
cache:
  type: Redis
  capacity: 64
  ttl: 12h
backend:
  type: openai
  model: mock-gpt
  timeout: 10s
  rate_limit: 2.5
  burst: 5
context:
  provider: supermemory
  limit: 3
history:
  max_per_user: 50
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LLM_SERVICE_URL", "http://mock-llm:8080")
	t.Setenv("SUPERMEMORY_API_URL", "https://api.supermemory.ai")
	t.Setenv("PORT", "9000")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 2000, cfg.Engine.MaxPromptChars)
	assert.Equal(t, 800, cfg.Engine.ChunkSize)
	assert.Equal(t, 10*time.Second, cfg.Engine.BackendTimeout)
	assert.Equal(t, prompt.PolicyDeductive, cfg.Policy)
	assert.Equal(t, cache.Config{Type: cache.TypeRedis, Capacity: 64, TTL: 12 * time.Hour}, cfg.Cache)
	assert.Equal(t, BackendOpenAI, cfg.Backend)
	assert.Equal(t, "mock-gpt", cfg.LLMModel)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, 5, cfg.Burst)
	assert.Equal(t, memory.ProviderSupermemory, cfg.Provider)
	assert.Equal(t, 3, cfg.ContextLimit)
	assert.EqualValues(t, 50, cfg.History.MaxPerUser)
}

func TestLoadConfig_EnvOverridesBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("GENERATION_BACKEND", "gemini")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("GEMINI_MODEL", "gemini-1.5-pro")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, BackendGemini, cfg.Backend)
	assert.Equal(t, "gemini-1.5-pro", cfg.GeminiModel)
}

func TestBuildConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*FileConfig)
		wantErr string
	}{
		{"unknown backend", func(f *FileConfig) { f.Backend.Type = "claude" }, "unknown generation backend"},
		{"gemini without key", func(f *FileConfig) { f.Backend.Type = "gemini" }, "GEMINI_API_KEY"},
		{"openai without url", func(f *FileConfig) { f.Backend.Type = "openai" }, "LLM_SERVICE_URL"},
		{"unknown policy", func(f *FileConfig) { f.Scoring.Policy = "vibes" }, "unknown scoring policy"},
		{"unknown provider", func(f *FileConfig) { f.Context.Provider = "pinecone" }, "unknown context provider"},
		{"supermemory without url", func(f *FileConfig) { f.Context.Provider = "supermemory" }, "SUPERMEMORY_API_URL"},
		{"unknown cache", func(f *FileConfig) { f.Cache.Type = "memcached" }, "unknown cache type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			var f FileConfig
			tt.mutate(&f)
			_, err := buildConfig(f)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limits: [unclosed"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "failed to parse")
}
