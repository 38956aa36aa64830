// In file: cmd/gateway/config.go
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joshinii/ai-governance/internal/cache"
	"github.com/joshinii/ai-governance/internal/engine"
	"github.com/joshinii/ai-governance/internal/history"
	"github.com/joshinii/ai-governance/internal/memory"
	"github.com/joshinii/ai-governance/internal/prompt"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendRuleBased = "rule_based"
	BackendGemini    = "gemini"
	BackendOpenAI    = "openai"

	defaultPort           = "8000"
	defaultRedisAddr      = "localhost:6379"
	defaultConfigFile     = "config.yaml"
	defaultHealthInterval = 5 * time.Minute
)

// FileConfig mirrors config.yaml. Every field is optional.
type FileConfig struct {
	Limits struct {
		MinPromptChars      int `yaml:"min_prompt_chars"`
		MaxPromptChars      int `yaml:"max_prompt_chars"`
		LongPromptThreshold int `yaml:"long_prompt_threshold"`
		LongPromptFlagChars int `yaml:"long_prompt_flag_chars"`
		ChunkSize           int `yaml:"chunk_size"`
	} `yaml:"limits"`

	Scoring struct {
		Policy string `yaml:"policy"`
	} `yaml:"scoring"`

	Cache struct {
		Type     string        `yaml:"type"`
		Capacity int           `yaml:"capacity"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"cache"`

	Backend struct {
		Type           string        `yaml:"type"`
		Model          string        `yaml:"model"`
		Timeout        time.Duration `yaml:"timeout"`
		HealthInterval time.Duration `yaml:"health_interval"`
		RateLimit      float64       `yaml:"rate_limit"`
		Burst          int           `yaml:"burst"`
	} `yaml:"backend"`

	Context struct {
		Provider string        `yaml:"provider"`
		Limit    int           `yaml:"limit"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"context"`

	History struct {
		MaxPerUser int64         `yaml:"max_per_user"`
		TTL        time.Duration `yaml:"ttl"`
	} `yaml:"history"`
}

// AppConfig holds all configuration for the gateway, loaded from the environment and config.yaml.
type AppConfig struct {
	Port      string
	RedisAddr string

	GeminiAPIKey  string
	GeminiModel   string
	LLMServiceURL string
	LLMAPIKey     string
	LLMModel      string

	SupermemoryURL    string
	SupermemoryAPIKey string

	Backend        string
	HealthInterval time.Duration
	RateLimit      float64
	Burst          int
	Policy         prompt.Policy
	Provider       memory.Provider
	ContextLimit   int

	Engine  engine.Config
	Cache   cache.Config
	History history.Config
}

// LoadConfig loads configuration from a .env file, environment variables and
// config.yaml. CONFIG_FILE overrides the yaml path; a missing file means defaults.
func LoadConfig() (*AppConfig, error) {
	// In Docker (GIN_MODE=release) configuration comes from the environment.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("WARNING: No .env file found for local development.")
		}
	}

	path := getenv("CONFIG_FILE", defaultConfigFile)
	var file FileConfig
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("WARNING: %s not found, using built-in defaults.", path)
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	return buildConfig(file)
}

// buildConfig merges the parsed file with the environment and validates names.
func buildConfig(file FileConfig) (*AppConfig, error) {
	cfg := &AppConfig{
		Port:              getenv("PORT", defaultPort),
		RedisAddr:         getenv("REDIS_ADDR", defaultRedisAddr),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getenv("GEMINI_MODEL", file.Backend.Model),
		LLMServiceURL:     os.Getenv("LLM_SERVICE_URL"),
		LLMAPIKey:         os.Getenv("LLM_API_KEY"),
		LLMModel:          getenv("LLM_MODEL", file.Backend.Model),
		SupermemoryURL:    os.Getenv("SUPERMEMORY_API_URL"),
		SupermemoryAPIKey: os.Getenv("SUPERMEMORY_API_KEY"),
		HealthInterval:    file.Backend.HealthInterval,
		RateLimit:         file.Backend.RateLimit,
		Burst:             file.Backend.Burst,
		ContextLimit:      file.Context.Limit,
		Engine: engine.Config{
			MinPromptChars:      file.Limits.MinPromptChars,
			MaxPromptChars:      file.Limits.MaxPromptChars,
			LongPromptThreshold: file.Limits.LongPromptThreshold,
			LongPromptFlagChars: file.Limits.LongPromptFlagChars,
			ChunkSize:           file.Limits.ChunkSize,
			BackendTimeout:      file.Backend.Timeout,
			ContextTimeout:      file.Context.Timeout,
		},
		Cache: cache.Config{
			Type:     cache.Type(strings.ToLower(file.Cache.Type)),
			Capacity: file.Cache.Capacity,
			TTL:      file.Cache.TTL,
		},
		History: history.Config{
			MaxPerUser: file.History.MaxPerUser,
			TTL:        file.History.TTL,
		},
	}
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = defaultHealthInterval
	}

	cfg.Backend = strings.ToLower(getenv("GENERATION_BACKEND", file.Backend.Type))
	switch cfg.Backend {
	case "":
		cfg.Backend = BackendRuleBased
	case BackendRuleBased:
	case BackendGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required for backend %q", cfg.Backend)
		}
	case BackendOpenAI:
		if cfg.LLMServiceURL == "" {
			return nil, fmt.Errorf("LLM_SERVICE_URL environment variable is required for backend %q", cfg.Backend)
		}
	default:
		return nil, fmt.Errorf("unknown generation backend %q", cfg.Backend)
	}

	policy := prompt.Policy(strings.ToLower(file.Scoring.Policy))
	if _, err := prompt.NewScorer(policy); err != nil {
		return nil, err
	}
	if policy == "" {
		policy = prompt.PolicyAdditive
	}
	cfg.Policy = policy

	provider, err := memory.ParseProvider(getenv("CONTEXT_PROVIDER", file.Context.Provider))
	if err != nil {
		return nil, err
	}
	if provider == memory.ProviderSupermemory && cfg.SupermemoryURL == "" {
		return nil, fmt.Errorf("SUPERMEMORY_API_URL environment variable is required for context provider %q", provider)
	}
	cfg.Provider = provider

	switch cfg.Cache.Type {
	case "", cache.TypeMemory, cache.TypeRedis, cache.TypeDisabled:
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Cache.Type)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
