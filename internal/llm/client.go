// In file: internal/llm/client.go

// Package llm talks to remote language models and turns their replies into
// prompt variants.
package llm

import (
	"context"
)

// =================================================================================
// Core Data Structures
// =================================================================================

// Role represents the originator of a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message sent to a model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// GenerationConfig holds the parameters that control a model's output.
type GenerationConfig struct {
	// The specific model to use (e.g., "gemini-1.5-flash", "gemma-3").
	Model string
	// Controls randomness. A pointer distinguishes 0.0 from unset.
	Temperature *float32
	// The maximum number of tokens to generate in the response.
	MaxTokens int
	// JSONOutput asks the provider for a JSON response when it supports it.
	JSONOutput bool
}

// GenerationResult holds the complete output from an LLM call.
type GenerationResult struct {
	Content string
	Usage   Usage
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// =================================================================================
// LLM Client Interface
// =================================================================================

// LLMClient is the interface every model client implements.
type LLMClient interface {
	// Generate performs a blocking request and returns the full reply.
	Generate(ctx context.Context, messages []Message, config *GenerationConfig) (*GenerationResult, error)
}
