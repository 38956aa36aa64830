// In file: internal/llm/gemini_client.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiClient is the client for Google's Gemini models.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

var _ LLMClient = (*GeminiClient)(nil)

// NewGeminiClient configures the model once so concurrent Generate calls never
// mutate shared settings.
func NewGeminiClient(ctx context.Context, apiKey, modelID string, config *GenerationConfig) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}
	if modelID == "" {
		modelID = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.GenerativeModel(modelID)
	configureModel(model, config)
	return &GeminiClient{client: client, model: model}, nil
}

// Generate sends every message as one combined prompt. Some Gemma-family
// models reject system instructions, so the system text leads the prompt.
func (c *GeminiClient) Generate(ctx context.Context, messages []Message, _ *GenerationConfig) (*GenerationResult, error) {
	if len(messages) == 0 {
		return nil, errors.New("no messages to send to Gemini")
	}
	resp, err := c.model.GenerateContent(ctx, genai.Text(flattenMessages(messages)))
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return parseGeminiResponse(resp)
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func configureModel(model *genai.GenerativeModel, config *GenerationConfig) {
	if config == nil {
		config = &GenerationConfig{}
	}
	if config.Temperature != nil {
		model.SetTemperature(*config.Temperature)
	}
	if config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(config.MaxTokens))
	} else {
		model.SetMaxOutputTokens(defaultMaxOutputTokens)
	}
	if config.JSONOutput {
		model.ResponseMIMEType = "application/json"
	}
}

func flattenMessages(messages []Message) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		if c := strings.TrimSpace(msg.Content); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "\n\n")
}

func parseGeminiResponse(resp *genai.GenerateContentResponse) (*GenerationResult, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no content returned from Gemini")
	}

	var contentBuilder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			contentBuilder.WriteString(string(txt))
		}
	}

	result := &GenerationResult{Content: strings.TrimSpace(contentBuilder.String())}
	if resp.UsageMetadata != nil {
		result.Usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.Usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		result.Usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return result, nil
}
