// In file: internal/llm/variant_backend.go
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/joshinii/ai-governance/internal/prompt"
	"golang.org/x/time/rate"
)

// systemInstruction asks the model for three rewrites in a fixed JSON shape.
const systemInstruction = `You are an expert Prompt Engineer. Your goal is to take a user's prompt and generate 3 improved variants.

For each variant:
1. Improve clarity, specificity, and structure.
2. Add necessary constraints or context.
3. Ensure it follows best practices for the target AI model.

Return the response in JSON format with the following structure:
{
    "variants": [
        {
            "text": "Improved prompt text...",
            "improvements": ["List of specific improvements made"],
            "score": 85
        }
    ]
}`

var (
	// ErrNoVariants is returned when a model reply parses but holds no usable text.
	ErrNoVariants = errors.New("model returned no variants")
	// ErrRateLimited is returned without calling the model when the request
	// budget is spent.
	ErrRateLimited = errors.New("backend request budget exhausted")
)

type modelVariant struct {
	Text         string   `json:"text"`
	Improvements []string `json:"improvements"`
	Score        float64  `json:"score"`
}

type modelReply struct {
	Variants []modelVariant `json:"variants"`
}

// VariantBackend turns any LLMClient into a variant generation backend.
type VariantBackend struct {
	name     string
	client   LLMClient
	config   GenerationConfig
	profiler *Profiler
	limiter  *rate.Limiter
}

// NewVariantBackend wraps client. The name is reported in result metadata.
func NewVariantBackend(name string, client LLMClient, config *GenerationConfig) *VariantBackend {
	b := &VariantBackend{name: name, client: client}
	if config != nil {
		b.config = *config
	}
	b.config.JSONOutput = true
	if b.config.Temperature == nil {
		t := defaultTemperature
		b.config.Temperature = &t
	}
	return b
}

// WithProfiler records latency and failures of every call in p.
func (b *VariantBackend) WithProfiler(p *Profiler) *VariantBackend {
	b.profiler = p
	return b
}

// WithRateLimit caps model calls at rps per second with the given burst.
// Calls over budget fail fast so the caller can degrade instead of queueing.
// A non-positive rps leaves the backend unlimited.
func (b *VariantBackend) WithRateLimit(rps float64, burst int) *VariantBackend {
	if rps <= 0 {
		b.limiter = nil
		return b
	}
	if burst < 1 {
		burst = 1
	}
	b.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return b
}

func (b *VariantBackend) Name() string { return b.name }

// Generate asks the model for rewrites. The result may hold fewer or more than
// three variants; callers normalize the count.
func (b *VariantBackend) Generate(ctx context.Context, req prompt.GenerationRequest) ([]prompt.Variant, error) {
	if b.limiter != nil && !b.limiter.Allow() {
		return nil, fmt.Errorf("%s backend: %w", b.name, ErrRateLimited)
	}
	start := time.Now()
	result, err := b.client.Generate(ctx, BuildMessages(req), &b.config)
	if err != nil {
		b.recordFailure(ctx)
		return nil, fmt.Errorf("%s backend failed: %w", b.name, err)
	}
	variants, err := ParseVariants(result.Content)
	if err != nil {
		b.recordFailure(ctx)
		return nil, fmt.Errorf("%s backend returned an unusable reply: %w", b.name, err)
	}
	if b.profiler != nil {
		b.profiler.RecordSuccess(ctx, b.name, time.Since(start))
		b.profiler.RecordTokens(ctx, b.name, result.Usage)
	}
	return variants, nil
}

func (b *VariantBackend) recordFailure(ctx context.Context) {
	if b.profiler != nil {
		b.profiler.RecordFailure(ctx, b.name)
	}
}

// BuildMessages renders the system instruction and the user message holding
// the prompt, its target AI and any knowledge-graph snippets.
func BuildMessages(req prompt.GenerationRequest) []Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Original Prompt: %s\n", req.Prompt)
	if req.TargetAI != "" {
		fmt.Fprintf(&b, "Target AI: %s\n", req.TargetAI)
	}
	if len(req.History) > 0 {
		b.WriteString("\nRelevant Context from Knowledge Graph:\n")
		for _, item := range req.History {
			fmt.Fprintf(&b, "- %s\n", item)
		}
	}
	return []Message{
		{Role: RoleSystem, Content: systemInstruction},
		{Role: RoleUser, Content: b.String()},
	}
}

// ParseVariants decodes a model reply, tolerating markdown code fences around
// the JSON. Entries without text are skipped.
func ParseVariants(content string) ([]prompt.Variant, error) {
	var reply modelReply
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &reply); err != nil {
		return nil, fmt.Errorf("failed to decode variants JSON: %w", err)
	}

	variants := make([]prompt.Variant, 0, len(reply.Variants))
	for _, mv := range reply.Variants {
		text := strings.TrimSpace(mv.Text)
		if text == "" {
			continue
		}
		variants = append(variants, prompt.RemoteVariant(text, int(math.Round(mv.Score)), nonEmpty(mv.Improvements)))
	}
	if len(variants) == 0 {
		return nil, ErrNoVariants
	}
	return variants, nil
}

// stripCodeFence returns the body of the first ```json or ``` block, or the
// trimmed content when there is none.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	for _, fence := range []string{"```json", "```"} {
		_, after, found := strings.Cut(content, fence)
		if !found {
			continue
		}
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	return content
}

func nonEmpty(items []string) []string {
	var out []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
