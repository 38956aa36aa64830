// In file: internal/prompt/generator.go
package prompt

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Strategy identifies the rewriting rule that produced a variant.
type Strategy string

const (
	StrategyStructure      Strategy = "structure_and_clarity"
	StrategyContext        Strategy = "context_and_constraints"
	StrategyAIOptimized    Strategy = "ai_optimized"
	StrategyLongSummary    Strategy = "long_prompt_summary"
	StrategyLongStructured Strategy = "long_prompt_structured"
	StrategyLongSequential Strategy = "long_prompt_sequential"
	StrategyRemote         Strategy = "remote_model"
	StrategyFallback       Strategy = "fallback_original"
)

// VariantCount is the number of variants every successful generation yields.
const VariantCount = 3

// Variant is one generated improvement candidate.
type Variant struct {
	Text         string   `json:"text"`
	Score        int      `json:"score"`
	Improvements []string `json:"improvements"`
	Strategy     Strategy `json:"strategy"`
	Degraded     bool     `json:"degraded,omitempty"`
}

// GenerationRequest is everything a generation backend may use.
type GenerationRequest struct {
	Prompt string

	// TargetAI is the caller-supplied domain context, passed through verbatim.
	TargetAI string
	Industry Industry
	Analysis QualityAnalysis

	// History holds snippets from the context provider; may be empty.
	History []string
}

const (
	shortPromptChars      = 100
	bonusStructureVariant = 25
	bonusContextVariant   = 30
	bonusAIVariant        = 35
)

var (
	vagueNouns      = regexp.MustCompile(`(?i)\b(thing|stuff|something)\b`)
	vagueAdjectives = regexp.MustCompile(`(?i)\b(good|bad|nice)\b`)
)

// Generator is the rule-based variant generator.
type Generator struct{}

// NewGenerator creates a rule-based generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Name identifies the backend in metadata and logs.
func (g *Generator) Name() string { return "rule_based" }

// Local reports that failures here are construction bugs, not an unavailable
// collaborator.
func (g *Generator) Local() bool { return true }

// Generate builds the three short-form variants. The context is unused; the
// signature matches the remote backends.
func (g *Generator) Generate(_ context.Context, req GenerationRequest) ([]Variant, error) {
	return g.Variants(req.Prompt, req.Industry, req.Analysis)
}

// Variants produces exactly three variants in fixed strategy order.
func (g *Generator) Variants(text string, ind Industry, analysis QualityAnalysis) ([]Variant, error) {
	structured, err := addStructure(text, ind)
	if err != nil {
		return nil, err
	}

	return []Variant{
		newVariant(structured, analysis.Score+bonusStructureVariant, StrategyStructure),
		newVariant(text+contextBlock(ind), analysis.Score+bonusContextVariant, StrategyContext),
		newVariant(optimizeForAI(text, ind), analysis.Score+bonusAIVariant, StrategyAIOptimized),
	}, nil
}

func newVariant(text string, score int, s Strategy) Variant {
	return Variant{
		Text:         text,
		Score:        clamp(score),
		Improvements: improvementsFor(s),
		Strategy:     s,
	}
}

// addStructure applies the full industry template to short prompts and a
// generic sections instruction to everything else.
func addStructure(text string, ind Industry) (string, error) {
	if CharCount(text) >= shortPromptChars {
		return text + structureSuffix, nil
	}
	var b strings.Builder
	if err := structureTemplate(ind).Execute(&b, struct{ Prompt string }{text}); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", ind, err)
	}
	return b.String(), nil
}

// optimizeForAI swaps vague words for precise ones and appends instructions.
func optimizeForAI(text string, ind Industry) string {
	optimized := vagueNouns.ReplaceAllString(text, "specific item")
	optimized = vagueAdjectives.ReplaceAllString(optimized, "appropriate")
	return optimized + aiInstructions(ind)
}

// RemoteVariant normalizes a model-produced candidate: the score is clamped and
// an empty improvement list gets the default remote entry.
func RemoteVariant(text string, score int, improvements []string) Variant {
	v := newVariant(text, score, StrategyRemote)
	if len(improvements) > 0 {
		v.Improvements = improvements
	}
	return v
}

// FallbackVariant is the single degraded result returned when a remote
// backend yields nothing.
func FallbackVariant(text string, analysis QualityAnalysis) Variant {
	v := newVariant(text, analysis.Score, StrategyFallback)
	v.Degraded = true
	return v
}
