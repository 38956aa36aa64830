// In file: internal/prompt/longprompt.go
package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	DefaultLongPromptThreshold = 5000
	DefaultChunkSize           = 1000
	defaultMaxSections         = 3
	firstGoalFallbackChars     = 200
	maxActionVerbs             = 5

	scoreLongSummary    = 70
	scoreLongStructured = 75
	scoreLongSequential = 80
)

var (
	sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)
	sentenceEnd      = regexp.MustCompile(`[.!?]+`)
	actionVerbs      = regexp.MustCompile(`(?i)\b(create|write|analyze|explain|develop|design|implement|compare)\b`)
)

// SplitSentences splits text after sentence-ending punctuation that is
// followed by whitespace. Punctuation stays with its sentence.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var sentences []string
	start := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		sentences = append(sentences, text[start:loc[0]+1])
		start = loc[1]
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

// Chunk groups whole sentences into pieces whose space-joined length stays
// within limit. A sentence longer than limit becomes a chunk on its own.
func Chunk(text string, limit int) []string {
	if CharCount(text) <= limit {
		if t := strings.TrimSpace(text); t != "" {
			return []string{t}
		}
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
		}
		current = current[:0]
		currentLen = 0
	}

	for _, sentence := range SplitSentences(text) {
		n := CharCount(sentence)
		if len(current) > 0 && currentLen+1+n > limit {
			flush()
		}
		if len(current) > 0 {
			currentLen++
		}
		current = append(current, sentence)
		currentLen += n
	}
	flush()
	return chunks
}

// LongPromptGenerator handles prompts above the long-prompt threshold.
type LongPromptGenerator struct {
	Threshold   int
	ChunkSize   int
	MaxSections int
}

// NewLongPromptGenerator applies defaults for non-positive settings.
func NewLongPromptGenerator(threshold, chunkSize int) *LongPromptGenerator {
	if threshold <= 0 {
		threshold = DefaultLongPromptThreshold
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &LongPromptGenerator{Threshold: threshold, ChunkSize: chunkSize, MaxSections: defaultMaxSections}
}

// IsLong reports whether text takes the long-prompt path.
func (g *LongPromptGenerator) IsLong(text string) bool {
	return CharCount(text) > g.Threshold
}

// Variants returns the summary, structured and sequential variants.
func (g *LongPromptGenerator) Variants(text string, analysis QualityAnalysis) []Variant {
	summary := fmt.Sprintf("[LONG PROMPT - CONDENSED VERSION]\n\n%s\n\nNote: Original prompt was %d characters. Consider breaking into multiple focused prompts for better results.",
		extractKeyPoints(text), analysis.CharCount)
	sequential := fmt.Sprintf("Break this into multiple prompts:\n\n1. %s\n2. [Continue with subsequent goals]\n\nTip: Submit focused prompts sequentially for best results.",
		firstGoal(text))

	return []Variant{
		{Text: summary, Score: scoreLongSummary, Improvements: improvementsFor(StrategyLongSummary), Strategy: StrategyLongSummary},
		{Text: g.structured(text), Score: scoreLongStructured, Improvements: improvementsFor(StrategyLongStructured), Strategy: StrategyLongStructured},
		{Text: sequential, Score: scoreLongSequential, Improvements: improvementsFor(StrategyLongSequential), Strategy: StrategyLongSequential},
	}
}

func (g *LongPromptGenerator) structured(text string) string {
	chunks := Chunk(text, g.ChunkSize)

	var b strings.Builder
	b.WriteString("# Structured Request\n\n")
	for i, chunk := range chunks {
		if i == g.MaxSections {
			break
		}
		fmt.Fprintf(&b, "## Section %d\n%s\n\n", i+1, chunk)
	}
	if extra := len(chunks) - g.MaxSections; extra > 0 {
		fmt.Fprintf(&b, "[Note: %d additional sections - consider splitting]", extra)
	}
	return b.String()
}

// firstGoal returns the text up to the first sentence terminator.
func firstGoal(text string) string {
	first := strings.TrimSpace(sentenceEnd.Split(strings.TrimSpace(text), 2)[0])
	if first == "" {
		r := []rune(strings.TrimSpace(text))
		if len(r) > firstGoalFallbackChars {
			r = r[:firstGoalFallbackChars]
		}
		return string(r)
	}
	return first
}

// extractKeyPoints condenses text into its first sentence plus the distinct
// action verbs it uses, in order of first appearance.
func extractKeyPoints(text string) string {
	first := firstGoal(text)

	var actions []string
	seen := make(map[string]bool)
	for _, verb := range actionVerbs.FindAllString(strings.ToLower(text), -1) {
		if seen[verb] {
			continue
		}
		seen[verb] = true
		actions = append(actions, verb)
		if len(actions) == maxActionVerbs {
			break
		}
	}

	if len(actions) == 0 {
		return first + "..."
	}
	return fmt.Sprintf("%s. Main tasks: %s.", first, strings.Join(actions, ", "))
}
