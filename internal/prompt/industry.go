// In file: internal/prompt/industry.go

// Package prompt contains the rule-based core of the prompt improvement
// feature: text signal detection, quality scoring, analysis, and the
// deterministic variant generators for short and long prompts.
package prompt

import (
	"regexp"
	"strings"
)

// Industry is the closed domain label used to select template text.
type Industry string

const (
	IndustryCode     Industry = "code"
	IndustryData     Industry = "data"
	IndustryCreative Industry = "creative"
	IndustryBusiness Industry = "business"
	IndustryResearch Industry = "research"
	IndustryGeneral  Industry = "general"
)

// PromptType is the second, independent classification reported alongside
// the industry. It never selects templates.
type PromptType string

const (
	TypeCodeGeneration  PromptType = "code_generation"
	TypeCreativeWriting PromptType = "creative_writing"
	TypeAnalysis        PromptType = "analysis"
	TypeSummarization   PromptType = "summarization"
	TypeQuestion        PromptType = "question"
	TypeGeneral         PromptType = "general"
)

// industryPattern pairs a label with its keyword pattern. The slice order is
// the tie-break priority.
type industryPattern struct {
	industry Industry
	pattern  *regexp.Regexp
}

var industryPatterns = []industryPattern{
	{IndustryCode, regexp.MustCompile(`(?i)\b(code|function|script|program|debug|implement)\b`)},
	{IndustryData, regexp.MustCompile(`(?i)\b(data|analyze|statistics|chart|graph|sql|query)\b`)},
	{IndustryCreative, regexp.MustCompile(`(?i)\b(write|story|essay|article|blog|creative)\b`)},
	{IndustryBusiness, regexp.MustCompile(`(?i)\b(report|presentation|analysis|strategy|proposal)\b`)},
	{IndustryResearch, regexp.MustCompile(`(?i)\b(research|study|investigate|explore|examine)\b`)},
}

// Industries lists every label in detection priority order, general last.
func Industries() []Industry {
	return []Industry{IndustryCode, IndustryData, IndustryCreative, IndustryBusiness, IndustryResearch, IndustryGeneral}
}

// ParseIndustry maps a free-form context string onto a known label.
// The boolean is false for empty or unrecognized input.
func ParseIndustry(s string) (Industry, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, ind := range Industries() {
		if s == string(ind) {
			return ind, true
		}
	}
	return IndustryGeneral, false
}

// DetectIndustry returns the first industry whose keywords appear in text,
// or IndustryGeneral when none match.
func DetectIndustry(text string) Industry {
	for _, p := range industryPatterns {
		if p.pattern.MatchString(text) {
			return p.industry
		}
	}
	return IndustryGeneral
}

// ResolveIndustry prefers an explicit, specific domain context over detection.
// "general" or unknown context values fall through to DetectIndustry.
func ResolveIndustry(text, domainContext string) Industry {
	if ind, ok := ParseIndustry(domainContext); ok && ind != IndustryGeneral {
		return ind
	}
	return DetectIndustry(text)
}

var (
	creationVerbs      = regexp.MustCompile(`(?i)\b(write|create|generate|compose)\b`)
	codeNouns          = regexp.MustCompile(`(?i)\b(code|function|script)\b`)
	analysisVerbs      = regexp.MustCompile(`(?i)\b(analyze|explain|describe|compare)\b`)
	summarizationVerbs = regexp.MustCompile(`(?i)\b(summarize|summary|tldr)\b`)
)

// DetectPromptType classifies the request shape.
func DetectPromptType(text string) PromptType {
	switch {
	case creationVerbs.MatchString(text):
		if codeNouns.MatchString(text) {
			return TypeCodeGeneration
		}
		return TypeCreativeWriting
	case analysisVerbs.MatchString(text):
		return TypeAnalysis
	case summarizationVerbs.MatchString(text):
		return TypeSummarization
	case strings.HasSuffix(strings.TrimSpace(text), "?"):
		return TypeQuestion
	default:
		return TypeGeneral
	}
}
