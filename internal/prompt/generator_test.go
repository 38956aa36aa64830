package prompt

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_ShortCodePrompt(t *testing.T) {
	analysis := NewAnalyzer(nil).Analyze("write code")
	require.Equal(t, 30, analysis.Score)

	variants, err := NewGenerator().Variants("write code", IndustryCode, analysis)
	require.NoError(t, err)
	require.Len(t, variants, VariantCount)

	assert.Equal(t, StrategyStructure, variants[0].Strategy)
	assert.Equal(t, 55, variants[0].Score)
	assert.True(t, strings.HasPrefix(variants[0].Text, "Task: write code\n\nRequirements:\n- Programming language: [Specify]"))

	assert.Equal(t, StrategyContext, variants[1].Strategy)
	assert.Equal(t, 60, variants[1].Score)
	assert.Contains(t, variants[1].Text, "Code should be production-ready")

	assert.Equal(t, StrategyAIOptimized, variants[2].Strategy)
	assert.Equal(t, 65, variants[2].Score)
	assert.Contains(t, variants[2].Text, "[AI Instructions: Provide clean, well-commented code")

	for _, v := range variants {
		assert.NotEmpty(t, v.Improvements)
		assert.False(t, v.Degraded)
	}
}

func TestGenerator_LongerPromptGetsSuffix(t *testing.T) {
	text := strings.Repeat("Describe the migration plan for our billing service in detail. ", 3)
	require.GreaterOrEqual(t, CharCount(text), shortPromptChars)

	variants, err := NewGenerator().Variants(text, IndustryGeneral, QualityAnalysis{Score: 50})
	require.NoError(t, err)
	assert.Equal(t, text+"\n\nFormat your response with clear sections and examples.", variants[0].Text)
}

func TestGenerator_ResearchUsesGeneralArm(t *testing.T) {
	variants, err := NewGenerator().Variants("study bees", IndustryResearch, QualityAnalysis{Score: 40})
	require.NoError(t, err)
	assert.Equal(t, "study bees\n\nPlease provide:\n- Clear explanation\n- Structured response\n- Specific examples", variants[0].Text)
	assert.Contains(t, variants[1].Text, "Step-by-step explanation")
	assert.Contains(t, variants[2].Text, "[AI Instructions: Structure response clearly.")
}

func TestGenerator_EveryIndustryHasTemplates(t *testing.T) {
	g := NewGenerator()
	for _, ind := range Industries() {
		variants, err := g.Variants("help me", ind, QualityAnalysis{Score: 10})
		require.NoError(t, err, ind)
		require.Len(t, variants, VariantCount)
		for _, v := range variants {
			assert.Contains(t, v.Text, "help me")
			assert.NotEmpty(t, v.Improvements)
		}
	}
}

func TestGenerator_ScoresClampAt100(t *testing.T) {
	variants, err := NewGenerator().Variants("write code", IndustryCode, QualityAnalysis{Score: 90})
	require.NoError(t, err)
	for _, v := range variants {
		assert.Equal(t, 100, v.Score)
	}
}

func TestOptimizeForAI_ReplacesVagueWords(t *testing.T) {
	got := optimizeForAI("Make Something NICE with this stuff, not a good Thing", IndustryGeneral)
	assert.True(t, strings.HasPrefix(got, "Make specific item appropriate with this specific item, not a appropriate specific item"))
	assert.True(t, strings.HasSuffix(got, aiInstructions(IndustryGeneral)))
}

func TestGenerator_GenerateMatchesVariants(t *testing.T) {
	g := NewGenerator()
	analysis := NewAnalyzer(nil).Analyze("draft the quarterly report")
	want, err := g.Variants("draft the quarterly report", IndustryBusiness, analysis)
	require.NoError(t, err)

	got, err := g.Generate(context.Background(), GenerationRequest{
		Prompt:   "draft the quarterly report",
		Industry: IndustryBusiness,
		Analysis: analysis,
		History:  []string{"ignored by the rule-based backend"},
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "rule_based", g.Name())
}

func TestRemoteVariant(t *testing.T) {
	v := RemoteVariant("better", 140, nil)
	assert.Equal(t, 100, v.Score)
	assert.Equal(t, StrategyRemote, v.Strategy)
	assert.Equal(t, []string{"Rewritten by language model"}, v.Improvements)

	v = RemoteVariant("better", -3, []string{"Added role"})
	assert.Equal(t, 0, v.Score)
	assert.Equal(t, []string{"Added role"}, v.Improvements)
}

func TestFallbackVariant(t *testing.T) {
	v := FallbackVariant("keep me", QualityAnalysis{Score: 42})
	assert.Equal(t, "keep me", v.Text)
	assert.Equal(t, 42, v.Score)
	assert.Equal(t, StrategyFallback, v.Strategy)
	assert.True(t, v.Degraded)
	assert.NotEmpty(t, v.Improvements)
}
