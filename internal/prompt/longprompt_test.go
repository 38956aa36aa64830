package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("  First one. Second?  Third!\nFourth... done. e.g.no split  ")
	assert.Equal(t, []string{"First one.", "Second?", "Third!", "Fourth...", "done.", "e.g.no split"}, got)
	assert.Nil(t, SplitSentences("   "))
}

func TestChunk_RoundTripAndLimit(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 120; i++ {
		b.WriteString(strings.Repeat("word ", i%17+1))
		b.WriteString("end. ")
	}
	text := b.String()
	const limit = 200

	chunks := Chunk(text, limit)
	require.Greater(t, len(chunks), 1)

	var rebuilt []string
	for _, c := range chunks {
		assert.LessOrEqual(t, CharCount(c), limit)
		rebuilt = append(rebuilt, SplitSentences(c)...)
	}
	assert.Equal(t, SplitSentences(text), rebuilt)
	assert.Equal(t, strings.Join(SplitSentences(text), " "), strings.Join(chunks, " "))
}

func TestChunk_OversizeSentenceStandsAlone(t *testing.T) {
	huge := strings.Repeat("a", 50) + "."
	chunks := Chunk("Short one. "+huge+" Tail.", 20)
	assert.Equal(t, []string{"Short one.", huge, "Tail."}, chunks)
}

func TestChunk_FitsInOne(t *testing.T) {
	assert.Equal(t, []string{"Tiny prompt."}, Chunk(" Tiny prompt. ", 1000))
	assert.Nil(t, Chunk("", 1000))
}

func TestLongPromptGenerator_Variants(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("Write a detailed plan. ", 261))
	g := NewLongPromptGenerator(0, 0)
	require.True(t, g.IsLong(text))
	require.False(t, g.IsLong(text[:DefaultLongPromptThreshold]))

	analysis := NewAnalyzer(nil).Analyze(text)
	variants := g.Variants(text, analysis)
	require.Len(t, variants, VariantCount)

	assert.Equal(t, StrategyLongSummary, variants[0].Strategy)
	assert.Equal(t, 70, variants[0].Score)
	assert.Contains(t, variants[0].Text, "Write a detailed plan. Main tasks: write.")
	assert.Contains(t, variants[0].Text, "Original prompt was 6002 characters.")

	assert.Equal(t, StrategyLongStructured, variants[1].Strategy)
	assert.Equal(t, 75, variants[1].Score)
	assert.True(t, strings.HasPrefix(variants[1].Text, "# Structured Request\n\n## Section 1\n"))
	assert.Contains(t, variants[1].Text, "## Section 3\n")
	assert.NotContains(t, variants[1].Text, "## Section 4")
	assert.Contains(t, variants[1].Text, "[Note: 4 additional sections - consider splitting]")

	assert.Equal(t, StrategyLongSequential, variants[2].Strategy)
	assert.Equal(t, 80, variants[2].Score)
	assert.Contains(t, variants[2].Text, "1. Write a detailed plan\n2. [Continue with subsequent goals]")

	for _, v := range variants {
		assert.NotEmpty(t, v.Improvements)
	}
}

func TestExtractKeyPoints(t *testing.T) {
	text := "Our team needs help. Please compare vendors, then design and implement a rollout; explain risks, create docs, write tests and develop tooling."
	assert.Equal(t, "Our team needs help. Main tasks: compare, design, implement, explain, create.", extractKeyPoints(text))
	assert.Equal(t, "Nothing actionable here...", extractKeyPoints("Nothing actionable here. Really."))
}
