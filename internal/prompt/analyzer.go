// In file: internal/prompt/analyzer.go
package prompt

// Strengths records which good practices a prompt already follows.
type Strengths struct {
	HasSpecificity  bool `json:"has_specificity"`
	HasContext      bool `json:"has_context"`
	HasOutputFormat bool `json:"has_output_format"`
	HasConstraints  bool `json:"has_constraints"`
}

// QualityAnalysis is the derived, per-call analysis of one prompt.
type QualityAnalysis struct {
	Score       int        `json:"score"`
	WordCount   int        `json:"word_count"`
	CharCount   int        `json:"char_count"`
	Issues      []Issue    `json:"issues"`
	Suggestions []string   `json:"suggestions"`
	Strengths   Strengths  `json:"strengths"`
	Industry    Industry   `json:"industry"`
	PromptType  PromptType `json:"prompt_type"`
	Policy      Policy     `json:"policy"`
}

// HasIssue reports whether the analysis flagged issue.
func (a QualityAnalysis) HasIssue(issue Issue) bool {
	for _, i := range a.Issues {
		if i == issue {
			return true
		}
	}
	return false
}

// Analyzer composes the detectors with a scoring policy.
// It performs no length validation; callers do that first.
type Analyzer struct {
	scorer Scorer
}

// NewAnalyzer creates an analyzer. A nil scorer selects the additive policy.
func NewAnalyzer(scorer Scorer) *Analyzer {
	if scorer == nil {
		scorer = AdditiveScorer{}
	}
	return &Analyzer{scorer: scorer}
}

// Policy returns the active scoring policy.
func (a *Analyzer) Policy() Policy {
	return a.scorer.Policy()
}

// Analyze produces the full analysis record for text.
func (a *Analyzer) Analyze(text string) QualityAnalysis {
	sig := Detect(text)
	card := a.scorer.Score(text, sig)

	issues := card.Issues
	if issues == nil {
		issues = []Issue{}
	}
	suggestions := make([]string, 0, len(issues))
	for _, issue := range issues {
		suggestions = append(suggestions, issue.Suggestion())
	}

	return QualityAnalysis{
		Score:       card.Score,
		WordCount:   sig.WordCount,
		CharCount:   sig.CharCount,
		Issues:      issues,
		Suggestions: suggestions,
		Strengths: Strengths{
			HasSpecificity:  sig.Specificity,
			HasContext:      sig.Context,
			HasOutputFormat: sig.OutputFormat,
			HasConstraints:  sig.Constraints,
		},
		Industry:   sig.Industry,
		PromptType: sig.PromptType,
		Policy:     a.scorer.Policy(),
	}
}
