// In file: internal/prompt/scorer.go
package prompt

import (
	"fmt"
	"regexp"
)

// Issue names one problem found in a prompt.
type Issue string

const (
	IssueVagueLanguage      Issue = "vague_language"
	IssueFillerWords        Issue = "filler_words"
	IssuePassiveVoice       Issue = "passive_voice"
	IssueTooShort           Issue = "too_short"
	IssueTooLong            Issue = "too_long"
	IssueMissingFormat      Issue = "missing_format"
	IssueMissingConstraints Issue = "missing_constraints"
	IssueMissingContext     Issue = "missing_context"
)

// Suggestion returns the user-facing fix for an issue.
func (i Issue) Suggestion() string {
	switch i {
	case IssueVagueLanguage:
		return "Be more specific about what you want"
	case IssueFillerWords:
		return "Remove filler words such as 'really' or 'basically'"
	case IssuePassiveVoice:
		return "Use active voice to state who should do what"
	case IssueTooShort:
		return "Add more context and details"
	case IssueTooLong:
		return "Focus on the key requirements"
	case IssueMissingFormat:
		return "Specify desired output format"
	case IssueMissingConstraints:
		return "Specify desired length or detail level"
	case IssueMissingContext:
		return "Provide background or context"
	default:
		return "Clarify the request"
	}
}

// Policy selects which scoring rule table is authoritative.
type Policy string

const (
	// PolicyAdditive starts at 50 and adds or subtracts per signal. Canonical.
	PolicyAdditive Policy = "additive"

	// PolicyDeductive starts at 100 and subtracts 15 per detected issue.
	PolicyDeductive Policy = "deductive"
)

// Scorecard is what a Scorer produces for one text.
type Scorecard struct {
	Score  int
	Issues []Issue
}

// Scorer turns text into a bounded 0-100 score.
type Scorer interface {
	Policy() Policy
	Score(text string, sig Signals) Scorecard
}

// NewScorer returns the scorer for a policy name. An empty name selects the
// additive policy.
func NewScorer(p Policy) (Scorer, error) {
	switch p {
	case PolicyAdditive, "":
		return AdditiveScorer{}, nil
	case PolicyDeductive:
		return DeductiveScorer{}, nil
	default:
		return nil, fmt.Errorf("unknown scoring policy %q", p)
	}
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// =================================================================================
// Additive policy
// =================================================================================

const (
	additiveBase      = 50
	tooShortWordCount = 5
	tooLongCharCount  = 2000
	penaltyVague      = 15
	penaltyFiller     = 10
	penaltyPassive    = 5
	penaltyTooShort   = 20
	penaltyTooLong    = 10
	bonusSpecificity  = 10
	bonusContext      = 15
	bonusOutputFormat = 10
	bonusConstraints  = 10
)

// AdditiveScorer applies the fixed adjustment table to a base of 50.
type AdditiveScorer struct{}

func (AdditiveScorer) Policy() Policy { return PolicyAdditive }

func (AdditiveScorer) Score(_ string, sig Signals) Scorecard {
	score := additiveBase
	var issues []Issue

	if sig.VagueLanguage {
		score -= penaltyVague
		issues = append(issues, IssueVagueLanguage)
	}
	if sig.FillerWords {
		score -= penaltyFiller
		issues = append(issues, IssueFillerWords)
	}
	if sig.PassiveVoice {
		score -= penaltyPassive
		issues = append(issues, IssuePassiveVoice)
	}
	if sig.WordCount < tooShortWordCount {
		score -= penaltyTooShort
		issues = append(issues, IssueTooShort)
	}
	if sig.CharCount > tooLongCharCount {
		score -= penaltyTooLong
		issues = append(issues, IssueTooLong)
	}

	if sig.Specificity {
		score += bonusSpecificity
	}
	if sig.Context {
		score += bonusContext
	} else {
		issues = append(issues, IssueMissingContext)
	}
	if sig.OutputFormat {
		score += bonusOutputFormat
	} else {
		issues = append(issues, IssueMissingFormat)
	}
	if sig.Constraints {
		score += bonusConstraints
	} else {
		issues = append(issues, IssueMissingConstraints)
	}

	return Scorecard{Score: clamp(score), Issues: issues}
}

// =================================================================================
// Deductive policy
// =================================================================================

var (
	deductiveVague    = regexp.MustCompile(`(?i)\b(something|stuff|things|good|bad|nice|better|worse|some|any|whatever)\b`)
	deductiveFormat   = regexp.MustCompile(`(?i)\b(list|bullet|table|format|json|markdown)\b`)
	deductiveLength   = regexp.MustCompile(`(?i)\b(length|words|sentences|paragraphs|brief|detailed)\b`)
	deductiveContext  = regexp.MustCompile(`(?i)\b(for|about|regarding|on)\b`)
	deductiveSpecific = regexp.MustCompile(`(?i)\b(specific|detailed|exactly|precisely)\b`)
	deductiveExample  = regexp.MustCompile(`(?i)(example|for instance)`)
)

const (
	deductiveBase          = 100
	deductivePerIssue      = 15
	deductiveTooLongWords  = 100
	deductiveContextWords  = 10
	deductiveIdealMinWords = 10
	deductiveIdealMaxWords = 50
)

// DeductiveScorer subtracts a flat amount per issue from 100 and adds small
// bonuses for ideal length, specific language and examples.
type DeductiveScorer struct{}

func (DeductiveScorer) Policy() Policy { return PolicyDeductive }

func (DeductiveScorer) Score(text string, sig Signals) Scorecard {
	var issues []Issue
	wc := sig.WordCount

	if deductiveVague.MatchString(text) {
		issues = append(issues, IssueVagueLanguage)
	}
	if wc < tooShortWordCount {
		issues = append(issues, IssueTooShort)
	} else if wc > deductiveTooLongWords {
		issues = append(issues, IssueTooLong)
	}
	if !deductiveFormat.MatchString(text) {
		issues = append(issues, IssueMissingFormat)
	}
	if !deductiveLength.MatchString(text) {
		issues = append(issues, IssueMissingConstraints)
	}
	if wc < deductiveContextWords && !deductiveContext.MatchString(text) {
		issues = append(issues, IssueMissingContext)
	}

	score := deductiveBase - len(issues)*deductivePerIssue
	if wc >= deductiveIdealMinWords && wc <= deductiveIdealMaxWords {
		score += 10
	}
	if deductiveSpecific.MatchString(text) {
		score += 5
	}
	if deductiveExample.MatchString(text) {
		score += 5
	}

	return Scorecard{Score: clamp(score), Issues: issues}
}
