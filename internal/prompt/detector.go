// In file: internal/prompt/detector.go
package prompt

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// --- Pre-compiled signal patterns ---
var (
	vagueWords   = regexp.MustCompile(`(?i)\b(thing|stuff|something|anything|good|bad|nice)\b`)
	fillerWords  = regexp.MustCompile(`(?i)\b(really|very|actually|basically|literally)\b`)
	passiveVoice = regexp.MustCompile(`(?i)\b(is|are|was|were|been|being)\s+\w+ed\b`)

	contextCues    = regexp.MustCompile(`(?i)\b(for|because|in order to|context)\b`)
	formatCues     = regexp.MustCompile(`(?i)\b(format|structure|json|list|table)\b`)
	constraintCues = regexp.MustCompile(`(?i)\b(limit|maximum|minimum|within|words)\b`)
)

// specificityWordCount is the word count above which a prompt counts as specific.
const specificityWordCount = 10

// Signals is the full set of detector outputs for one text.
type Signals struct {
	WordCount int
	CharCount int

	VagueLanguage bool
	FillerWords   bool
	PassiveVoice  bool

	Specificity  bool
	Context      bool
	OutputFormat bool
	Constraints  bool

	Industry   Industry
	PromptType PromptType
}

// HasVagueLanguage reports whether text contains a generic placeholder word.
func HasVagueLanguage(text string) bool { return vagueWords.MatchString(text) }

// HasFillerWords reports whether text contains an intensifier or filler.
func HasFillerWords(text string) bool { return fillerWords.MatchString(text) }

// HasPassiveVoiceMarker reports a be-verb followed by an -ed participle.
func HasPassiveVoiceMarker(text string) bool { return passiveVoice.MatchString(text) }

// HasSpecificity reports whether text is long enough to carry detail.
func HasSpecificity(text string) bool { return WordCount(text) > specificityWordCount }

// HasContext reports whether text explains purpose or background.
func HasContext(text string) bool { return contextCues.MatchString(text) }

// HasOutputFormatCue reports whether text asks for a specific output shape.
func HasOutputFormatCue(text string) bool { return formatCues.MatchString(text) }

// HasConstraintCue reports whether text bounds the response.
func HasConstraintCue(text string) bool { return constraintCues.MatchString(text) }

// WordCount counts whitespace-separated words.
func WordCount(text string) int { return len(strings.Fields(text)) }

// CharCount counts Unicode code points.
func CharCount(text string) int { return utf8.RuneCountInString(text) }

// Detect runs every detector over text.
func Detect(text string) Signals {
	return Signals{
		WordCount:     WordCount(text),
		CharCount:     CharCount(text),
		VagueLanguage: HasVagueLanguage(text),
		FillerWords:   HasFillerWords(text),
		PassiveVoice:  HasPassiveVoiceMarker(text),
		Specificity:   HasSpecificity(text),
		Context:       HasContext(text),
		OutputFormat:  HasOutputFormatCue(text),
		Constraints:   HasConstraintCue(text),
		Industry:      DetectIndustry(text),
		PromptType:    DetectPromptType(text),
	}
}
