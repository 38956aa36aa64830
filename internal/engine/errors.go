// In file: internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid prompt")
	// ErrGeneration matches every *GenerationError.
	ErrGeneration = errors.New("failed to generate prompt variants")
)

// ValidationError reports a prompt rejected before any work was done. The
// message is safe to show to the user.
type ValidationError struct {
	Reason string
	Limit  int
}

const (
	ReasonEmpty    = "empty"
	ReasonTooShort = "too_short"
	ReasonTooLong  = "too_long"
)

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonEmpty:
		return fmt.Sprintf("Prompt cannot be empty (minimum %s characters)", humanize.Comma(int64(e.Limit)))
	case ReasonTooShort:
		return fmt.Sprintf("Prompt is too short (minimum %s characters)", humanize.Comma(int64(e.Limit)))
	case ReasonTooLong:
		return fmt.Sprintf("Prompt exceeds maximum length (%s characters). Consider breaking into multiple prompts.", humanize.Comma(int64(e.Limit)))
	default:
		return ErrValidation.Error()
	}
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// GenerationError wraps an unexpected failure while building variants. Its
// message stays generic; the cause is kept for logs.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return ErrGeneration.Error() }

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }
