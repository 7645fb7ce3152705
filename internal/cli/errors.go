package cli

import (
	"errors"
	"strings"
)

// PreflightError explains why a command cannot run in the current
// environment, with a hint and the next command to try.
type PreflightError struct {
	Message  string
	Hint     string
	NextStep string
}

// Error formats the message followed by the hint and next step.
func (e *PreflightError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Hint != "" {
		b.WriteString("\nHint: ")
		b.WriteString(e.Hint)
	}
	if e.NextStep != "" {
		b.WriteString("\nTry: ")
		b.WriteString(e.NextStep)
	}
	return b.String()
}

// IsPreflight reports whether err is (or wraps) a PreflightError.
func IsPreflight(err error) bool {
	var pe *PreflightError
	return errors.As(err, &pe)
}
