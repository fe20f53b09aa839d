package quiz

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for unknown pins, games and players
	ErrNotFound = errors.New("not found")
	// ErrPhase is returned when a command does not fit the current phase
	ErrPhase = errors.New("not allowed in current phase")
	// ErrStaleQuestion is returned when an answer targets a question that is not current
	ErrStaleQuestion = errors.New("question is no longer current")
	// ErrDuplicateAnswer is returned when a player answers the same question twice
	ErrDuplicateAnswer = errors.New("already answered this question")
	// ErrAlreadyConnected is returned when a persistent id is already bound to a live connection
	ErrAlreadyConnected = errors.New("player is already connected")
	// ErrForbidden is returned when the caller's role does not permit the command
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports malformed input
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
