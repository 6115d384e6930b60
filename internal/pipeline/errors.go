package pipeline

import (
	"errors"
	"fmt"

	"github.com/jonathan/career-navigator/internal/stages"
)

var (
	// ErrSuperseded is returned when a newer invocation of the same stage, a
	// reset, or a newer change to one of its fields landed before this one
	// finished. Its result is dropped.
	ErrSuperseded = errors.New("stage invocation superseded")

	// ErrGeneratorTimeout marks a generator call that hit the caller's deadline
	ErrGeneratorTimeout = errors.New("generator timed out")

	// ErrMissingResume is returned when UPLOAD runs without a file
	ErrMissingResume = errors.New("resume file is required")

	// ErrUnknownPath is returned when the chosen path is not among the candidates
	ErrUnknownPath = errors.New("unknown career path")

	// ErrNoGenerator is returned when no collaborator is configured for a stage
	ErrNoGenerator = errors.New("no generator configured")
)

// GeneratorError represents a failed or malformed response from an external generator
type GeneratorError struct {
	Stage stages.StageID
	Cause error
}

func (e *GeneratorError) Error() string {
	return fmt.Sprintf("%s generator failed: %v", e.Stage, e.Cause)
}

func (e *GeneratorError) Unwrap() error {
	return e.Cause
}
