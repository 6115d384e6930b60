package stages

import (
	"fmt"

	"github.com/jonathan/career-navigator/internal/types"
)

// StageLockedError represents an attempt to enter a stage whose required field is unset
type StageLockedError struct {
	Stage        StageID
	MissingField types.ProfileField
}

func (e *StageLockedError) Error() string {
	return fmt.Sprintf("stage %s is locked: %s is not set", e.Stage, e.MissingField)
}

// UnknownStageError represents a stage name that is not registered
type UnknownStageError struct {
	Stage string
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("unknown stage: %s", e.Stage)
}
