package profile

import (
	"fmt"
	"strings"

	"github.com/jonathan/career-navigator/internal/types"
)

// StaleWriteError reports a non-overwrite merge onto fields that are already set.
// It indicates a caller bug; the merge is never applied.
type StaleWriteError struct {
	Fields []types.ProfileField
}

func (e *StaleWriteError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return fmt.Sprintf("stale write: field(s) already set: %s", strings.Join(names, ", "))
}
