package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-navigator/internal/types"
)

// Snapshot is a stored copy of a session's profile after a stage
type Snapshot struct {
	ID        int64         `json:"id"`
	SessionID uuid.UUID     `json:"session_id"`
	Stage     string        `json:"stage"`
	Profile   types.Profile `json:"profile"`
	CreatedAt time.Time     `json:"created_at"`
}
