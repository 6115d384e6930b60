package pipeline

import (
	"github.com/jonathan/career-navigator/internal/stages"
)

// Progress statuses
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusDropped   = "dropped"
)

// ProgressEvent represents a progress update during stage execution
type ProgressEvent struct {
	Stage   stages.StageID `json:"stage"`
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Epoch   uint64         `json:"epoch"`
	Content any            `json:"content,omitempty"`
}

// ProgressCallback is called when stage progress occurs
type ProgressCallback func(event ProgressEvent)

// emitProgress calls every registered progress callback
func (o *Orchestrator) emitProgress(stage stages.StageID, status string, epoch uint64, message string, content any) {
	event := ProgressEvent{
		Stage:   stage,
		Status:  status,
		Message: message,
		Epoch:   epoch,
		Content: content,
	}
	for _, cb := range o.onProgress {
		cb(event)
	}
}
