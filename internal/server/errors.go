// Package server exposes career sessions over an HTTP JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/career-navigator/internal/ingestion"
	"github.com/jonathan/career-navigator/internal/pipeline"
	"github.com/jonathan/career-navigator/internal/profile"
	"github.com/jonathan/career-navigator/internal/stages"
	"github.com/jonathan/career-navigator/internal/types"
)

// ErrSessionNotFound indicates the session does not exist on this server
type ErrSessionNotFound struct {
	SessionID uuid.UUID
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session not found: %s", e.SessionID)
}

// ErrValidation indicates a malformed request
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the status code an error is reported with.
// Upload errors are checked before GeneratorError, which wraps them.
func HTTPStatus(err error) int {
	var (
		notFound    *ErrSessionNotFound
		invalid     *ErrValidation
		unknown     *stages.UnknownStageError
		locked      *stages.StageLockedError
		stale       *profile.StaleWriteError
		badField    *types.ValidationError
		unsupported *ingestion.UnsupportedTypeError
		tooLarge    *ingestion.FileTooLargeError
		extraction  *ingestion.ExtractionError
		generator   *pipeline.GeneratorError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &notFound), errors.Is(err, ErrSnapshotsDisabled):
		return http.StatusNotFound
	case errors.As(err, &invalid), errors.As(err, &unknown),
		errors.Is(err, pipeline.ErrMissingResume), errors.Is(err, pipeline.ErrUnknownPath):
		return http.StatusBadRequest
	case errors.As(err, &locked), errors.As(err, &stale), errors.Is(err, pipeline.ErrSuperseded):
		return http.StatusConflict
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &unsupported):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &extraction), errors.As(err, &badField):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrGeneratorTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &generator):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
