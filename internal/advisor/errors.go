package advisor

import "fmt"

// APICallError represents a failed call to the model
type APICallError struct {
	Operation string
	Cause     error
}

func (e *APICallError) Error() string {
	return fmt.Sprintf("%s: model call failed: %v", e.Operation, e.Cause)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// ParseError represents a model response that could not be decoded
type ParseError struct {
	Operation string
	Response  string
	Cause     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: could not decode model response: %v", e.Operation, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
