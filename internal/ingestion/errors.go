package ingestion

import "fmt"

// UnsupportedTypeError represents a resume format text cannot be extracted from
type UnsupportedTypeError struct {
	ContentType string
	Filename    string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("unsupported resume type %q (%s): upload a PDF, DOCX, or plain text file", e.ContentType, e.Filename)
	}
	return fmt.Sprintf("unsupported resume type %q: upload a PDF, DOCX, or plain text file", e.ContentType)
}

// FileTooLargeError represents a resume over the upload limit
type FileTooLargeError struct {
	Size  int
	Limit int
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("resume is %d bytes, limit is %d bytes", e.Size, e.Limit)
}

// ExtractionError represents a failure to read a supported document
type ExtractionError struct {
	ContentType string
	Cause       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract %s text: %v", e.ContentType, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
