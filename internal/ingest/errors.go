package ingest

import (
	"fmt"
	"strings"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// FileErrorKind classifies why a file was skipped.
type FileErrorKind int

const (
	FileUnreadable FileErrorKind = iota
	MissingRequiredColumns
	StoreFailed
)

func (k FileErrorKind) String() string {
	switch k {
	case MissingRequiredColumns:
		return "missing_required_columns"
	case StoreFailed:
		return "store_failed"
	default:
		return "file_unreadable"
	}
}

// FileError describes a skipped file. It never aborts the batch.
type FileError struct {
	File    string
	Kind    FileErrorKind
	Missing []string // canonical fields that did not resolve
	Headers []string // raw headers, for diagnostics
	Err     error
}

func (e *FileError) Error() string {
	switch e.Kind {
	case MissingRequiredColumns:
		return fmt.Sprintf("%s: missing required columns %s (found: %s)",
			e.File, strings.Join(e.Missing, ", "), strings.Join(e.Headers, ", "))
	default:
		return fmt.Sprintf("%s: %s: %v", e.File, e.Kind, e.Err)
	}
}

func (e *FileError) Unwrap() error {
	return e.Err
}
