package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoParserFound is returned when neither the declared metadata nor the
	// sniffed content type matches a registered parser.
	ErrNoParserFound = errors.New("no parser found for payload")

	// ErrNoValidData is returned when a parser extracted zero records.
	ErrNoValidData = errors.New("no valid employee data found")

	// ErrNotFound is returned when no employee matches a lookup or update.
	ErrNotFound = errors.New("employee not found")

	// ErrDuplicateAfterUpdate is returned when an update would give a row the
	// content hash of another existing row.
	ErrDuplicateAfterUpdate = errors.New("update would duplicate an existing employee")

	// ErrEmptyPayload is returned by the transport when there is nothing to ingest.
	ErrEmptyPayload = errors.New("empty file")
)

// ParseError reports a payload that could not be parsed as a whole.
// Row-level problems never produce a ParseError; those rows are skipped.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s parse failed: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageError wraps any unexpected persistence fault.
// It is never retried by the service.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// FieldViolation is a single rule failure reported by a Validator.
type FieldViolation struct {
	Field   string
	Message string
}

// IndexedViolation ties a FieldViolation to the position of its record in
// the parsed batch. Index is -1 for violations on a single-record update.
type IndexedViolation struct {
	Index int
	FieldViolation
}

// Code returns the violation reference, e.g. "Employee[3].Email".
func (v IndexedViolation) Code() string {
	if v.Index < 0 {
		return "Employee." + v.Field
	}
	return fmt.Sprintf("Employee[%d].%s", v.Index, v.Field)
}

// ValidationError aggregates field violations. It is returned as an error
// only when nothing could be accepted; on partial success the same
// violations travel in the IngestReport.
type ValidationError struct {
	Violations []IndexedViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Code()+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
