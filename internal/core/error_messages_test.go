package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"no parser", fmt.Errorf("select: %w", ErrNoParserFound), "EMP001"},
		{"parse error", &ParseError{Format: "json", Err: errors.New("unexpected EOF")}, "EMP002"},
		{"no valid data", ErrNoValidData, "EMP003"},
		{"validation", &ValidationError{}, "EMP004"},
		{"not found", fmt.Errorf("lookup: %w", ErrNotFound), "EMP005"},
		{"duplicate after update", ErrDuplicateAfterUpdate, "EMP006"},
		{"storage generic", &StorageError{Op: "insert", Err: errors.New("disk I/O error")}, "EMP007"},
		{"storage busy keeps db code", &StorageError{Op: "insert", Err: errors.New("database is locked (5) (SQLITE_BUSY)")}, "DB007"},
		{"storage refused keeps db code", &StorageError{Op: "ping", Err: errors.New("dial tcp: connection refused")}, "DB004"},
		{"duplicate key pattern", errors.New("pq: duplicate key value violates unique constraint"), "DB001"},
		{"case insensitive", errors.New("DUPLICATE KEY value"), "DB001"},
		{"empty payload", ErrEmptyPayload, "FILE005"},
		{"too many ingests", ErrTooManyIngests, "UPL002"},
		{"deadline", errors.New("context deadline exceeded"), "UPL005"},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001"},
		{"unknown", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err).Code; got != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q", got)
	}
	got := FormatUserError(ErrNotFound)
	if !strings.Contains(got, "(Code: EMP005)") {
		t.Errorf("FormatUserError = %q, missing code", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("nil should not be user facing")
	}
	if IsUserFacing(errors.New("mystery")) {
		t.Error("unmatched error should not be user facing")
	}
	if !IsUserFacing(ErrNoValidData) {
		t.Error("ErrNoValidData should be user facing")
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Violations: []IndexedViolation{
		{Index: 2, FieldViolation: FieldViolation{"Email", "email is required"}},
		{Index: -1, FieldViolation: FieldViolation{"Joined", "bad"}},
	}}
	want := "validation failed: Employee[2].Email: email is required; Employee.Joined: bad"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
