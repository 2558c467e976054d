// Package core provides the business logic for employee contact ingestion.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Domain errors are recognised by identity (errors.Is / errors.As);
// anything else falls through to substring patterns over the technical text.
//
// # Domain Errors (EMP001-EMP099)
//
//	EMP001 - Unsupported format: payload is neither CSV nor JSON
//	EMP002 - Parse failed: the payload as a whole is malformed
//	EMP003 - No valid data: the parser produced no records
//	EMP004 - Validation failed: every record was rejected
//	EMP005 - Not found: no employee with that name
//	EMP006 - Duplicate after update: edited values collide with another row
//	EMP007 - Storage failed: unexpected persistence fault
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key            Patterns: "duplicate key"
//	DB002 - Unique constraint        Patterns: "unique constraint", "violates unique"
//	DB004 - Connection refused       Patterns: "connection refused"
//	DB005 - Connection reset         Patterns: "connection reset"
//	DB006 - Timeout                  Patterns: "timeout"
//	DB007 - Busy / locked            Patterns: "database is locked", "deadlock"
//
// # Payload Errors (FILE001-FILE099)
//
//	FILE001 - Payload too large      Patterns: "file too large", "request body too large"
//	FILE003 - Encoding error         Patterns: "encoding error"
//	FILE004 - No file                Patterns: "no file provided"
//	FILE005 - Empty payload          Patterns: "empty file"
//
// # Ingest Errors (UPL001-UPL099)
//
//	UPL002 - System busy             Patterns: "too many concurrent ingests"
//	UPL004 - Request cancelled       Patterns: "context canceled"
//	UPL005 - Request timeout         Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited           Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Support staff should check application logs
// for the original technical error when users report ERR000.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// Domain messages, matched by identity before any pattern.
var (
	msgNoParser = UserMessage{
		Message: "Unsupported data format",
		Action:  "Send CSV or JSON (text/csv, application/json, .csv or .json)",
		Code:    "EMP001",
	}
	msgParseFailed = UserMessage{
		Message: "The payload could not be parsed",
		Action:  "Check the data format and try again",
		Code:    "EMP002",
	}
	msgNoValidData = UserMessage{
		Message: "No valid employee data found",
		Action:  "Check the required fields (name, email, tel)",
		Code:    "EMP003",
	}
	msgValidation = UserMessage{
		Message: "Employee data failed validation",
		Action:  "Fix the listed fields and resubmit",
		Code:    "EMP004",
	}
	msgNotFound = UserMessage{
		Message: "No employee with that name",
		Action:  "Check the spelling of the name",
		Code:    "EMP005",
	}
	msgDuplicateAfterUpdate = UserMessage{
		Message: "Another employee already has these details",
		Action:  "Change at least one of name, email, tel or joined",
		Code:    "EMP006",
	}
	msgStorage = UserMessage{
		Message: "Data could not be saved",
		Action:  "Please try again or contact support",
		Code:    "EMP007",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first matching pattern wins, so more specific patterns come first.
var errorPatterns = []errorPattern{
	{"duplicate key", UserMessage{"A record with this key already exists", "Review your data for duplicates", "DB001"}},
	{"unique constraint", UserMessage{"This value must be unique but already exists", "Check for duplicate entries", "DB002"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Review your data for duplicate key values", "DB002"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"database is locked", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},

	{"file too large", UserMessage{"Payload exceeds the maximum size limit", "Split the file into smaller chunks", "FILE001"}},
	{"request body too large", UserMessage{"Payload exceeds the maximum size limit", "Split the file into smaller chunks", "FILE001"}},
	{"encoding error", UserMessage{"Payload contains invalid characters", "Save the file as UTF-8", "FILE003"}},
	{"no file provided", UserMessage{"No file was attached", "Attach a CSV or JSON file in the 'file' field", "FILE004"}},
	{"empty file", UserMessage{"The payload is empty", "Send at least one employee row", "FILE005"}},

	{"too many concurrent ingests", UserMessage{"System is busy processing other uploads", "Please wait a moment and try again", "UPL002"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "UPL004"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller payload or check your connection", "UPL005"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller payload or try again later", "DB006"}},

	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
//
// Example:
//
//	msg := MapError(fmt.Errorf("lookup: %w", ErrNotFound))
//	// msg.Code == "EMP005"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		parseErr   *ParseError
		validErr   *ValidationError
		storageErr *StorageError
	)
	switch {
	case errors.Is(err, ErrNoParserFound):
		return msgNoParser
	case errors.As(err, &parseErr):
		return msgParseFailed
	case errors.Is(err, ErrNoValidData):
		return msgNoValidData
	case errors.As(err, &validErr):
		return msgValidation
	case errors.Is(err, ErrNotFound):
		return msgNotFound
	case errors.Is(err, ErrDuplicateAfterUpdate):
		return msgDuplicateAfterUpdate
	case errors.Is(err, ErrTooManyIngests):
		return matchPattern(err.Error())
	case errors.As(err, &storageErr):
		// Connection-level causes keep their more specific code.
		if msg := matchPattern(storageErr.Err.Error()); msg.Code != defaultMessage.Code {
			return msg
		}
		return msgStorage
	}

	return matchPattern(err.Error())
}

func matchPattern(text string) UserMessage {
	text = strings.ToLower(text)
	for _, ep := range errorPatterns {
		if strings.Contains(text, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
