package core

// payload.go normalises raw ingest bodies before they reach a parser.
//
// Spreadsheet exports often carry a byte order mark or stray bytes that are
// not valid UTF-8. ReadPayload strips the BOM (UTF-8, or UTF-16 which it
// transcodes) and replaces invalid sequences with U+FFFD while reading, so
// parsers only ever see clean text.

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultMaxPayloadSize is used when ReadPayload gets a non-positive limit.
const DefaultMaxPayloadSize int64 = 10 << 20

// ErrPayloadTooLarge is returned when the body exceeds the configured limit.
var ErrPayloadTooLarge = errors.New("file too large")

// ReadPayload reads at most maxBytes from r and returns it as sanitized text.
func ReadPayload(r io.Reader, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPayloadSize
	}

	limited := io.LimitReader(r, maxBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return "", fmt.Errorf("read payload: %w", err)
	}
	if int64(len(raw)) > maxBytes {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrPayloadTooLarge, maxBytes)
	}

	return SanitizeText(raw)
}

// SanitizeText strips a leading BOM and repairs invalid UTF-8.
func SanitizeText(raw []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, raw)
	if err != nil {
		return "", fmt.Errorf("encoding error: %w", err)
	}
	return string(out), nil
}

// IsBlank reports whether content holds nothing but whitespace.
func IsBlank(content string) bool {
	return strings.TrimSpace(content) == ""
}
