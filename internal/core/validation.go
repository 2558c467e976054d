package core

// validation.go holds the record validation contract and the default rules.
//
// The service only consumes pass/fail plus (field, message) pairs. Rules live
// behind the Validator interface so callers can swap them without touching
// the ingest path.

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Validator checks a single record. An empty result means the record is valid.
type Validator interface {
	Validate(r Record) []FieldViolation
}

// ValidatorFunc adapts a plain function to Validator.
type ValidatorFunc func(r Record) []FieldViolation

// Validate calls f(r).
func (f ValidatorFunc) Validate(r Record) []FieldViolation { return f(r) }

// MaxNameLength is the longest accepted name, in runes.
const MaxNameLength = 100

var mobilePattern = regexp.MustCompile(`^(01[016789])-?\d{3,4}-?\d{4}$`)

// DefaultValidator applies the stock contact rules.
type DefaultValidator struct {
	// Now returns the current time; nil means time.Now.
	Now func() time.Time
}

// Validate implements Validator.
func (v DefaultValidator) Validate(r Record) []FieldViolation {
	var out []FieldViolation

	switch {
	case strings.TrimSpace(r.Name) == "":
		out = append(out, FieldViolation{"Name", "name is required"})
	case utf8.RuneCountInString(r.Name) > MaxNameLength:
		out = append(out, FieldViolation{"Name", fmt.Sprintf("name cannot exceed %d characters", MaxNameLength)})
	}

	switch {
	case strings.TrimSpace(r.Email) == "":
		out = append(out, FieldViolation{"Email", "email is required"})
	case !looksLikeEmail(r.Email):
		out = append(out, FieldViolation{"Email", fmt.Sprintf("invalid email format: '%s'", r.Email)})
	}

	switch {
	case strings.TrimSpace(r.Phone) == "":
		out = append(out, FieldViolation{"Tel", "tel is required"})
	case !mobilePattern.MatchString(r.Phone):
		out = append(out, FieldViolation{"Tel", fmt.Sprintf("invalid tel format: '%s' (e.g. 01012345678, 010-1234-5678)", r.Phone)})
	}

	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	y, m, d := now().Date()
	latest := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	switch {
	case r.Joined.IsZero():
		out = append(out, FieldViolation{"Joined", "joined date is missing or invalid"})
	case r.Joined.After(latest):
		out = append(out, FieldViolation{"Joined", "joined date cannot be in the future"})
	}

	return out
}

// looksLikeEmail accepts exactly one '@' with text on both sides.
func looksLikeEmail(s string) bool {
	at := strings.IndexByte(s, '@')
	return at > 0 && at < len(s)-1 && strings.Count(s, "@") == 1
}

// ValidateBatch runs v over records and splits them into the valid subset
// and the violations of the rest, indexed by batch position.
func ValidateBatch(v Validator, records []Record) ([]Record, []IndexedViolation) {
	valid := make([]Record, 0, len(records))
	var violations []IndexedViolation
	for i, r := range records {
		fv := v.Validate(r)
		if len(fv) == 0 {
			valid = append(valid, r)
			continue
		}
		for _, f := range fv {
			violations = append(violations, IndexedViolation{Index: i, FieldViolation: f})
		}
	}
	return valid, violations
}
