package store

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/JonMunkholm/roster/internal/core"
)

// Base columns in table order.
var baseColumns = []string{"hash", "name", "email", "phone", "joined"}

// MaxColumnNameLength caps extra column names.
const MaxColumnNameLength = 128

var columnNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsSafeColumnName reports whether key may become a column. Anything that
// fails is dropped from the insert and never reaches DDL.
func IsSafeColumnName(key string) bool {
	if key == "" || len(key) > MaxColumnNameLength {
		return false
	}
	if strings.IndexFunc(key, unicode.IsControl) >= 0 {
		return false
	}
	if core.IsFixedName(key) {
		return false
	}
	return columnNamePattern.MatchString(key)
}

// quoteIdent double-quotes an identifier. Only names that passed
// IsSafeColumnName or base columns are ever quoted.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// columnSet maps lower-cased column names to their stored spelling.
type columnSet map[string]string

func newColumnSet(names []string) columnSet {
	s := make(columnSet, len(names))
	for _, n := range names {
		s.add(n)
	}
	return s
}

func (s columnSet) add(name string) { s[strings.ToLower(name)] = name }

func (s columnSet) lookup(name string) (string, bool) {
	actual, ok := s[strings.ToLower(name)]
	return actual, ok
}

// missingColumns lists the distinct safe extra keys in records that s does
// not hold yet, in first-seen order. Keys differing only by case collapse.
func missingColumns(s columnSet, records []core.Record) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		for _, f := range r.Extra {
			lower := strings.ToLower(f.Key)
			if seen[lower] {
				continue
			}
			seen[lower] = true
			if !IsSafeColumnName(f.Key) {
				continue
			}
			if _, ok := s.lookup(f.Key); ok {
				continue
			}
			out = append(out, f.Key)
		}
	}
	return out
}

// rowValues returns the column list and bind values for one record. Extra
// fields are written under the stored spelling of their column; unsafe or
// unknown keys are left out.
func rowValues(s columnSet, r core.Record) ([]string, []any) {
	cols := append([]string(nil), baseColumns...)
	vals := []any{r.Hash(), r.Name, r.Email, r.Phone, r.JoinedString()}

	written := make(map[string]bool)
	for _, f := range r.Extra {
		if !IsSafeColumnName(f.Key) {
			continue
		}
		actual, ok := s.lookup(f.Key)
		if !ok || written[strings.ToLower(actual)] {
			continue
		}
		written[strings.ToLower(actual)] = true
		cols = append(cols, actual)
		vals = append(vals, f.Value)
	}
	return cols, vals
}

// recordFromColumns rebuilds a record from a row. Null extra columns are
// omitted; extras come back in table column order.
func recordFromColumns(names []string, values []*string) core.Record {
	var r core.Record
	for i, name := range names {
		v := values[i]
		switch strings.ToLower(name) {
		case "hash":
		case "name":
			r.Name = deref(v)
		case "email":
			r.Email = deref(v)
		case "phone":
			r.Phone = deref(v)
		case "joined":
			r.Joined, _ = core.ParseDate(deref(v))
		default:
			if v != nil {
				r.Extra = append(r.Extra, core.ExtraField{Key: name, Value: *v})
			}
		}
	}
	return r
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
