package core

import (
	"strings"
	"time"
)

// joinedLayouts are the only date literals accepted anywhere in the pipeline.
var joinedLayouts = []string{
	"2006-01-02",
	"2006.01.02",
	"2006/01/02",
}

// ParseDate parses s as yyyy-MM-dd, yyyy.MM.dd or yyyy/MM/dd.
// Surrounding whitespace is ignored. The result is a UTC calendar date.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range joinedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
