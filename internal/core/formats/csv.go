package formats

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/roster/internal/core"
)

// CSV parses loosely structured comma-separated employee lists.
//
// Cells are split on every comma; quoting is not interpreted. A file whose
// first line names any known column is read positionally against that header.
// Anything else goes through the heuristic tokenizer.
type CSV struct{}

// Name implements core.Parser.
func (CSV) Name() string { return "csv" }

// Classify implements core.Parser.
func (CSV) Classify(contentType, ext string) bool {
	if strings.EqualFold(ext, ".csv") {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "csv") || strings.Contains(ct, "text/plain")
}

type csvLine struct {
	num  int
	text string
}

// Extract implements core.Parser. It never fails as a whole; malformed rows
// are dropped and listed in Batch.Skipped.
func (CSV) Extract(content string) (core.Batch, error) {
	var lines []csvLine
	for i, raw := range strings.Split(content, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		lines = append(lines, csvLine{num: i + 1, text: text})
	}
	if len(lines) == 0 {
		return core.Batch{}, nil
	}

	header := splitCells(lines[0].text)
	if isHeader(header) {
		return extractWithHeader(header, lines[1:]), nil
	}
	return extractHeuristic(lines), nil
}

func splitCells(line string) []string {
	cells := strings.Split(line, ",")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// column targets for a header cell.
const (
	colExtra = iota
	colName
	colEmail
	colPhone
	colJoined
)

func headerKind(cell string) int {
	switch strings.ToLower(cell) {
	case "name":
		return colName
	case "email":
		return colEmail
	case "tel", "phone":
		return colPhone
	case "joined":
		return colJoined
	}
	return colExtra
}

func isHeader(cells []string) bool {
	for _, c := range cells {
		if headerKind(c) != colExtra {
			return true
		}
	}
	return false
}

func extractWithHeader(header []string, lines []csvLine) core.Batch {
	var b core.Batch

	for _, line := range lines {
		values := splitCells(line.text)
		if nonEmpty(values) < 2 {
			b.Skipped = append(b.Skipped, core.RowIssue{Line: line.num, Reason: "fewer than two values"})
			continue
		}

		var r core.Record
		for j := 0; j < len(header) && j < len(values); j++ {
			v := values[j]
			if v == "" {
				continue
			}
			switch headerKind(header[j]) {
			case colName:
				r.Name = v
			case colEmail:
				r.Email = v
			case colPhone:
				r.Phone = v
			case colJoined:
				r.Joined, _ = core.ParseDate(v)
			default:
				if header[j] != "" && !core.IsFixedName(header[j]) {
					r.Extra.Set(header[j], v)
				}
			}
		}

		if missing := missingFields(r); missing != "" {
			b.Skipped = append(b.Skipped, core.RowIssue{Line: line.num, Reason: "missing " + missing})
			continue
		}
		b.Records = append(b.Records, r)
	}
	return b
}

func nonEmpty(values []string) int {
	n := 0
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return n
}

func missingFields(r core.Record) string {
	var missing []string
	if r.Name == "" {
		missing = append(missing, "name")
	}
	if r.Email == "" {
		missing = append(missing, "email")
	}
	if r.Phone == "" {
		missing = append(missing, "tel")
	}
	return strings.Join(missing, ", ")
}

func extractHeuristic(lines []csvLine) core.Batch {
	var b core.Batch

	for _, line := range lines {
		var parts []string
		for _, p := range splitCells(line.text) {
			if p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) < 2 {
			b.Skipped = append(b.Skipped, core.RowIssue{Line: line.num, Reason: "fewer than two values"})
			continue
		}

		r := core.Record{Name: parts[0]}
		var tokens []string
		for _, p := range parts[1:] {
			tokens = append(tokens, strings.Fields(p)...)
		}
		classifyTokens(&r, tokens)

		if r.Email == "" || r.Phone == "" {
			b.Skipped = append(b.Skipped, core.RowIssue{
				Line:   line.num,
				Reason: fmt.Sprintf("could not find %s", missingFields(r)),
			})
			continue
		}
		b.Records = append(b.Records, r)
	}
	return b
}
