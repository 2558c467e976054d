package core

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
)

// Parser turns a raw payload into records.
type Parser interface {
	// Name identifies the format, e.g. "csv".
	Name() string
	// Classify reports whether the parser handles the declared content type
	// or file extension. Both may be empty.
	Classify(contentType, ext string) bool
	// Extract parses content. Bad rows are skipped and reported in the Batch;
	// only a payload that fails as a whole returns an error.
	Extract(content string) (Batch, error)
}

// Batch is the output of a parser.
type Batch struct {
	Records []Record
	Skipped []RowIssue
}

// RowIssue describes a row a parser dropped. Line is 1-based for CSV and the
// array index for JSON.
type RowIssue struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

var (
	parsers   []Parser
	parsersMu sync.RWMutex
)

// RegisterParser appends p to the global registry.
// Panics if a parser with the same name is already registered.
func RegisterParser(p Parser) {
	parsersMu.Lock()
	defer parsersMu.Unlock()

	for _, existing := range parsers {
		if existing.Name() == p.Name() {
			panic(fmt.Sprintf("parser already registered: %s", p.Name()))
		}
	}
	parsers = append(parsers, p)
}

// Parsers returns the registered parsers in registration order.
func Parsers() []Parser {
	parsersMu.RLock()
	defer parsersMu.RUnlock()

	out := make([]Parser, len(parsers))
	copy(out, parsers)
	return out
}

// Sniffed content types.
const (
	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv"
)

// Dispatcher selects a parser for a payload.
type Dispatcher struct {
	parsers []Parser
}

// NewDispatcher builds a dispatcher over ps, tried in order. With no
// arguments it uses the global registry.
func NewDispatcher(ps ...Parser) *Dispatcher {
	if len(ps) == 0 {
		ps = Parsers()
	}
	return &Dispatcher{parsers: ps}
}

// Select returns the first parser that claims the declared metadata. If none
// does, the content is sniffed and selection runs again on the inferred type.
func (d *Dispatcher) Select(content, contentType, ext string) (Parser, error) {
	if p := d.match(contentType, ext); p != nil {
		return p, nil
	}
	if p := d.match(Sniff(content), ""); p != nil {
		return p, nil
	}
	return nil, ErrNoParserFound
}

func (d *Dispatcher) match(contentType, ext string) Parser {
	for _, p := range d.parsers {
		if p.Classify(contentType, ext) {
			return p
		}
	}
	return nil
}

// Sniff infers a content type from the first non-space character:
// '[' or '{' means JSON, anything else CSV.
func Sniff(content string) string {
	trimmed := strings.TrimLeftFunc(content, unicode.IsSpace)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		return ContentTypeJSON
	}
	return ContentTypeCSV
}

// Parse selects a parser and runs it. A panicking parser is reported as a
// ParseError for the whole payload.
func (d *Dispatcher) Parse(content, contentType, ext string) (p Parser, b Batch, err error) {
	p, err = d.Select(content, contentType, ext)
	if err != nil {
		return nil, Batch{}, err
	}

	defer func() {
		if r := recover(); r != nil {
			b = Batch{}
			err = &ParseError{Format: p.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	b, err = p.Extract(content)
	return p, b, err
}
