package core

import (
	"errors"
	"strings"
	"testing"
)

// stubParser claims a content type substring or an extension.
type stubParser struct {
	name  string
	ctSub string
	ext   string
	batch Batch
	err   error
	panic bool
}

func (p stubParser) Name() string { return p.name }

func (p stubParser) Classify(contentType, ext string) bool {
	return strings.EqualFold(ext, p.ext) || (contentType != "" && strings.Contains(strings.ToLower(contentType), p.ctSub))
}

func (p stubParser) Extract(string) (Batch, error) {
	if p.panic {
		panic("boom")
	}
	return p.batch, p.err
}

func TestDispatcher_Select(t *testing.T) {
	csvP := stubParser{name: "csv", ctSub: "csv", ext: ".csv"}
	jsonP := stubParser{name: "json", ctSub: "json", ext: ".json"}
	d := NewDispatcher(csvP, jsonP)

	tests := []struct {
		name        string
		content     string
		contentType string
		ext         string
		want        string
	}{
		{"declared csv ext", `[{"a":1}]`, "", ".csv", "csv"},
		{"declared json type", "a,b", "application/json; charset=utf-8", "", "json"},
		{"sniff array", "  \n[{}]", "", "", "json"},
		{"sniff object", "{}", "application/octet-stream", ".bin", "json"},
		{"sniff fallback csv", "name,email", "", "", "csv"},
		{"empty content sniffs csv", "", "", "", "csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := d.Select(tt.content, tt.contentType, tt.ext)
			if err != nil {
				t.Fatalf("Select: %v", err)
			}
			if p.Name() != tt.want {
				t.Errorf("Select = %s, want %s", p.Name(), tt.want)
			}
		})
	}
}

func TestDispatcher_NoParserFound(t *testing.T) {
	d := NewDispatcher(stubParser{name: "json", ctSub: "json", ext: ".json"})
	_, err := d.Select("a,b,c", "", "")
	if !errors.Is(err, ErrNoParserFound) {
		t.Fatalf("err = %v, want ErrNoParserFound", err)
	}
}

func TestDispatcher_ParseRecoversPanic(t *testing.T) {
	d := NewDispatcher(stubParser{name: "csv", ctSub: "csv", ext: ".csv", panic: true})
	_, _, err := d.Parse("x", "text/csv", "")

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
	if pe.Format != "csv" {
		t.Errorf("Format = %q, want csv", pe.Format)
	}
}

func TestSniff(t *testing.T) {
	if got := Sniff("\ufeff[1]"); got != ContentTypeCSV {
		t.Errorf("BOM is not whitespace, Sniff = %s", got)
	}
	if got := Sniff("\t{\"a\":1}"); got != ContentTypeJSON {
		t.Errorf("Sniff object = %s", got)
	}
}

func TestRegisterParser_DuplicatePanics(t *testing.T) {
	parsersMu.Lock()
	saved := parsers
	parsers = nil
	parsersMu.Unlock()
	t.Cleanup(func() {
		parsersMu.Lock()
		parsers = saved
		parsersMu.Unlock()
	})

	RegisterParser(stubParser{name: "x"})
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	RegisterParser(stubParser{name: "x"})
}
