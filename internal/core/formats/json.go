package formats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/roster/internal/core"
)

// JSON parses an array of employee objects. Keys match case-insensitively;
// when a key repeats, the later value wins.
type JSON struct{}

// Name implements core.Parser.
func (JSON) Name() string { return "json" }

// Classify implements core.Parser.
func (JSON) Classify(contentType, ext string) bool {
	if strings.EqualFold(ext, ".json") {
		return true
	}
	return strings.Contains(strings.ToLower(contentType), "json")
}

// Extract implements core.Parser. Malformed JSON fails the whole payload.
func (JSON) Extract(content string) (core.Batch, error) {
	items, err := decodeItems([]byte(content))
	if err != nil {
		return core.Batch{}, &core.ParseError{Format: "json", Err: err}
	}

	var b core.Batch
	for i, item := range items {
		fields, err := objectFields(item)
		if err != nil {
			b.Skipped = append(b.Skipped, core.RowIssue{Line: i, Reason: err.Error()})
			continue
		}

		r, reason := recordFromFields(fields)
		if reason != "" {
			b.Skipped = append(b.Skipped, core.RowIssue{Line: i, Reason: reason})
			continue
		}
		b.Records = append(b.Records, r)
	}
	return b, nil
}

// decodeItems accepts a top-level array, or a lone object as a one-item array.
func decodeItems(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		var one json.RawMessage
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, err
		}
		return []json.RawMessage{one}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	return items, nil
}

type jsonField struct {
	key   string
	value json.RawMessage
}

var errNotObject = errors.New("item is not an object")

// objectFields lists an object's members in document order.
func objectFields(raw json.RawMessage) ([]jsonField, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errNotObject
	}

	var fields []jsonField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields = append(fields, jsonField{key: key, value: value})
	}
	return fields, nil
}

func recordFromFields(fields []jsonField) (core.Record, string) {
	var (
		r          core.Record
		tel, phone string
		joined     string
	)

	for _, f := range fields {
		switch strings.ToLower(f.key) {
		case "name":
			r.Name = scalarText(f.value)
		case "email":
			r.Email = scalarText(f.value)
		case "tel":
			tel = scalarText(f.value)
		case "phone":
			phone = scalarText(f.value)
		case "joined":
			joined = scalarText(f.value)
		default:
			if core.IsFixedName(f.key) {
				continue
			}
			// null is kept as the literal text "null", like numbers and
			// bools, so an explicit null stays distinct from an empty string.
			if v, ok := leafText(f.value); ok {
				r.Extra.Set(f.key, v)
			}
		}
	}

	if r.Name == "" || r.Email == "" {
		return core.Record{}, "missing " + missingNameEmail(r)
	}
	r.Phone = tel
	if r.Phone == "" {
		r.Phone = phone
	}
	r.Joined, _ = core.ParseDate(joined)
	return r, ""
}

func missingNameEmail(r core.Record) string {
	switch {
	case r.Name == "" && r.Email == "":
		return "name, email"
	case r.Name == "":
		return "name"
	}
	return "email"
}

// scalarText reads a fixed field: strings are unquoted, numbers kept as
// written, anything else is treated as absent.
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(raw)
	}
	return ""
}

// leafText renders an extra value. Nested objects and arrays are not leaves.
func leafText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '{', '[':
		return "", false
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	}
	return string(raw), true
}
