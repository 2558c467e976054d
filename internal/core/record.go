package core

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the canonical on-disk and on-wire form of a joined date.
const DateLayout = "2006-01-02"

// ExtraField is a single attribute beyond the four fixed ones.
type ExtraField struct {
	Key   string
	Value string
}

// Extra is an ordered set of extra fields with case-insensitive keys.
// Order is first-insertion order; a later Set for an existing key replaces
// the value in place.
type Extra []ExtraField

// Get returns the value stored under key, ignoring case.
func (e Extra) Get(key string) (string, bool) {
	for _, f := range e {
		if strings.EqualFold(f.Key, key) {
			return f.Value, true
		}
	}
	return "", false
}

// Set stores value under key, replacing any case-insensitive match.
func (e *Extra) Set(key, value string) {
	for i, f := range *e {
		if strings.EqualFold(f.Key, key) {
			(*e)[i].Value = value
			return
		}
	}
	*e = append(*e, ExtraField{Key: key, Value: value})
}

// Keys returns the field keys in order.
func (e Extra) Keys() []string {
	keys := make([]string, len(e))
	for i, f := range e {
		keys[i] = f.Key
	}
	return keys
}

// Len returns the number of fields.
func (e Extra) Len() int { return len(e) }

// MarshalJSON encodes the fields as a JSON object, preserving order.
func (e Extra) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Record is one employee contact.
type Record struct {
	Name   string
	Email  string
	Phone  string
	Joined time.Time // calendar date at UTC midnight; zero when unknown
	Extra  Extra
}

// JoinedString returns the joined date in DateLayout. The zero date renders
// as "0001-01-01".
func (r Record) JoinedString() string {
	return r.Joined.Format(DateLayout)
}

// Hash returns the record's content address: lower-case hex SHA-256 over
// "name|email|phone|joined". Extra fields do not take part.
func (r Record) Hash() string {
	sum := sha256.Sum256([]byte(r.Name + "|" + r.Email + "|" + r.Phone + "|" + r.JoinedString()))
	return hex.EncodeToString(sum[:])
}

// recordJSON is the wire shape of a Record.
type recordJSON struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Tel         string `json:"tel"`
	Joined      string `json:"joined"`
	ExtraFields Extra  `json:"extraFields"`
}

// MarshalJSON renders the record with its joined date as yyyy-MM-dd.
func (r Record) MarshalJSON() ([]byte, error) {
	extra := r.Extra
	if extra == nil {
		extra = Extra{}
	}
	return json.Marshal(recordJSON{
		Name:        r.Name,
		Email:       r.Email,
		Tel:         r.Phone,
		Joined:      r.JoinedString(),
		ExtraFields: extra,
	})
}

// fixedNames are the attribute names an extra field may never use.
var fixedNames = map[string]bool{
	"hash":   true,
	"name":   true,
	"email":  true,
	"tel":    true,
	"phone":  true,
	"joined": true,
}

// IsFixedName reports whether key names one of the fixed attributes
// (or the hash column), ignoring case.
func IsFixedName(key string) bool {
	return fixedNames[strings.ToLower(key)]
}
