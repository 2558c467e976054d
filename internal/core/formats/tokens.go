package formats

import (
	"strings"

	"github.com/JonMunkholm/roster/internal/core"
)

// tokenRule tags a token when match returns true and assign stores it
// unless the record already holds a value of that kind.
type tokenRule struct {
	kind   string
	match  func(tok string) bool
	assign func(r *core.Record, tok string)
}

// tokenRules are tried in order; a token takes the first kind that matches
// and is not offered to later rules. The first token of each kind wins.
var tokenRules = []tokenRule{
	{
		kind:  "email",
		match: func(tok string) bool { return strings.Contains(tok, "@") },
		assign: func(r *core.Record, tok string) {
			if r.Email == "" {
				r.Email = tok
			}
		},
	},
	{
		kind: "joined",
		match: func(tok string) bool {
			_, ok := core.ParseDate(tok)
			return ok
		},
		assign: func(r *core.Record, tok string) {
			if r.Joined.IsZero() {
				r.Joined, _ = core.ParseDate(tok)
			}
		},
	},
	{
		kind:  "phone",
		match: isPhoneToken,
		assign: func(r *core.Record, tok string) {
			if r.Phone == "" {
				r.Phone = tok
			}
		},
	},
}

func classifyTokens(r *core.Record, tokens []string) {
	for _, tok := range tokens {
		for _, rule := range tokenRules {
			if rule.match(tok) {
				rule.assign(r, tok)
				break
			}
		}
	}
}

// isPhoneToken accepts digits, '-' and '+' with at least one digit.
func isPhoneToken(tok string) bool {
	digits := 0
	for _, c := range tok {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '-' || c == '+':
		default:
			return false
		}
	}
	return digits > 0
}
