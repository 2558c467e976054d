// Package formats holds the payload parsers. Importing it registers CSV and
// JSON with the core parser registry, in that order.
package formats

import "github.com/JonMunkholm/roster/internal/core"

func init() {
	core.RegisterParser(CSV{})
	core.RegisterParser(JSON{})
}
