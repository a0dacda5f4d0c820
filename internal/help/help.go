// Package help holds the usage text shown by the calc CLI and REPL.
package help

import (
	_ "embed"
	"strings"
)

//go:embed REPL.txt
var REPL string

//go:embed SYNTAX.txt
var Syntax string

// Topic returns the help text for name, or false if there is none.
func Topic(name string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "repl", "commands":
		return REPL, true
	case "syntax", "expressions":
		return Syntax, true
	}
	return "", false
}
