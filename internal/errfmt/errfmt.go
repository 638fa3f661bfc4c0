// Package errfmt caps diagnostic text carried inside errors.
package errfmt

import (
	"strconv"
	"unicode/utf8"
)

// MaxLen caps raw diagnostic text rendered into an error message.
const MaxLen = 4096

// truncateUTF8 caps s at limit bytes, backtracking to a valid UTF-8 boundary.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	end := limit
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end]
}

// Truncate caps a string at MaxLen bytes with UTF-8-safe truncation.
func Truncate(s string) string {
	return truncateUTF8(s, MaxLen)
}

// Snippet returns s capped at MaxLen bytes, with an ellipsis marker and the
// omitted byte count appended when anything was cut.
func Snippet(s string) string {
	t := truncateUTF8(s, MaxLen)
	if len(t) == len(s) {
		return s
	}
	return t + "... (" + strconv.Itoa(len(s)-len(t)) + " more bytes)"
}
