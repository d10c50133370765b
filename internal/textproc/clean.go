package textproc

import (
	"regexp"
	"strings"
	"unicode"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// CleanText collapses whitespace runs (including newlines and tabs)
// into single spaces, trims the ends, and strips characters that are
// not printable. CleanText(CleanText(s)) == CleanText(s).
func CleanText(s string) string {
	s = whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, s)
	// Stripping a control rune can leave a doubled space behind; a
	// second collapse keeps the function idempotent.
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}
