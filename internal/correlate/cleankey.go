package correlate

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes accented letters and drops the combining marks, so
// "Saint-Étienne" and "saint etienne" end up byte-identical.
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// CleanKey standardizes a name for cross-bookmaker comparison: lowercase,
// hyphens to spaces, accents folded, everything but [a-z0-9 ] dropped,
// whitespace collapsed.
func CleanKey(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "-", " ")
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// TeamKey is the comparison string for one fixture record.
func TeamKey(homeName, awayName string) string {
	return CleanKey(homeName) + " - " + CleanKey(awayName)
}
