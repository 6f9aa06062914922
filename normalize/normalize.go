// Package normalize provides the text normalization shared by the link
// classifier and the date grammar.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Whitespace collapses runs of whitespace into single spaces and trims the
// ends.
func Whitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold returns a case-folded, accent-stripped, whitespace-collapsed key
// suitable for case-insensitive comparisons ("Março " -> "marco").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return Whitespace(cases.Fold().String(stripped))
}

// ContainsFold reports whether substr occurs in s, ignoring case and accents.
func ContainsFold(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}
