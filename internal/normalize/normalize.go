// Package normalize canonicalizes free-text names and team labels so the
// matching engine compares like with like.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	multiSpace  = regexp.MustCompile(`\s{2,}`)
)

// stripMarks decomposes to NFD, drops combining marks, recomposes to NFC.
// "José" and "Jose" normalize to the same string.
var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Name canonicalizes a single name or team label: lowercase, diacritics
// stripped, punctuation removed, whitespace collapsed.
func Name(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	n := strings.ToLower(strings.TrimSpace(folded))
	n = punctuation.ReplaceAllString(n, "")
	n = multiSpace.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// FullName canonicalizes and joins name parts, skipping empty ones.
func FullName(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if n := Name(p); n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, " ")
}
