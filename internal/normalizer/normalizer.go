// Package normalizer extracts structured event fields from free-form Polish
// text. Every function is pure, never returns an error and falls back to a
// usable default when the text carries no signal: approximate data beats
// missing data for this domain.
package normalizer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxTextLen caps normalized text so a runaway source page cannot blow up
// stored descriptions.
const maxTextLen = 2000

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	quoteReplacer = strings.NewReplacer(
		"„", `"`, // „
		"”", `"`, // ”
		"“", `"`, // “
		"«", `"`, // «
		"»", `"`, // »
		"’", "'",
		"‘", "'",
	)
)

// NormalizeText canonicalizes whitespace and quotes, trims and caps length.
func NormalizeText(s string) string {
	s = quoteReplacer.Replace(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if len(s) > maxTextLen {
		cut := maxTextLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = strings.TrimSpace(s[:cut])
	}
	return s
}
