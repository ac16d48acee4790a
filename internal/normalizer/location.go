package normalizer

import (
	"regexp"
	"strings"
)

// Ordered alternatives: explicit labels first, then locative prepositions.
// First match wins.
var locationRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:miejsce|adres|lokalizacja)\s*:\s*([^\n;,]+)`),
	regexp.MustCompile(`(?i)\b(?:przy|na)\s+(ul\.\s*[\p{L}\d][^\n;,]*)`),
	// capitalization is the signal here, so no (?i)
	regexp.MustCompile(`\b(?:[Ww]e?)\s+((?:[A-ZĄĆĘŁŃÓŚŹŻ][\p{L}\d.-]*)(?:\s+[A-ZĄĆĘŁŃÓŚŹŻ\d][\p{L}\d.-]*)*)`),
}

// ExtractLocation returns the first venue/address phrase found in the text,
// or "" when nothing matches.
func ExtractLocation(text string) string {
	for _, re := range locationRes {
		if m := re.FindStringSubmatch(text); m != nil {
			loc := strings.TrimRight(strings.TrimSpace(m[1]), ".")
			loc = strings.TrimSpace(loc)
			if loc != "" {
				return loc
			}
		}
	}
	return ""
}
