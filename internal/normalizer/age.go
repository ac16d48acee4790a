package normalizer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dzieciakowo/ingest/internal/models"
)

// FullChildRange is the fallback when the text carries no age signal and the
// caller supplies no source-informed default.
var FullChildRange = models.AgeRange{Min: models.AgeDomainMin, Max: models.AgeDomainMax}

var (
	ageSpanRe = regexp.MustCompile(`(?i)(\d{1,2})\s*[-–]\s*(\d{1,2})\s*(?:lat|lata|roku|r\.?\s*ż)`)
	ageFromRe = regexp.MustCompile(`(?i)\bod\s+(\d{1,2})\s*(?:lat|lata|roku|r\.?\s*ż)`)
	ageUpToRe = regexp.MustCompile(`(?i)\bdo\s+(\d{1,2})\s*(?:lat|lata|roku|r\.?\s*ż)`)
	agePlusRe = regexp.MustCompile(`(\d{1,2})\s*\+`)
)

// ageBucket maps a semantic keyword stem to a fixed range. Stems instead of
// full words cover Polish inflection (przedszkolak, przedszkolaki,
// przedszkolaków...).
type ageBucket struct {
	stem string
	rng  models.AgeRange
}

// Ordered: first stem found in the text wins.
var ageBuckets = []ageBucket{
	{"niemowl", models.AgeRange{Min: 0, Max: 1}},
	{"maluch", models.AgeRange{Min: 1, Max: 3}},
	{"maluszk", models.AgeRange{Min: 1, Max: 3}},
	{"żłobk", models.AgeRange{Min: 1, Max: 3}},
	{"przedszkol", models.AgeRange{Min: 3, Max: 6}},
	{"wczesnoszkoln", models.AgeRange{Min: 6, Max: 9}},
	{"szkoln", models.AgeRange{Min: 7, Max: 12}},
	{"uczni", models.AgeRange{Min: 7, Max: 12}},
	{"nastolat", models.AgeRange{Min: 13, Max: 18}},
	{"młodzie", models.AgeRange{Min: 13, Max: 18}},
	{"rodzin", models.AgeRange{Min: 0, Max: 18}},
}

// ExtractAgeRange finds the age span an event targets. Numeric patterns
// outrank keyword buckets; def overrides the built-in [0,18] fallback.
func ExtractAgeRange(text string, def *models.AgeRange) models.AgeRange {
	fallback := FullChildRange
	if def != nil && def.Valid() {
		fallback = *def
	}

	if m := ageSpanRe.FindStringSubmatch(text); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		if lo <= hi {
			return clampAge(models.AgeRange{Min: lo, Max: hi})
		}
	}
	if m := ageFromRe.FindStringSubmatch(text); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi := fallback.Max
		if hi < lo {
			hi = models.AgeDomainMax
		}
		return clampAge(models.AgeRange{Min: lo, Max: hi})
	}
	if m := ageUpToRe.FindStringSubmatch(text); m != nil {
		hi, _ := strconv.Atoi(m[1])
		lo := fallback.Min
		if lo > hi {
			lo = models.AgeDomainMin
		}
		return clampAge(models.AgeRange{Min: lo, Max: hi})
	}
	if m := agePlusRe.FindStringSubmatch(text); m != nil {
		lo, _ := strconv.Atoi(m[1])
		if lo <= models.AgeDomainMax {
			return clampAge(models.AgeRange{Min: lo, Max: models.AgeDomainMax})
		}
	}

	lower := strings.ToLower(text)
	for _, b := range ageBuckets {
		if strings.Contains(lower, b.stem) {
			return b.rng
		}
	}

	return fallback
}

func clampAge(r models.AgeRange) models.AgeRange {
	if r.Min < models.AgeDomainMin {
		r.Min = models.AgeDomainMin
	}
	if r.Max > models.AgeDomainMax {
		r.Max = models.AgeDomainMax
	}
	if r.Min > r.Max {
		r.Min = r.Max
	}
	return r
}
