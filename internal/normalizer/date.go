package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateMatch is the result of parsing date text. End is set for window-style
// matches (seasons, weekends); Recurring marks weekday-based schedules that
// repeat every week.
type DateMatch struct {
	Start     time.Time
	End       *time.Time
	Recurring bool
}

var polishMonths = map[string]time.Month{
	"stycznia":     time.January,
	"styczeń":      time.January,
	"styczen":      time.January,
	"lutego":       time.February,
	"luty":         time.February,
	"marca":        time.March,
	"marzec":       time.March,
	"kwietnia":     time.April,
	"kwiecień":     time.April,
	"kwiecien":     time.April,
	"maja":         time.May,
	"maj":          time.May,
	"czerwca":      time.June,
	"czerwiec":     time.June,
	"lipca":        time.July,
	"lipiec":       time.July,
	"sierpnia":     time.August,
	"sierpień":     time.August,
	"sierpien":     time.August,
	"września":     time.September,
	"wrzesnia":     time.September,
	"wrzesień":     time.September,
	"października": time.October,
	"pazdziernika": time.October,
	"październik":  time.October,
	"listopada":    time.November,
	"listopad":     time.November,
	"grudnia":      time.December,
	"grudzień":     time.December,
	"grudzien":     time.December,
}

// Weekday stems cover Polish inflection ("w soboty", "każdą sobotę").
var polishWeekdays = []struct {
	stem string
	day  time.Weekday
}{
	{"poniedział", time.Monday},
	{"poniedzial", time.Monday},
	{"wtor", time.Tuesday},
	{"środ", time.Wednesday},
	{"srod", time.Wednesday},
	{"czwart", time.Thursday},
	{"piąt", time.Friday},
	{"piat", time.Friday},
	{"sobot", time.Saturday},
	{"niedziel", time.Sunday},
}

var (
	isoDateRe    = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	dottedDateRe = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`)
	monthDateRe  = regexp.MustCompile(`(?i)(\d{1,2})\s+(\p{L}+)(?:\s+(\d{4}))?`)
	// "godz. 17.30" and bare "17:30"; a dot form alone would collide with
	// dotted dates, so it requires the godz prefix.
	godzClockRe = regexp.MustCompile(`(?i)godz\.?\s*(\d{1,2})[:.](\d{2})`)
	bareClockRe = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
)

// ParseDate extracts a start date (and sometimes an end date) from text,
// trying pattern families in priority order. Returns nil when nothing
// matches; callers apply their own default.
func ParseDate(text string, base time.Time) *DateMatch {
	lower := strings.ToLower(text)

	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if validYMD(year, month, day) {
			return &DateMatch{Start: withClock(text, dateAt(year, time.Month(month), day, base.Location()))}
		}
	}

	if m := dottedDateRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if validYMD(year, month, day) {
			return &DateMatch{Start: withClock(text, dateAt(year, time.Month(month), day, base.Location()))}
		}
	}

	if d := parseMonthName(text, base); d != nil {
		return d
	}

	for _, wd := range polishWeekdays {
		if strings.Contains(lower, wd.stem) {
			return &DateMatch{Start: withClock(text, nextWeekday(base, wd.day)), Recurring: true}
		}
	}

	switch {
	case strings.Contains(lower, "pojutrze"):
		return &DateMatch{Start: withClock(text, startOfDay(base).AddDate(0, 0, 2))}
	case strings.Contains(lower, "jutro"):
		return &DateMatch{Start: withClock(text, startOfDay(base).AddDate(0, 0, 1))}
	case strings.Contains(lower, "dzisiaj"), strings.Contains(lower, "dziś"):
		return &DateMatch{Start: withClock(text, startOfDay(base))}
	}

	if d := parseSeason(lower, base); d != nil {
		return d
	}

	return nil
}

func parseMonthName(text string, base time.Time) *DateMatch {
	for _, m := range monthDateRe.FindAllStringSubmatch(text, -1) {
		month, ok := polishMonths[strings.ToLower(m[2])]
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		if day < 1 || day > 31 {
			continue
		}
		year := base.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		d := dateAt(year, month, day, base.Location())
		// a yearless date already behind us means next year
		if m[3] == "" && d.Before(startOfDay(base)) {
			d = d.AddDate(1, 0, 0)
		}
		return &DateMatch{Start: withClock(text, d)}
	}
	return nil
}

// Approximate fixed calendar windows for named Polish seasons. Ferie is
// region-dependent; a single mid-January to end-February window stands in
// for all voivodeships.
func parseSeason(lower string, base time.Time) *DateMatch {
	year := base.Year()
	switch {
	case strings.Contains(lower, "wakacje"), strings.Contains(lower, "wakacyjn"):
		start := dateAt(year, time.July, 1, base.Location())
		end := dateAt(year, time.August, 31, base.Location())
		if base.After(end) {
			start, end = start.AddDate(1, 0, 0), end.AddDate(1, 0, 0)
		}
		return &DateMatch{Start: start, End: &end}
	case strings.Contains(lower, "ferie"), strings.Contains(lower, "feryjn"):
		start := dateAt(year, time.January, 15, base.Location())
		end := dateAt(year, time.February, 28, base.Location())
		if base.After(end) {
			start, end = start.AddDate(1, 0, 0), end.AddDate(1, 0, 0)
		}
		return &DateMatch{Start: start, End: &end}
	case strings.Contains(lower, "majówk"), strings.Contains(lower, "majowk"):
		start := dateAt(year, time.May, 1, base.Location())
		end := dateAt(year, time.May, 3, base.Location())
		if base.After(end) {
			start, end = start.AddDate(1, 0, 0), end.AddDate(1, 0, 0)
		}
		return &DateMatch{Start: start, End: &end}
	case strings.Contains(lower, "weekend"):
		start := nextWeekday(base, time.Saturday)
		end := start.AddDate(0, 0, 1)
		return &DateMatch{Start: start, End: &end}
	}
	return nil
}

// nextWeekday returns the next future occurrence of day relative to base,
// never base itself.
func nextWeekday(base time.Time, day time.Weekday) time.Time {
	d := startOfDay(base)
	offset := (int(day) - int(d.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return d.AddDate(0, 0, offset)
}

func withClock(text string, d time.Time) time.Time {
	m := godzClockRe.FindStringSubmatch(text)
	if m == nil {
		m = bareClockRe.FindStringSubmatch(text)
	}
	if m == nil {
		return d
	}
	hour, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	if hour > 23 || min > 59 {
		return d
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, min, 0, 0, d.Location())
}

func dateAt(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func validYMD(year, month, day int) bool {
	return year >= 2000 && year <= 2100 && month >= 1 && month <= 12 && day >= 1 && day <= 31
}
