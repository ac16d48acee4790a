// Package scraper defines the source strategy contract and the orchestrator
// that runs registered strategies with per-source failure isolation.
package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/dzieciakowo/ingest/internal/models"
	"github.com/dzieciakowo/ingest/internal/normalizer"
)

// Strategy is one pluggable external source. Implementations fetch raw
// content, extract items and return canonical candidate events.
// ScrapeEvents returns an error only for total unreachability; ordinary
// content and format problems degrade to fewer (or zero) events.
type Strategy interface {
	Name() string
	TrustLevel() models.TrustLevel
	ScrapeEvents(ctx context.Context) ([]models.CanonicalEvent, error)

	// FallbackEvents describes the institution's known standing offerings.
	// The orchestrator uses them when live extraction yields nothing, so a
	// temporarily broken source degrades to stale-but-present data rather
	// than silence.
	FallbackEvents(now time.Time) []models.CanonicalEvent
}

// CategoryRule maps a keyword stem to a category. Rule order is part of a
// strategy's identity: a theater biases ambiguous text toward PERFORMANCE,
// a library toward EDUCATION.
type CategoryRule struct {
	Stem     string
	Category models.Category
}

// ClassifyCategory returns the category of the first matching rule, or def.
func ClassifyCategory(text string, rules []CategoryRule, def models.Category) models.Category {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if strings.Contains(lower, r.Stem) {
			return r.Category
		}
	}
	return def
}

// RawItem is one extracted listing before normalization.
type RawItem struct {
	Title       string
	Description string
	DateText    string
	VenueText   string
	URL         string
	ImageURLs   []string
	Tags        []string
}

// Blob concatenates every extractable field for the normalizer heuristics.
func (it RawItem) Blob() string {
	parts := []string{it.Title, it.Description, it.DateText, it.VenueText}
	parts = append(parts, it.Tags...)
	return strings.Join(parts, " ")
}

// Builder turns raw items into canonical events using the text normalizer
// and a strategy's category table. It applies the minimum-title anti-noise
// filter and within-run title deduplication.
type Builder struct {
	DefaultCategory  models.Category
	CategoryRules    []CategoryRule
	DefaultAge       *models.AgeRange
	DefaultVenue     string
	City             string
	Organizer        string
	MinTitleLen      int
	DefaultStartDays int
	Now              func() time.Time
}

const defaultMinTitleLen = 5

// Build normalizes raw items into candidate events.
func (b *Builder) Build(items []RawItem) []models.CanonicalEvent {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	minTitle := b.MinTitleLen
	if minTitle == 0 {
		minTitle = defaultMinTitleLen
	}
	startDays := b.DefaultStartDays
	if startDays == 0 {
		startDays = 7
	}

	seen := make(map[string]bool, len(items))
	events := make([]models.CanonicalEvent, 0, len(items))

	for _, it := range items {
		title := normalizer.NormalizeText(it.Title)
		if len([]rune(title)) < minTitle {
			continue
		}
		key := strings.ToLower(title)
		if seen[key] {
			continue
		}
		seen[key] = true

		blob := it.Blob()
		base := now()

		venue := normalizer.NormalizeVenue(it.VenueText)
		if venue == "" {
			if loc := normalizer.ExtractLocation(blob); loc != "" {
				venue = normalizer.NormalizeVenue(loc)
			} else {
				venue = b.DefaultVenue
			}
		}

		ev := models.CanonicalEvent{
			Title:       title,
			Description: normalizer.NormalizeText(it.Description),
			AgeRange:    normalizer.ExtractAgeRange(blob, b.DefaultAge),
			Price:       normalizer.ParsePrice(blob),
			Venue:       venue,
			Address:     normalizer.ExtractLocation(blob),
			City:        b.City,
			Organizer:   b.Organizer,
			SourceURL:   it.URL,
			ImageURLs:   it.ImageURLs,
			Category:    ClassifyCategory(blob, b.CategoryRules, b.DefaultCategory),
			Tags:        it.Tags,
		}

		if d := normalizer.ParseDate(it.DateText, base); d != nil {
			ev.StartsAt = d.Start
			ev.EndsAt = d.End
		} else if d := normalizer.ParseDate(blob, base); d != nil {
			ev.StartsAt = d.Start
			ev.EndsAt = d.End
		} else {
			ev.StartsAt = base.AddDate(0, 0, startDays)
		}

		ev.Clamp()
		events = append(events, ev)
	}

	return events
}
