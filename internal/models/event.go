package models

import (
	"fmt"
	"time"
)

// PriceType classifies how an event is paid for.
type PriceType string

const (
	PriceFree     PriceType = "FREE"
	PricePaid     PriceType = "PAID"
	PriceDonation PriceType = "DONATION"
)

// Category is the closed set of event categories.
type Category string

const (
	CategoryWorkshop    Category = "WORKSHOP"
	CategoryPerformance Category = "PERFORMANCE"
	CategorySport       Category = "SPORT"
	CategoryEducation   Category = "EDUCATION"
	CategoryOther       Category = "OTHER"
)

// TrustLevel controls the lifecycle status assigned to newly created events.
// Trusted institutional sources auto-publish; everything else enters review.
type TrustLevel string

const (
	TrustInstitutional TrustLevel = "institutional"
	TrustCommunity     TrustLevel = "community"
)

// Event lifecycle statuses. Owned by the moderation layer; the pipeline only
// sets the initial value at creation time.
const (
	StatusPublished     = "published"
	StatusPendingReview = "pending_review"
)

const (
	// MaxImageURLs bounds the image list on a canonical event.
	MaxImageURLs = 5
	// MaxTags bounds the tag list on a canonical event.
	MaxTags = 10
	// AgeDomainMin and AgeDomainMax bound the children age domain.
	AgeDomainMin = 0
	AgeDomainMax = 18
)

// Price holds the price classification of an event. Amount and Currency are
// only meaningful for PAID and DONATION types.
type Price struct {
	Type     PriceType `json:"type"`
	Amount   float64   `json:"amount,omitempty"`
	Currency string    `json:"currency,omitempty"`
}

// AgeRange is the inclusive age span an event targets.
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Valid reports whether the range sits inside the children age domain.
func (a AgeRange) Valid() bool {
	return a.Min >= AgeDomainMin && a.Min <= a.Max && a.Max <= AgeDomainMax
}

// GeoPoint is an optional WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CanonicalEvent is the normalized form every source strategy produces.
// Title and StartsAt are always present; every other field carries a
// source- or normalizer-defined default before it reaches the gateway.
type CanonicalEvent struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AgeRange    AgeRange   `json:"age_range"`
	Price       Price      `json:"price"`
	Venue       string     `json:"venue"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	Location    *GeoPoint  `json:"location,omitempty"`
	Organizer   string     `json:"organizer"`
	SourceURL   string     `json:"source_url"`
	ImageURLs   []string   `json:"image_urls"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	Category    Category   `json:"category"`
	Tags        []string   `json:"tags"`
}

// Validate enforces the canonical event invariants.
func (e *CanonicalEvent) Validate() error {
	if e.Title == "" {
		return fmt.Errorf("canonical event missing title")
	}
	if e.StartsAt.IsZero() {
		return fmt.Errorf("canonical event %q missing start timestamp", e.Title)
	}
	if !e.AgeRange.Valid() {
		return fmt.Errorf("canonical event %q has invalid age range %d-%d", e.Title, e.AgeRange.Min, e.AgeRange.Max)
	}
	switch e.Price.Type {
	case PriceFree, PricePaid, PriceDonation:
	default:
		return fmt.Errorf("canonical event %q has invalid price type %q", e.Title, e.Price.Type)
	}
	switch e.Category {
	case CategoryWorkshop, CategoryPerformance, CategorySport, CategoryEducation, CategoryOther:
	default:
		return fmt.Errorf("canonical event %q has invalid category %q", e.Title, e.Category)
	}
	if e.EndsAt != nil && e.EndsAt.Before(e.StartsAt) {
		return fmt.Errorf("canonical event %q ends before it starts", e.Title)
	}
	return nil
}

// Clamp enforces the bounded-list invariants in place.
func (e *CanonicalEvent) Clamp() {
	if len(e.ImageURLs) > MaxImageURLs {
		e.ImageURLs = e.ImageURLs[:MaxImageURLs]
	}
	if len(e.Tags) > MaxTags {
		e.Tags = e.Tags[:MaxTags]
	}
}

// PersistedEvent is a canonical event plus storage identity and lifecycle
// metadata. Status and the interaction counters belong to the moderation and
// web layers; the pipeline writes Status once at creation and never reads or
// writes the counters.
type PersistedEvent struct {
	ID          string `json:"id"`
	Fingerprint string `json:"fingerprint"`
	Scraper     string `json:"scraper"`
	Status      string `json:"status"`
	CanonicalEvent

	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	ViewCount  int64     `json:"view_count"`
	ClickCount int64     `json:"click_count"`
}

// StatusForTrust returns the lifecycle status a freshly created event gets.
func StatusForTrust(level TrustLevel) string {
	if level == TrustInstitutional {
		return StatusPublished
	}
	return StatusPendingReview
}

// ScraperRunResult summarizes one run of one source strategy.
type ScraperRunResult struct {
	Scraper string `json:"scraper"`
	Total   int    `json:"total"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Errors  int    `json:"errors"`
	Err     error  `json:"-"`
}

// Failed reports whether the run failed at the strategy level.
func (r ScraperRunResult) Failed() bool {
	return r.Err != nil
}
