package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/dzieciakowo/ingest/internal/models"
	"github.com/dzieciakowo/ingest/internal/scraper"
)

// Theater scrapes the children's theater repertoire page. Ambiguous text
// from a theater is a performance until proven otherwise, so its category
// table is ordered differently than the library's.
type Theater struct {
	fetcher scraper.Fetcher
	builder scraper.Builder
	urls    []string
}

// NewTheater creates the theater strategy.
func NewTheater(fetcher scraper.Fetcher, urls ...string) *Theater {
	if len(urls) == 0 {
		urls = []string{
			"https://teatr-bajka.dzieciakowo.pl/repertuar",
			"https://teatr-bajka.dzieciakowo.pl/repertuar/lista",
		}
	}
	age := models.AgeRange{Min: 3, Max: 10}
	return &Theater{
		fetcher: fetcher,
		urls:    urls,
		builder: scraper.Builder{
			DefaultCategory: models.CategoryPerformance,
			CategoryRules: []scraper.CategoryRule{
				{Stem: "warsztat", Category: models.CategoryWorkshop},
				{Stem: "za kulisami", Category: models.CategoryEducation},
				{Stem: "lekcja teatralna", Category: models.CategoryEducation},
				{Stem: "spektakl", Category: models.CategoryPerformance},
				{Stem: "premiera", Category: models.CategoryPerformance},
			},
			DefaultAge:   &age,
			DefaultVenue: "Teatr Bajka",
			City:         "Dzieciakowo",
			Organizer:    "Teatr Bajka",
		},
	}
}

func (t *Theater) Name() string { return "teatr-bajka" }

func (t *Theater) TrustLevel() models.TrustLevel { return models.TrustInstitutional }

var theaterSelectorSets = []selectorSet{
	{item: ".repertoire-item", title: ".show-title", desc: ".show-summary", date: ".show-date", image: "img.poster"},
	{item: "div.spektakl", title: "h2", desc: ".opis", date: ".data", image: "img"},
	{item: "article", title: "h2, h3", desc: "p", date: "time", image: "img"},
}

// ScrapeEvents fetches the repertoire and extracts shows with the first
// selector set that yields anything.
func (t *Theater) ScrapeEvents(ctx context.Context) ([]models.CanonicalEvent, error) {
	var lastErr error
	reached := false

	for _, url := range t.urls {
		body, err := t.fetcher.Get(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}
		reached = true

		items := extractWithSelectors(body, url, theaterSelectorSets)
		if len(items) == 0 {
			continue
		}
		return t.builder.Build(items), nil
	}

	if !reached && lastErr != nil {
		return nil, fmt.Errorf("theater source: %w", lastErr)
	}
	return nil, nil
}

// FallbackEvents describes the theater's standing weekend matinee.
func (t *Theater) FallbackEvents(now time.Time) []models.CanonicalEvent {
	return []models.CanonicalEvent{
		{
			Title:       "Niedzielny poranek teatralny",
			Description: "Cykliczny spektakl familijny na dużej scenie, repertuar ogłaszany na miejscu.",
			AgeRange:    models.AgeRange{Min: 3, Max: 10},
			Price:       models.Price{Type: models.PricePaid, Amount: 25, Currency: "PLN"},
			Venue:       "Teatr Bajka",
			City:        "Dzieciakowo",
			Organizer:   "Teatr Bajka",
			SourceURL:   t.urls[0],
			StartsAt:    nextSunday(now),
			Category:    models.CategoryPerformance,
			Tags:        []string{"teatr", "rodzinne"},
		},
	}
}

func nextSunday(now time.Time) time.Time {
	d := time.Date(now.Year(), now.Month(), now.Day(), 11, 0, 0, 0, now.Location())
	offset := (int(time.Sunday) - int(d.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return d.AddDate(0, 0, offset)
}
