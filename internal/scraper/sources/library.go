// Package sources holds the per-institution source strategies. Each strategy
// is a small, independent implementation of the scraper.Strategy contract;
// new institutions plug in by adding a file here and registering it in
// RegisterAll.
package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dzieciakowo/ingest/internal/models"
	"github.com/dzieciakowo/ingest/internal/scraper"
)

// selectorSet is one attempt at extracting listings from markup. Sets are
// tried in order until one yields items; municipal sites reshuffle their
// templates often enough that a single selector never survives long.
type selectorSet struct {
	item  string
	title string
	desc  string
	date  string
	image string
}

// Library scrapes the city library's events page. The library publishes a
// curated events calendar, so it is an institutional (auto-publish) source.
type Library struct {
	fetcher scraper.Fetcher
	builder scraper.Builder
	urls    []string
}

// NewLibrary creates the library strategy. urls lists the candidate pages in
// fallback order; when empty the production defaults apply.
func NewLibrary(fetcher scraper.Fetcher, urls ...string) *Library {
	if len(urls) == 0 {
		urls = []string{
			"https://biblioteka.dzieciakowo.pl/wydarzenia",
			"https://biblioteka.dzieciakowo.pl/wydarzenia?widok=lista",
		}
	}
	age := models.AgeRange{Min: 3, Max: 12}
	return &Library{
		fetcher: fetcher,
		urls:    urls,
		builder: scraper.Builder{
			DefaultCategory: models.CategoryEducation,
			CategoryRules: []scraper.CategoryRule{
				{Stem: "warsztat", Category: models.CategoryWorkshop},
				{Stem: "plastyczn", Category: models.CategoryWorkshop},
				{Stem: "spektakl", Category: models.CategoryPerformance},
				{Stem: "teatrzyk", Category: models.CategoryPerformance},
				{Stem: "koncert", Category: models.CategoryPerformance},
				{Stem: "sportow", Category: models.CategorySport},
				{Stem: "czytanie", Category: models.CategoryEducation},
				{Stem: "lekcj", Category: models.CategoryEducation},
			},
			DefaultAge:   &age,
			DefaultVenue: "Biblioteka Miejska",
			City:         "Dzieciakowo",
			Organizer:    "Biblioteka Miejska w Dzieciakowie",
		},
	}
}

func (l *Library) Name() string { return "biblioteka-miejska" }

func (l *Library) TrustLevel() models.TrustLevel { return models.TrustInstitutional }

var librarySelectorSets = []selectorSet{
	{item: "article.event-card", title: "h3", desc: ".event-excerpt", date: ".event-date", image: "img"},
	{item: ".events-list .event", title: ".event-title", desc: ".event-description", date: ".date", image: "img"},
	{item: "li.wydarzenie", title: "a", desc: "p", date: ".termin", image: "img"},
}

// ScrapeEvents fetches the candidate URLs in order and extracts listings
// with the first selector set that yields anything. It errors only when
// every URL was unreachable.
func (l *Library) ScrapeEvents(ctx context.Context) ([]models.CanonicalEvent, error) {
	var lastErr error
	reached := false

	for _, url := range l.urls {
		body, err := l.fetcher.Get(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}
		reached = true

		items := extractWithSelectors(body, url, librarySelectorSets)
		if len(items) == 0 {
			continue
		}
		return l.builder.Build(items), nil
	}

	if !reached && lastErr != nil {
		return nil, fmt.Errorf("library source: %w", lastErr)
	}
	// reachable but nothing extractable, the orchestrator falls back to
	// standing events
	return nil, nil
}

// FallbackEvents describes the library's standing weekly program.
func (l *Library) FallbackEvents(now time.Time) []models.CanonicalEvent {
	age := models.AgeRange{Min: 3, Max: 6}
	return []models.CanonicalEvent{
		{
			Title:       "Poranek z bajką w bibliotece",
			Description: "Cotygodniowe głośne czytanie dla najmłodszych w oddziale dziecięcym.",
			AgeRange:    age,
			Price:       models.Price{Type: models.PriceFree},
			Venue:       "Biblioteka Miejska",
			City:        "Dzieciakowo",
			Organizer:   "Biblioteka Miejska w Dzieciakowie",
			SourceURL:   l.urls[0],
			StartsAt:    nextSaturday(now),
			Category:    models.CategoryEducation,
			Tags:        []string{"czytanie", "bajki"},
		},
	}
}

// extractWithSelectors runs the selector sets against the document, first
// set with results wins.
func extractWithSelectors(body []byte, pageURL string, sets []selectorSet) []scraper.RawItem {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	for _, set := range sets {
		var items []scraper.RawItem
		doc.Find(set.item).Each(func(_ int, s *goquery.Selection) {
			title := strings.TrimSpace(s.Find(set.title).First().Text())
			if title == "" {
				return
			}
			item := scraper.RawItem{
				Title:       title,
				Description: strings.TrimSpace(s.Find(set.desc).First().Text()),
				DateText:    strings.TrimSpace(s.Find(set.date).First().Text()),
				URL:         pageURL,
			}
			if href, ok := s.Find("a").First().Attr("href"); ok {
				item.URL = absoluteURL(pageURL, href)
			}
			if src, ok := s.Find(set.image).First().Attr("src"); ok && src != "" {
				item.ImageURLs = []string{absoluteURL(pageURL, src)}
			}
			items = append(items, item)
		})
		if len(items) > 0 {
			return items
		}
	}
	return nil
}

func nextSaturday(now time.Time) time.Time {
	d := time.Date(now.Year(), now.Month(), now.Day(), 10, 0, 0, 0, now.Location())
	offset := (int(time.Saturday) - int(d.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return d.AddDate(0, 0, offset)
}
