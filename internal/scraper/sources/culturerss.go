package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"regexp"
	"time"

	"github.com/dzieciakowo/ingest/internal/models"
	"github.com/dzieciakowo/ingest/internal/scraper"
)

// CultureRSS ingests the municipal culture portal's RSS feed. The feed
// aggregates submissions from many small organizers, so items enter the
// review queue instead of auto-publishing.
type CultureRSS struct {
	fetcher scraper.Fetcher
	builder scraper.Builder
	urls    []string
}

// NewCultureRSS creates the culture portal strategy.
func NewCultureRSS(fetcher scraper.Fetcher, urls ...string) *CultureRSS {
	if len(urls) == 0 {
		urls = []string{
			"https://kultura.dzieciakowo.pl/feed/wydarzenia.xml",
			"https://kultura.dzieciakowo.pl/rss",
		}
	}
	return &CultureRSS{
		fetcher: fetcher,
		urls:    urls,
		builder: scraper.Builder{
			DefaultCategory: models.CategoryOther,
			CategoryRules: []scraper.CategoryRule{
				{Stem: "warsztat", Category: models.CategoryWorkshop},
				{Stem: "spektakl", Category: models.CategoryPerformance},
				{Stem: "koncert", Category: models.CategoryPerformance},
				{Stem: "kino", Category: models.CategoryPerformance},
				{Stem: "turniej", Category: models.CategorySport},
				{Stem: "zawody", Category: models.CategorySport},
				{Stem: "basen", Category: models.CategorySport},
				{Stem: "muzeum", Category: models.CategoryEducation},
				{Stem: "wykład", Category: models.CategoryEducation},
			},
			City:      "Dzieciakowo",
			Organizer: "Portal Kulturalny",
		},
	}
}

func (c *CultureRSS) Name() string { return "portal-kultury-rss" }

func (c *CultureRSS) TrustLevel() models.TrustLevel { return models.TrustCommunity }

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Category    string `xml:"category"`
	Enclosure   struct {
		URL  string `xml:"url,attr"`
		Type string `xml:"type,attr"`
	} `xml:"enclosure"`
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// ScrapeEvents fetches the feed URLs in order and parses the first one that
// decodes. A feed that decodes but holds no items is not an error.
func (c *CultureRSS) ScrapeEvents(ctx context.Context) ([]models.CanonicalEvent, error) {
	var lastErr error
	reached := false

	for _, url := range c.urls {
		body, err := c.fetcher.Get(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}
		reached = true

		var feed rssFeed
		if err := xml.Unmarshal(body, &feed); err != nil {
			// malformed feed, try the next URL
			continue
		}
		if len(feed.Channel.Items) == 0 {
			continue
		}

		items := make([]scraper.RawItem, 0, len(feed.Channel.Items))
		for _, it := range feed.Channel.Items {
			raw := scraper.RawItem{
				Title:       it.Title,
				Description: htmlTagRe.ReplaceAllString(it.Description, " "),
				DateText:    c.dateText(it),
				URL:         it.Link,
			}
			if it.Enclosure.URL != "" {
				raw.ImageURLs = []string{it.Enclosure.URL}
			}
			if it.Category != "" {
				raw.Tags = []string{it.Category}
			}
			items = append(items, raw)
		}
		return c.builder.Build(items), nil
	}

	if !reached && lastErr != nil {
		return nil, fmt.Errorf("culture rss source: %w", lastErr)
	}
	return nil, nil
}

// dateText prefers an RFC1123-style pubDate, reformatted so the normalizer's
// ISO pattern picks it up; otherwise the description text carries the date.
func (c *CultureRSS) dateText(it rssItem) string {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822} {
		if t, err := time.Parse(layout, it.PubDate); err == nil {
			return t.Format("2006-01-02 15:04")
		}
	}
	return it.Description
}

// FallbackEvents is empty: the portal has no standing program of its own,
// a broken feed simply contributes nothing this cycle.
func (c *CultureRSS) FallbackEvents(time.Time) []models.CanonicalEvent {
	return nil
}
