package sources

import (
	"github.com/dzieciakowo/ingest/internal/scraper"
)

// RegisterAll wires every production source strategy into the registry.
// The fetcher and the minimum title length are shared across all sources;
// each strategy stays independent beyond that. minTitleLen zero keeps the
// builder default.
func RegisterAll(registry *scraper.Registry, fetcher scraper.Fetcher, minTitleLen int) {
	lib := NewLibrary(fetcher)
	lib.builder.MinTitleLen = minTitleLen
	registry.Register(lib)

	theater := NewTheater(fetcher)
	theater.builder.MinTitleLen = minTitleLen
	registry.Register(theater)

	feed := NewCultureRSS(fetcher)
	feed.builder.MinTitleLen = minTitleLen
	registry.Register(feed)
}
