package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dzieciakowo/ingest/internal/scraper"
	"github.com/dzieciakowo/ingest/internal/scraper/sources"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List registered source strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := scraper.NewRegistry()
		fetcher := scraper.NewHTTPFetcher(cfg.Scraper.FetchTimeout, cfg.Scraper.UserAgent)
		sources.RegisterAll(registry, fetcher, cfg.Scraper.MinTitleLength)

		for _, name := range registry.Names() {
			s, err := registry.Get(name)
			if err != nil {
				return err
			}
			fmt.Printf("%-24s trust=%s\n", name, s.TrustLevel())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
