package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dzieciakowo/ingest/internal/gateway"
	"github.com/dzieciakowo/ingest/internal/models"
	"github.com/dzieciakowo/ingest/internal/normalizer"
	"github.com/dzieciakowo/ingest/internal/repository"
	"github.com/dzieciakowo/ingest/internal/scraper"
	"github.com/dzieciakowo/ingest/internal/scraper/sources"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [source]",
	Short: "Run one source, or all registered sources",
	Long: `Run a single named source strategy, or every registered strategy when no
name is given. Prints per-source created/updated/error counts and a final
summary. A failing source never aborts the batch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := repository.NewPostgresStore(ctx, cfg.Database.Postgres.ConnString())
		if err != nil {
			return fmt.Errorf("failed to connect to event store: %w", err)
		}
		defer store.Close()

		orch, err := buildOrchestrator(store)
		if err != nil {
			return err
		}

		var results []models.ScraperRunResult
		if len(args) == 1 {
			result, err := orch.RunOne(ctx, args[0])
			if err != nil {
				if errors.Is(err, scraper.ErrScraperNotFound) {
					return fmt.Errorf("unknown source %q (see 'dzieciakowo-ingest sources')", args[0])
				}
				return err
			}
			results = append(results, result)
		} else {
			results = orch.RunAll(ctx)
		}

		printSummary(results)

		failed := 0
		for _, r := range results {
			if r.Failed() {
				failed++
			}
		}
		if failed == len(results) && len(results) > 0 {
			return fmt.Errorf("all %d sources failed", failed)
		}
		return nil
	},
}

// buildOrchestrator wires the registry, fetcher and gateway around a store.
func buildOrchestrator(store repository.EventStore) (*scraper.Orchestrator, error) {
	if cfg.Scraper.AliasFile != "" {
		if err := normalizer.LoadVenueAliases(cfg.Scraper.AliasFile); err != nil {
			return nil, err
		}
	}

	registry := scraper.NewRegistry()
	fetcher := scraper.NewHTTPFetcher(cfg.Scraper.FetchTimeout, cfg.Scraper.UserAgent)
	sources.RegisterAll(registry, fetcher, cfg.Scraper.MinTitleLength)

	gw := gateway.New(store, slog.Default())
	return scraper.NewOrchestrator(registry, gw, slog.Default(), cfg.Scraper.RunTimeout), nil
}

func printSummary(results []models.ScraperRunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	succeeded := 0
	for _, r := range results {
		if r.Failed() {
			fmt.Printf("%-24s %s\n", r.Scraper, red("FAILED: "+r.Err.Error()))
			continue
		}
		succeeded++
		fmt.Printf("%-24s %s created, %s updated, %d errors (of %d candidates)\n",
			r.Scraper, green(r.Created), cyan(r.Updated), r.Errors, r.Total)
	}

	fmt.Printf("\n%d sources run: %s succeeded, %s failed\n",
		len(results), green(succeeded), red(len(results)-succeeded))
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}
