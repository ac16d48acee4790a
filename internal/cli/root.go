// Package cli implements the dzieciakowo-ingest command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dzieciakowo/ingest/internal/config"
	"github.com/dzieciakowo/ingest/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "dzieciakowo-ingest",
	Short: "Dzieciakowo ingestion pipeline",
	Long: `dzieciakowo-ingest scrapes children's event listings from registered
external sources, normalizes them into the canonical schema and reconciles
them against the event store.

Run sources on demand with "scrape", or start the durable worker pool with
"worker".`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
}
