package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dzieciakowo/ingest/internal/gateway"
	"github.com/dzieciakowo/ingest/internal/jobs"
	"github.com/dzieciakowo/ingest/internal/messaging"
	"github.com/dzieciakowo/ingest/internal/normalizer"
	"github.com/dzieciakowo/ingest/internal/repository"
	"github.com/dzieciakowo/ingest/internal/scraper"
	"github.com/dzieciakowo/ingest/internal/scraper/sources"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the worker pool with recurring schedules",
	Long: `Run database migrations, install the recurring per-source schedules and
start the bounded worker pool. Serves /metrics and /healthz. Exits cleanly
on SIGINT/SIGTERM after draining active jobs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		if cfg.Scraper.AliasFile != "" {
			if err := normalizer.LoadVenueAliases(cfg.Scraper.AliasFile); err != nil {
				return err
			}
		}

		connString := cfg.Database.Postgres.ConnString()

		logger.Info("running database migrations")
		m, err := migrate.New("file://migrations", connString)
		if err != nil {
			return fmt.Errorf("failed to initialize migrations: %w", err)
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		store, err := repository.NewPostgresStore(ctx, connString)
		if err != nil {
			return fmt.Errorf("failed to connect to event store: %w", err)
		}
		defer store.Close()

		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to parse redis url: %w", err)
		}
		redisOpts.PoolSize = cfg.Redis.PoolSize
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}

		var gwOpts []gateway.Option
		if cfg.NATS.Enabled {
			pub, err := messaging.NewPublisher(messaging.Config{
				URL:           cfg.NATS.URL,
				Name:          cfg.NATS.Name,
				MaxReconnects: -1,
				ReconnectWait: 2 * time.Second,
				Timeout:       5 * time.Second,
			})
			if err != nil {
				return err
			}
			defer pub.Close()
			gwOpts = append(gwOpts, gateway.WithPublisher(pub))
		}

		registry := scraper.NewRegistry()
		fetcher := scraper.NewHTTPFetcher(cfg.Scraper.FetchTimeout, cfg.Scraper.UserAgent)
		sources.RegisterAll(registry, fetcher, cfg.Scraper.MinTitleLength)

		gw := gateway.New(store, logger, gwOpts...)
		orch := scraper.NewOrchestrator(registry, gw, logger, cfg.Scraper.RunTimeout)

		queue := jobs.NewQueue(redisClient, cfg.Scheduler.HistoryLimit)
		sched := jobs.NewScheduler(queue, orch, logger, jobs.Config{
			Concurrency:  cfg.Scheduler.Concurrency,
			PollInterval: cfg.Scheduler.PollInterval,
			MaxAttempts:  cfg.Scheduler.MaxAttempts,
			BackoffBase:  cfg.Scheduler.BackoffBase,
		})

		if err := sched.InstallRecurring(ctx, registry.Names(), cfg.Scheduler.ScrapeEvery); err != nil {
			return err
		}
		if err := sched.Start(ctx); err != nil {
			return err
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})

		srv := &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      mux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		go func() {
			logger.Info("worker daemon listening", slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", slog.String("error", err.Error()))
				cancel()
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case <-ctx.Done():
		}

		logger.Info("shutting down, draining active jobs")
		sched.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}

		logger.Info("worker stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
