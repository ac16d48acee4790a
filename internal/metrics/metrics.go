package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scrape run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dzieciakowo_scraper_runs_total",
			Help: "Total number of scraper runs",
		},
		[]string{"scraper", "status"},
	)

	CandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dzieciakowo_scraper_candidates_total",
			Help: "Total number of candidate events produced by scrapers",
		},
		[]string{"scraper"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dzieciakowo_scraper_run_duration_seconds",
			Help:    "Duration of scraper runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scraper"},
	)

	// Reconciliation metrics
	EventsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dzieciakowo_events_created_total",
			Help: "Total number of events created by reconciliation",
		},
		[]string{"scraper"},
	)

	EventsUpdated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dzieciakowo_events_updated_total",
			Help: "Total number of events updated by reconciliation",
		},
		[]string{"scraper"},
	)

	ReconcileErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dzieciakowo_reconcile_errors_total",
			Help: "Total number of reconciliation errors",
		},
		[]string{"scraper"},
	)

	// Job queue metrics
	JobsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dzieciakowo_jobs_executed_total",
			Help: "Total number of job executions by outcome",
		},
		[]string{"outcome"},
	)

	JobRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dzieciakowo_job_retries_total",
			Help: "Total number of job retries scheduled",
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dzieciakowo_job_queue_depth",
			Help: "Number of jobs currently waiting in the queue",
		},
	)

	ActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dzieciakowo_active_workers",
			Help: "Number of workers currently executing a job",
		},
	)
)
