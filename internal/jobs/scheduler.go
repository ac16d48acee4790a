package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dzieciakowo/ingest/internal/metrics"
	"github.com/dzieciakowo/ingest/internal/models"
)

// Runner executes one scraper run. Satisfied by scraper.Orchestrator.
type Runner interface {
	RunOne(ctx context.Context, name string) (models.ScraperRunResult, error)
}

// Config configures the scheduler's worker pool and retry policy.
type Config struct {
	Concurrency  int
	PollInterval time.Duration
	MaxAttempts  int
	BackoffBase  time.Duration
}

// Scheduler pulls waiting jobs from the durable queue with a bounded worker
// pool. Each worker executes one job to completion before taking the next,
// so at most Concurrency scraper runs are in flight at once.
type Scheduler struct {
	queue  *Queue
	runner Runner
	logger *slog.Logger
	cfg    Config

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler over the queue and runner.
func NewScheduler(queue *Queue, runner Runner, logger *slog.Logger, cfg Config) *Scheduler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 4
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		queue:  queue,
		runner: runner,
		logger: logger,
		cfg:    cfg,
	}
}

// InstallRecurring idempotently installs a recurring job per scraper name.
func (s *Scheduler) InstallRecurring(ctx context.Context, scrapers []string, every time.Duration) error {
	for _, name := range scrapers {
		j := NewRecurringJob(name, every, s.cfg.MaxAttempts, s.cfg.BackoffBase)
		created, err := s.queue.EnqueueIfAbsent(ctx, j)
		if err != nil {
			return fmt.Errorf("failed to install schedule for %s: %w", name, err)
		}
		if created {
			s.logger.Info("installed recurring schedule",
				slog.String("scraper", name),
				slog.Duration("every", every))
		}
	}
	return nil
}

// EnqueueNow queues a one-shot run of the given scraper.
func (s *Scheduler) EnqueueNow(ctx context.Context, scraper string) (*Job, error) {
	j := NewJob(scraper, s.cfg.MaxAttempts, s.cfg.BackoffBase)
	if err := s.queue.Enqueue(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

// Start launches the worker pool.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopChan = make(chan struct{})

	s.logger.Info("scheduler starting",
		slog.Int("concurrency", s.cfg.Concurrency),
		slog.Duration("poll_interval", s.cfg.PollInterval))

	for i := 0; i < s.cfg.Concurrency; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	return nil
}

// Stop drains the pool: workers stop taking new jobs and the call blocks
// until every active job has finished.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) worker(ctx context.Context, id int) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.poll(ctx, id)
		}
	}
}

func (s *Scheduler) poll(ctx context.Context, workerID int) {
	if depth, err := s.queue.Depth(ctx); err == nil {
		metrics.QueueDepth.Set(float64(depth))
	}

	j, err := s.queue.Dequeue(ctx, time.Now())
	if err != nil {
		s.logger.Error("failed to dequeue job", slog.String("error", err.Error()))
		return
	}
	if j == nil {
		return
	}

	s.execute(ctx, workerID, j)
}

func (s *Scheduler) execute(ctx context.Context, workerID int, j *Job) {
	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	s.logger.Info("job started",
		slog.String("job_id", j.ID),
		slog.String("scraper", j.Scraper),
		slog.Int("attempt", j.Attempt),
		slog.Int("worker", workerID))

	result, err := s.runner.RunOne(ctx, j.Scraper)
	if err == nil && result.Err != nil {
		err = result.Err
	}

	if err != nil {
		metrics.JobsExecuted.WithLabelValues("failed").Inc()
		if j.Attempt < j.MaxAttempts {
			metrics.JobRetries.Inc()
		}
		s.logger.Warn("job failed",
			slog.String("job_id", j.ID),
			slog.String("scraper", j.Scraper),
			slog.Int("attempt", j.Attempt),
			slog.Int("max_attempts", j.MaxAttempts),
			slog.String("error", err.Error()))
		if qErr := s.queue.Fail(ctx, j, err); qErr != nil {
			s.logger.Error("failed to record job failure", slog.String("error", qErr.Error()))
		}
		return
	}

	metrics.JobsExecuted.WithLabelValues("completed").Inc()
	s.logger.Info("job completed",
		slog.String("job_id", j.ID),
		slog.String("scraper", j.Scraper),
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int("errors", result.Errors))
	if qErr := s.queue.Complete(ctx, j); qErr != nil {
		s.logger.Error("failed to record job completion", slog.String("error", qErr.Error()))
	}
}
