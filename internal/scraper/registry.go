package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dzieciakowo/ingest/internal/gateway"
	"github.com/dzieciakowo/ingest/internal/metrics"
	"github.com/dzieciakowo/ingest/internal/models"
)

// ErrScraperNotFound is returned when a run is requested for an unregistered
// strategy name. This is a programmer error, not a retryable condition.
var ErrScraperNotFound = errors.New("scraper not found")

// Registry holds the registered source strategies, keyed by name.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register adds a strategy. Re-registering a name replaces the previous one.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Name()] = s
}

// Get returns the strategy with the given name.
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrScraperNotFound, name)
	}
	return s, nil
}

// Names returns all registered strategy names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reconciler is the gateway surface the orchestrator needs.
type Reconciler interface {
	Reconcile(ctx context.Context, scraper string, trust models.TrustLevel, cand models.CanonicalEvent) (gateway.Outcome, error)
}

// Orchestrator runs strategies and reconciles their candidates, isolating
// per-source failures.
type Orchestrator struct {
	registry   *Registry
	reconciler Reconciler
	logger     *slog.Logger
	runTimeout time.Duration
}

// NewOrchestrator creates an orchestrator. runTimeout bounds one strategy
// run so a hung source cannot occupy a worker indefinitely; zero means
// no bound.
func NewOrchestrator(registry *Registry, reconciler Reconciler, logger *slog.Logger, runTimeout time.Duration) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry:   registry,
		reconciler: reconciler,
		logger:     logger,
		runTimeout: runTimeout,
	}
}

// RunOne executes a single strategy by name. The returned error is non-nil
// only for an unknown name; a failing strategy still yields a result with
// its Err field set.
func (o *Orchestrator) RunOne(ctx context.Context, name string) (models.ScraperRunResult, error) {
	s, err := o.registry.Get(name)
	if err != nil {
		return models.ScraperRunResult{}, err
	}
	return o.run(ctx, s), nil
}

// RunAll executes every registered strategy and always returns one result
// per strategy. A strategy-level failure becomes an error-tagged result
// rather than aborting the batch, so one broken source never prevents the
// others from completing.
func (o *Orchestrator) RunAll(ctx context.Context) []models.ScraperRunResult {
	names := o.registry.Names()
	results := make([]models.ScraperRunResult, 0, len(names))
	for _, name := range names {
		s, err := o.registry.Get(name)
		if err != nil {
			// unregistered mid-batch, only possible with concurrent mutation
			results = append(results, models.ScraperRunResult{Scraper: name, Err: err})
			continue
		}
		results = append(results, o.run(ctx, s))
	}
	return results
}

func (o *Orchestrator) run(ctx context.Context, s Strategy) (result models.ScraperRunResult) {
	result.Scraper = s.Name()
	started := time.Now()

	if o.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.runTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("scraper %s panicked: %v", s.Name(), r)
		}
		status := "ok"
		if result.Failed() {
			status = "error"
		}
		metrics.RunsTotal.WithLabelValues(s.Name(), status).Inc()
		metrics.RunDuration.WithLabelValues(s.Name()).Observe(time.Since(started).Seconds())
	}()

	candidates, err := s.ScrapeEvents(ctx)
	if err != nil {
		o.logger.Error("scraper run failed",
			slog.String("scraper", s.Name()),
			slog.String("error", err.Error()))
		result.Err = err
		return result
	}

	if len(candidates) == 0 {
		candidates = s.FallbackEvents(time.Now())
		if len(candidates) > 0 {
			o.logger.Warn("live extraction yielded nothing, using standing events",
				slog.String("scraper", s.Name()),
				slog.Int("count", len(candidates)))
		}
	}

	result.Total = len(candidates)
	metrics.CandidatesTotal.WithLabelValues(s.Name()).Add(float64(len(candidates)))

	for _, cand := range candidates {
		outcome, err := o.reconciler.Reconcile(ctx, s.Name(), s.TrustLevel(), cand)
		if err != nil {
			result.Errors++
			o.logger.Warn("failed to reconcile candidate",
				slog.String("scraper", s.Name()),
				slog.String("title", cand.Title),
				slog.String("error", err.Error()))
			continue
		}
		switch outcome {
		case gateway.OutcomeCreated:
			result.Created++
		case gateway.OutcomeUpdated:
			result.Updated++
		}
	}

	o.logger.Info("scraper run finished",
		slog.String("scraper", s.Name()),
		slog.Int("total", result.Total),
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int("errors", result.Errors))

	return result
}
