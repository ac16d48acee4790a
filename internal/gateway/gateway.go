// Package gateway reconciles candidate events against the persistence sink:
// first sighting of a fingerprint creates a record, every later sighting
// updates it in place.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dzieciakowo/ingest/internal/metrics"
	"github.com/dzieciakowo/ingest/internal/models"
	"github.com/dzieciakowo/ingest/internal/repository"
)

// Outcome is the result of reconciling one candidate.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
)

// Publisher notifies downstream consumers about reconcile outcomes.
// Publishing is best-effort; a publish failure never fails reconciliation.
type Publisher interface {
	PublishOutcome(ctx context.Context, outcome string, ev *models.PersistedEvent) error
}

// Gateway implements the dedup/upsert logic on top of an EventStore.
type Gateway struct {
	store     repository.EventStore
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithPublisher attaches an outcome publisher.
func WithPublisher(p Publisher) Option {
	return func(g *Gateway) { g.publisher = p }
}

// WithClock overrides the gateway clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// New creates a Gateway over the given store.
func New(store repository.EventStore, logger *slog.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Reconcile computes the candidate's fingerprint and creates or updates the
// persisted record. The store's unique fingerprint constraint guarantees a
// concurrent insert race resolves to exactly one row; the loser retries as
// an update.
func (g *Gateway) Reconcile(ctx context.Context, scraper string, trust models.TrustLevel, cand models.CanonicalEvent) (Outcome, error) {
	if err := cand.Validate(); err != nil {
		return "", fmt.Errorf("candidate rejected: %w", err)
	}
	cand.Clamp()

	fp := Fingerprint(cand.Title, cand.StartsAt, cand.Venue)

	existing, err := g.store.FindByFingerprint(ctx, fp)
	switch {
	case err == nil:
		return g.update(ctx, existing, cand)
	case errors.Is(err, repository.ErrEventNotFound):
		return g.create(ctx, scraper, trust, fp, cand)
	default:
		metrics.ReconcileErrors.WithLabelValues(scraper).Inc()
		return "", fmt.Errorf("failed to look up fingerprint: %w", err)
	}
}

func (g *Gateway) create(ctx context.Context, scraper string, trust models.TrustLevel, fp string, cand models.CanonicalEvent) (Outcome, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate event id: %w", err)
	}

	now := g.now()
	ev := &models.PersistedEvent{
		ID:             id.String(),
		Fingerprint:    fp,
		Scraper:        scraper,
		Status:         models.StatusForTrust(trust),
		CanonicalEvent: cand,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = g.store.Insert(ctx, ev)
	if errors.Is(err, repository.ErrDuplicateFingerprint) {
		// another worker inserted the same event first
		existing, findErr := g.store.FindByFingerprint(ctx, fp)
		if findErr != nil {
			metrics.ReconcileErrors.WithLabelValues(scraper).Inc()
			return "", fmt.Errorf("failed to re-fetch after insert race: %w", findErr)
		}
		return g.update(ctx, existing, cand)
	}
	if err != nil {
		metrics.ReconcileErrors.WithLabelValues(scraper).Inc()
		return "", fmt.Errorf("failed to insert event: %w", err)
	}

	metrics.EventsCreated.WithLabelValues(scraper).Inc()
	g.publish(ctx, OutcomeCreated, ev)
	return OutcomeCreated, nil
}

func (g *Gateway) update(ctx context.Context, existing *models.PersistedEvent, cand models.CanonicalEvent) (Outcome, error) {
	now := g.now()
	if err := g.store.Update(ctx, existing.ID, &cand, now); err != nil {
		metrics.ReconcileErrors.WithLabelValues(existing.Scraper).Inc()
		return "", fmt.Errorf("failed to update event %s: %w", existing.ID, err)
	}

	metrics.EventsUpdated.WithLabelValues(existing.Scraper).Inc()

	updated := *existing
	updated.CanonicalEvent = cand
	updated.UpdatedAt = now
	g.publish(ctx, OutcomeUpdated, &updated)
	return OutcomeUpdated, nil
}

func (g *Gateway) publish(ctx context.Context, outcome Outcome, ev *models.PersistedEvent) {
	if g.publisher == nil {
		return
	}
	if err := g.publisher.PublishOutcome(ctx, string(outcome), ev); err != nil {
		g.logger.Warn("failed to publish reconcile outcome",
			slog.String("event_id", ev.ID),
			slog.String("outcome", string(outcome)),
			slog.String("error", err.Error()))
	}
}
