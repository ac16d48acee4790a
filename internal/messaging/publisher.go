// Package messaging publishes reconcile outcomes over NATS so the web layer
// can refresh listings without polling the database.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dzieciakowo/ingest/internal/models"
)

// Subjects for reconcile outcomes. The scraper name is appended as the last
// token, e.g. "events.created.biblioteka-miejska".
const (
	SubjectCreated = "events.created"
	SubjectUpdated = "events.updated"
)

// Config holds NATS connection settings.
type Config struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// DefaultConfig returns sensible connection defaults.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Name:          "dzieciakowo-ingest",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// Publisher sends reconcile outcomes to NATS.
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher connects to NATS with the given configuration.
func NewPublisher(cfg Config) (*Publisher, error) {
	if cfg.URL == "" {
		cfg = DefaultConfig()
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &Publisher{conn: conn}, nil
}

// outcomeMessage is the wire format of one reconcile outcome.
type outcomeMessage struct {
	Outcome   string                 `json:"outcome"`
	Timestamp time.Time              `json:"timestamp"`
	Event     *models.PersistedEvent `json:"event"`
}

// PublishOutcome sends one reconcile outcome. Best-effort: callers treat a
// failure as a warning, never as a reconciliation error.
func (p *Publisher) PublishOutcome(_ context.Context, outcome string, ev *models.PersistedEvent) error {
	subject := SubjectUpdated
	if outcome == "created" {
		subject = SubjectCreated
	}
	subject = subject + "." + ev.Scraper

	data, err := json.Marshal(outcomeMessage{
		Outcome:   outcome,
		Timestamp: time.Now().UTC(),
		Event:     ev,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Close flushes and closes the connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		_ = p.conn.Flush()
		p.conn.Close()
	}
}
