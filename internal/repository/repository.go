package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dzieciakowo/ingest/internal/models"
)

// Common repository errors
var (
	// ErrEventNotFound is returned when no event matches a fingerprint lookup
	ErrEventNotFound = errors.New("event not found")
	// ErrDuplicateFingerprint is returned when an insert loses a race against
	// a concurrent insert of the same fingerprint
	ErrDuplicateFingerprint = errors.New("duplicate fingerprint")
)

// EventStore is the persistence sink contract the pipeline reconciles
// against. Implementations must hold a unique constraint on fingerprint so
// concurrent reconciliation of the same event cannot create two rows.
type EventStore interface {
	// FindByFingerprint returns the persisted event with the given
	// fingerprint, or ErrEventNotFound.
	FindByFingerprint(ctx context.Context, fingerprint string) (*models.PersistedEvent, error)

	// Insert stores a new event. Returns ErrDuplicateFingerprint when the
	// fingerprint already exists.
	Insert(ctx context.Context, ev *models.PersistedEvent) error

	// Update replaces the mutable canonical fields of an existing event and
	// bumps its updated timestamp. Fingerprint, creation timestamp, lifecycle
	// status and interaction counters are never touched.
	Update(ctx context.Context, id string, ev *models.CanonicalEvent, updatedAt time.Time) error
}
