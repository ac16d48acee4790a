package repository

import (
	"context"
	"sync"
	"time"

	"github.com/dzieciakowo/ingest/internal/models"
)

// MemoryStore is an in-memory EventStore for tests and local development.
// It mirrors the Postgres semantics, including the unique-fingerprint
// insert behavior.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]*models.PersistedEvent
	byFP map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[string]*models.PersistedEvent),
		byFP: make(map[string]string),
	}
}

// FindByFingerprint returns the event with the given fingerprint.
func (s *MemoryStore) FindByFingerprint(_ context.Context, fingerprint string) (*models.PersistedEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byFP[fingerprint]
	if !ok {
		return nil, ErrEventNotFound
	}
	copied := *s.byID[id]
	return &copied, nil
}

// Insert stores a new event, enforcing fingerprint uniqueness.
func (s *MemoryStore) Insert(_ context.Context, ev *models.PersistedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byFP[ev.Fingerprint]; exists {
		return ErrDuplicateFingerprint
	}
	copied := *ev
	s.byID[ev.ID] = &copied
	s.byFP[ev.Fingerprint] = ev.ID
	return nil
}

// Update replaces the mutable fields of an existing event.
func (s *MemoryStore) Update(_ context.Context, id string, ev *models.CanonicalEvent, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[id]
	if !ok {
		return ErrEventNotFound
	}
	existing.CanonicalEvent = *ev
	existing.UpdatedAt = updatedAt
	return nil
}

// Len reports how many events the store holds.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
