package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dzieciakowo/ingest/internal/models"
	"github.com/dzieciakowo/ingest/internal/repository"
)

func testCandidate() models.CanonicalEvent {
	return models.CanonicalEvent{
		Title:       "Warsztaty plastyczne",
		Description: "Malowanie farbami dla dzieci",
		AgeRange:    models.AgeRange{Min: 5, Max: 10},
		Price:       models.Price{Type: models.PriceFree},
		Venue:       "Biblioteka X",
		City:        "Dzieciakowo",
		SourceURL:   "https://biblioteka.example/warsztaty",
		StartsAt:    time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC),
		Category:    models.CategoryWorkshop,
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	start := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

	fp1 := Fingerprint("Warsztaty plastyczne", start, "Biblioteka X")
	fp2 := Fingerprint("Warsztaty plastyczne", start, "Biblioteka X")
	assert.Equal(t, fp1, fp2)

	// whitespace and case drift does not change identity
	fp3 := Fingerprint("  Warsztaty   PLASTYCZNE ", start, "biblioteka x")
	assert.Equal(t, fp1, fp3)

	// the same wall-clock instant in another zone does not change identity
	warsaw := time.FixedZone("CET", 3600)
	fp4 := Fingerprint("Warsztaty plastyczne", start.In(warsaw), "Biblioteka X")
	assert.Equal(t, fp1, fp4)
}

func TestFingerprint_ChangesWithAnyComponent(t *testing.T) {
	start := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	base := Fingerprint("Warsztaty plastyczne", start, "Biblioteka X")

	assert.NotEqual(t, base, Fingerprint("Warsztaty muzyczne", start, "Biblioteka X"))
	assert.NotEqual(t, base, Fingerprint("Warsztaty plastyczne", start.Add(time.Hour), "Biblioteka X"))
	assert.NotEqual(t, base, Fingerprint("Warsztaty plastyczne", start, "Biblioteka Y"))
}

func TestReconcile_CreateThenUpdate(t *testing.T) {
	store := repository.NewMemoryStore()
	gw := New(store, nil)
	ctx := context.Background()

	cand := testCandidate()

	outcome, err := gw.Reconcile(ctx, "lib-x", models.TrustInstitutional, cand)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
	assert.Equal(t, 1, store.Len())

	// second sighting with drifted mutable fields updates in place
	cand.Description = "Malowanie farbami i wyklejanki"
	outcome, err = gw.Reconcile(ctx, "lib-x", models.TrustInstitutional, cand)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Equal(t, 1, store.Len())

	fp := Fingerprint(cand.Title, cand.StartsAt, cand.Venue)
	stored, err := store.FindByFingerprint(ctx, fp)
	require.NoError(t, err)
	assert.Equal(t, "Malowanie farbami i wyklejanki", stored.Description)
	assert.Equal(t, "lib-x", stored.Scraper)
}

func TestReconcile_EndToEndIdempotence(t *testing.T) {
	store := repository.NewMemoryStore()
	gw := New(store, nil)
	ctx := context.Background()

	// first run: 1 created
	outcome, err := gw.Reconcile(ctx, "lib-x", models.TrustInstitutional, testCandidate())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	// second run with identical candidate: 0 created, 1 updated, same row
	outcome, err = gw.Reconcile(ctx, "lib-x", models.TrustInstitutional, testCandidate())
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Equal(t, 1, store.Len())
}

func TestReconcile_StatusFollowsTrust(t *testing.T) {
	store := repository.NewMemoryStore()
	gw := New(store, nil)
	ctx := context.Background()

	cand := testCandidate()
	_, err := gw.Reconcile(ctx, "lib-x", models.TrustInstitutional, cand)
	require.NoError(t, err)

	fp := Fingerprint(cand.Title, cand.StartsAt, cand.Venue)
	stored, err := store.FindByFingerprint(ctx, fp)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, stored.Status)

	other := testCandidate()
	other.Title = "Zbiórka sąsiedzka dla dzieci"
	_, err = gw.Reconcile(ctx, "portal", models.TrustCommunity, other)
	require.NoError(t, err)

	fp = Fingerprint(other.Title, other.StartsAt, other.Venue)
	stored, err = store.FindByFingerprint(ctx, fp)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingReview, stored.Status)
}

func TestReconcile_UpdateKeepsStatusAndCreatedAt(t *testing.T) {
	store := repository.NewMemoryStore()
	clock := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	gw := New(store, nil, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	cand := testCandidate()
	_, err := gw.Reconcile(ctx, "lib-x", models.TrustInstitutional, cand)
	require.NoError(t, err)

	clock = clock.Add(24 * time.Hour)
	_, err = gw.Reconcile(ctx, "lib-x", models.TrustInstitutional, cand)
	require.NoError(t, err)

	fp := Fingerprint(cand.Title, cand.StartsAt, cand.Venue)
	stored, err := store.FindByFingerprint(ctx, fp)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, stored.Status)
	assert.Equal(t, time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC), stored.CreatedAt)
	assert.Equal(t, time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC), stored.UpdatedAt)
}

func TestReconcile_RejectsInvalidCandidate(t *testing.T) {
	store := repository.NewMemoryStore()
	gw := New(store, nil)

	cand := testCandidate()
	cand.Title = ""
	_, err := gw.Reconcile(context.Background(), "lib-x", models.TrustInstitutional, cand)
	require.Error(t, err)
	assert.Equal(t, 0, store.Len())
}

// racingStore simulates losing an insert race: the first Insert call reports
// a duplicate fingerprint while a concurrent writer has already created the
// row.
type racingStore struct {
	*repository.MemoryStore
	raced bool
}

func (s *racingStore) Insert(ctx context.Context, ev *models.PersistedEvent) error {
	if !s.raced {
		s.raced = true
		// the concurrent winner's row appears now
		winner := *ev
		winner.ID = "winner"
		if err := s.MemoryStore.Insert(ctx, &winner); err != nil {
			return err
		}
		return repository.ErrDuplicateFingerprint
	}
	return s.MemoryStore.Insert(ctx, ev)
}

func TestReconcile_InsertRaceResolvesToUpdate(t *testing.T) {
	store := &racingStore{MemoryStore: repository.NewMemoryStore()}
	gw := New(store, nil)

	outcome, err := gw.Reconcile(context.Background(), "lib-x", models.TrustInstitutional, testCandidate())
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Equal(t, 1, store.Len())
}
