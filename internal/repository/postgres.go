package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dzieciakowo/ingest/internal/models"
)

// PostgresStore implements EventStore using PostgreSQL
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL event store
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

const eventColumns = `
	id, fingerprint, scraper, status,
	title, description, age_min, age_max,
	price_type, price_amount, price_currency,
	venue, address, city, lat, lon,
	organizer, source_url, image_urls,
	starts_at, ends_at, category, tags,
	created_at, updated_at, view_count, click_count`

// FindByFingerprint retrieves an event by its content fingerprint
func (s *PostgresStore) FindByFingerprint(ctx context.Context, fingerprint string) (*models.PersistedEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE fingerprint = $1`, eventColumns)

	ev := &models.PersistedEvent{}
	var lat, lon *float64
	err := s.pool.QueryRow(ctx, query, fingerprint).Scan(
		&ev.ID, &ev.Fingerprint, &ev.Scraper, &ev.Status,
		&ev.Title, &ev.Description, &ev.AgeRange.Min, &ev.AgeRange.Max,
		&ev.Price.Type, &ev.Price.Amount, &ev.Price.Currency,
		&ev.Venue, &ev.Address, &ev.City, &lat, &lon,
		&ev.Organizer, &ev.SourceURL, &ev.ImageURLs,
		&ev.StartsAt, &ev.EndsAt, &ev.Category, &ev.Tags,
		&ev.CreatedAt, &ev.UpdatedAt, &ev.ViewCount, &ev.ClickCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to find event by fingerprint: %w", err)
	}

	if lat != nil && lon != nil {
		ev.Location = &models.GeoPoint{Lat: *lat, Lon: *lon}
	}

	return ev, nil
}

// Insert stores a new event row. The unique constraint on fingerprint makes
// concurrent inserts of the same event resolve to exactly one row.
func (s *PostgresStore) Insert(ctx context.Context, ev *models.PersistedEvent) error {
	query := `
		INSERT INTO events (
			id, fingerprint, scraper, status,
			title, description, age_min, age_max,
			price_type, price_amount, price_currency,
			venue, address, city, lat, lon,
			organizer, source_url, image_urls,
			starts_at, ends_at, category, tags,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25
		)
	`

	var lat, lon *float64
	if ev.Location != nil {
		lat, lon = &ev.Location.Lat, &ev.Location.Lon
	}

	_, err := s.pool.Exec(ctx, query,
		ev.ID, ev.Fingerprint, ev.Scraper, ev.Status,
		ev.Title, ev.Description, ev.AgeRange.Min, ev.AgeRange.Max,
		ev.Price.Type, ev.Price.Amount, ev.Price.Currency,
		ev.Venue, ev.Address, ev.City, lat, lon,
		ev.Organizer, ev.SourceURL, ev.ImageURLs,
		ev.StartsAt, ev.EndsAt, ev.Category, ev.Tags,
		ev.CreatedAt, ev.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateFingerprint
		}
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// Update replaces the mutable canonical fields of an event. Fingerprint,
// status, creation timestamp and interaction counters are left alone.
func (s *PostgresStore) Update(ctx context.Context, id string, ev *models.CanonicalEvent, updatedAt time.Time) error {
	query := `
		UPDATE events SET
			title = $1, description = $2, age_min = $3, age_max = $4,
			price_type = $5, price_amount = $6, price_currency = $7,
			venue = $8, address = $9, city = $10, lat = $11, lon = $12,
			organizer = $13, source_url = $14, image_urls = $15,
			starts_at = $16, ends_at = $17, category = $18, tags = $19,
			updated_at = $20
		WHERE id = $21
	`

	var lat, lon *float64
	if ev.Location != nil {
		lat, lon = &ev.Location.Lat, &ev.Location.Lon
	}

	result, err := s.pool.Exec(ctx, query,
		ev.Title, ev.Description, ev.AgeRange.Min, ev.AgeRange.Max,
		ev.Price.Type, ev.Price.Amount, ev.Price.Currency,
		ev.Venue, ev.Address, ev.City, lat, lon,
		ev.Organizer, ev.SourceURL, ev.ImageURLs,
		ev.StartsAt, ev.EndsAt, ev.Category, ev.Tags,
		updatedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrEventNotFound
	}

	return nil
}

// Close closes the database connection pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}
