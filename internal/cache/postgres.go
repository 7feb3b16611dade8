package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/wayfinder/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database abstracts the pgx pool so the store can be tested with pgxmock.
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is the durable Store implementation. Entries survive process
// restarts; expiry is checked in Go against the stored timestamp on every
// read, and stale rows are deleted lazily.
type PostgresStore struct {
	db  Database
	log *slog.Logger
	ttl time.Duration
}

// NewDatabase creates a new connection pool to the PostgreSQL database using
// the provided connection parameters.
func NewDatabase(host, port, user, password, name string) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, password, host, port, name)

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return pool, nil
}

// NewPostgresStore creates a Store backed by the given database with the
// default 24h TTL.
func NewPostgresStore(db Database, log *slog.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: log, ttl: DefaultTTL}
}

// EnsureSchema creates the cache tables if they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS route_cache (
			cache_key TEXT PRIMARY KEY,
			payload JSONB NOT NULL,
			stored_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS preferences (
			pref_key TEXT PRIMARY KEY,
			enabled BOOLEAN NOT NULL
		);
	`

	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create cache schema: %w", err)
	}

	return nil
}

// Get reads the entry for key and applies the get-and-expire check: an entry
// older than the TTL is deleted and reported as absent.
func (s *PostgresStore) Get(ctx context.Context, key string) (*models.RouteResult, error) {
	query := `SELECT payload, stored_at FROM route_cache WHERE cache_key = $1;`

	var payload []byte
	var storedAt time.Time
	err := s.db.QueryRow(ctx, query, key).Scan(&payload, &storedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence is not an error for a cache
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if time.Since(storedAt) > s.ttl {
		s.log.DebugContext(ctx, "Cache entry expired, deleting", "key", key, "stored_at", storedAt)
		if _, delErr := s.db.Exec(ctx, `DELETE FROM route_cache WHERE cache_key = $1;`, key); delErr != nil {
			s.log.ErrorContext(ctx, "Failed to delete expired cache entry", "key", key, "error", delErr)
		}
		return nil, nil //nolint:nilnil // expired entries are treated as absent
	}

	var result models.RouteResult
	if err = json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cache payload: %w", err)
	}
	result.CachedAt = time.Now()

	s.log.DebugContext(ctx, "Cache hit", "key", key, "provider", result.Provider)

	return &result, nil
}

// Put upserts the entry for key, overwriting unconditionally.
func (s *PostgresStore) Put(ctx context.Context, key string, result *models.RouteResult) error {
	if result.IsFallback() {
		return ErrFallbackResult
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode cache payload: %w", err)
	}

	query := `
		INSERT INTO route_cache (cache_key, payload, stored_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (cache_key) DO UPDATE
		SET payload = EXCLUDED.payload, stored_at = EXCLUDED.stored_at;
	`

	if _, err = s.db.Exec(ctx, query, key, payload, time.Now()); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	return nil
}

// SetVoiceGuidance persists the voice-guidance preference flag.
func (s *PostgresStore) SetVoiceGuidance(ctx context.Context, enabled bool) error {
	query := `
		INSERT INTO preferences (pref_key, enabled)
		VALUES ($1, $2)
		ON CONFLICT (pref_key) DO UPDATE SET enabled = EXCLUDED.enabled;
	`

	if _, err := s.db.Exec(ctx, query, voiceGuidanceKey, enabled); err != nil {
		return fmt.Errorf("failed to write voice guidance preference: %w", err)
	}

	return nil
}

// VoiceGuidance reads the voice-guidance preference flag; a missing row means off.
func (s *PostgresStore) VoiceGuidance(ctx context.Context) (bool, error) {
	query := `SELECT enabled FROM preferences WHERE pref_key = $1;`

	var enabled bool
	err := s.db.QueryRow(ctx, query, voiceGuidanceKey).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read voice guidance preference: %w", err)
	}

	return enabled, nil
}
