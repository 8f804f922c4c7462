// Package session persists conversation state so multi-turn answer loops
// can resume. The PostgreSQL store keeps one JSONB row per conversation
// key; an in-memory store backs tests and single-process use.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docuquery/docuquery/internal/crag"
)

// Store persists conversation state in PostgreSQL. Each save runs in a
// transaction holding a per-key advisory lock, so concurrent saves to the
// same key serialize and readers never observe a partial write. The version
// column increments on every save, giving each key independent versioning.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a PostgreSQL-backed store. logger may be nil for
// slog.Default.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// Load returns the state stored under key, or crag.ErrStateNotFound.
func (s *Store) Load(ctx context.Context, key string) (*crag.State, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM conversations WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: key %q", crag.ErrStateNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("loading conversation %q: %w", key, err)
	}

	var st crag.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decoding conversation %q: %w", key, err)
	}
	return &st, nil
}

// Save upserts the state under key atomically.
func (s *Store) Save(ctx context.Context, key string, st *crag.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding conversation %q: %w", key, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Advisory lock serializes concurrent saves to the same key; it is
	// released automatically at commit or rollback.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("locking conversation %q: %w", key, err)
	}

	const q = `
		INSERT INTO conversations (key, owner_id, state)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			state      = EXCLUDED.state,
			version    = conversations.version + 1,
			updated_at = now()`

	if _, err := tx.Exec(ctx, q, key, st.OwnerID, raw); err != nil {
		return fmt.Errorf("saving conversation %q: %w", key, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing conversation %q: %w", key, err)
	}

	s.logger.Debug("saved conversation", "key", key, "messages", len(st.Messages))
	return nil
}

// Version returns the current save count for key, or crag.ErrStateNotFound.
func (s *Store) Version(ctx context.Context, key string) (int64, error) {
	var version int64
	err := s.pool.QueryRow(ctx,
		`SELECT version FROM conversations WHERE key = $1`, key).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: key %q", crag.ErrStateNotFound, key)
	}
	if err != nil {
		return 0, fmt.Errorf("reading conversation version %q: %w", key, err)
	}
	return version, nil
}
