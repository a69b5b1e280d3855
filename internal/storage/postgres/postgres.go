// Package postgres provides a PostgreSQL-backed implementation of storage.SessionStore.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kndrckm/splitbill/internal/models"
	"github.com/kndrckm/splitbill/internal/storage"
)

var _ storage.SessionStore = (*PostgresStore)(nil)

// schema runs on startup to ensure the table exists.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    passcode_hash TEXT,
    snapshot JSONB NOT NULL,
    version BIGINT NOT NULL DEFAULT 0,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
`

// PostgresStore implements storage.SessionStore on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL, verifies the connection and ensures the schema.
func New(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Save upserts the session snapshot.
func (s *PostgresStore) Save(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		return fmt.Errorf("session ID required")
	}
	if session.CreatedAt == 0 {
		session.CreatedAt = time.Now().Unix()
	}
	if session.UpdatedAt == 0 {
		session.UpdatedAt = session.CreatedAt
	}

	snapshot, err := storage.MarshalSnapshot(session)
	if err != nil {
		return err
	}

	var passcode *string
	if session.PasscodeHash != "" {
		passcode = &session.PasscodeHash
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (id, name, passcode_hash, snapshot, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name,
		   passcode_hash = EXCLUDED.passcode_hash,
		   snapshot = EXCLUDED.snapshot,
		   version = EXCLUDED.version,
		   updated_at = EXCLUDED.updated_at`,
		session.ID, session.Name, passcode, string(snapshot),
		session.Version, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Load retrieves the snapshot for a session.
func (s *PostgresStore) Load(ctx context.Context, sessionID string) (*models.Session, error) {
	var snapshot string
	var passcode *string

	err := s.pool.QueryRow(ctx,
		"SELECT snapshot::text, passcode_hash FROM sessions WHERE id = $1",
		sessionID,
	).Scan(&snapshot, &passcode)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session, err := storage.UnmarshalSnapshot([]byte(snapshot))
	if err != nil {
		return nil, err
	}
	if passcode != nil {
		session.PasscodeHash = *passcode
	}

	return session, nil
}

// Delete removes a session by ID.
func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM sessions WHERE id = $1", sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, sessionID)
	}
	return nil
}

// List returns session IDs, most recently updated first.
func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT id FROM sessions ORDER BY updated_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return ids, nil
}
