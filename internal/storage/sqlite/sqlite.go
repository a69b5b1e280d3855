// Package sqlite provides a SQLite-backed implementation of storage.SessionStore.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/kndrckm/splitbill/internal/models"
	"github.com/kndrckm/splitbill/internal/storage"
)

// Ensure SQLiteStore implements storage.SessionStore
var _ storage.SessionStore = (*SQLiteStore)(nil)

// SQLiteStore implements storage.SessionStore using SQLite.
// Each session is one row holding the JSON snapshot.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// The pragma applies to every pooled connection; writers would otherwise
	// fail with SQLITE_BUSY while a reader holds the file.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save upserts the session snapshot.
func (s *SQLiteStore) Save(ctx context.Context, session *models.Session) error {
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

	var passcode interface{} = nil
	if session.PasscodeHash != "" {
		passcode = session.PasscodeHash
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, name, passcode_hash, snapshot, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   passcode_hash = excluded.passcode_hash,
		   snapshot = excluded.snapshot,
		   version = excluded.version,
		   updated_at = excluded.updated_at`,
		session.ID, session.Name, passcode, string(snapshot),
		session.Version, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Load retrieves the snapshot for a session.
func (s *SQLiteStore) Load(ctx context.Context, sessionID string) (*models.Session, error) {
	var snapshot string
	var passcode sql.NullString

	err := s.db.QueryRowContext(ctx,
		"SELECT snapshot, passcode_hash FROM sessions WHERE id = ?",
		sessionID,
	).Scan(&snapshot, &passcode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session, err := storage.UnmarshalSnapshot([]byte(snapshot))
	if err != nil {
		return nil, err
	}
	if passcode.Valid {
		session.PasscodeHash = passcode.String
	}

	return session, nil
}

// Delete removes a session by ID.
func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, sessionID)
	}

	return nil
}

// List returns session IDs, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM sessions ORDER BY updated_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return ids, nil
}
