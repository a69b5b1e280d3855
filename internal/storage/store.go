// Package storage provides abstractions for persistent session storage.
package storage

import (
	"context"
	"errors"

	"github.com/kndrckm/splitbill/internal/models"
)

// ErrNotFound is returned when no session exists for the requested ID.
var ErrNotFound = errors.New("session not found")

// SessionStore persists whole session snapshots.
// Every save replaces the previous snapshot and every load returns the full
// snapshot, so backends (SQLite, PostgreSQL, memory) are interchangeable.
type SessionStore interface {
	// Save writes the snapshot, creating or replacing it.
	// session.ID must be set.
	Save(ctx context.Context, session *models.Session) error

	// Load retrieves the snapshot for the given ID.
	// Returns ErrNotFound (wrapped) if it does not exist.
	Load(ctx context.Context, sessionID string) (*models.Session, error)

	// Delete removes a snapshot. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of stored sessions, most recently updated first.
	List(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
