// Package memory provides an in-process storage.SessionStore, used for
// development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kndrckm/splitbill/internal/models"
	"github.com/kndrckm/splitbill/internal/storage"
)

var _ storage.SessionStore = (*Store)(nil)

// Store keeps snapshots in a map. Values are deep-copied on the way in and out.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// New creates an empty Store.
func New() *Store {
	return &Store{sessions: make(map[string]*models.Session)}
}

// Save stores a copy of the session.
func (s *Store) Save(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		return fmt.Errorf("session ID required")
	}
	clone, err := storage.Clone(session)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = clone
	return nil
}

// Load returns a copy of the stored session.
func (s *Store) Load(ctx context.Context, sessionID string) (*models.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, sessionID)
	}
	return storage.Clone(session)
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, sessionID)
	}
	delete(s.sessions, sessionID)
	return nil
}

// List returns session IDs, most recently updated first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*models.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		all = append(all, session)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].UpdatedAt != all[j].UpdatedAt {
			return all[i].UpdatedAt > all[j].UpdatedAt
		}
		return all[i].ID < all[j].ID
	})

	ids := make([]string, len(all))
	for i, session := range all {
		ids[i] = session.ID
	}
	return ids, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
