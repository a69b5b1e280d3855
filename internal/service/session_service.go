package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/kndrckm/splitbill/internal/auth"
	"github.com/kndrckm/splitbill/internal/events"
	"github.com/kndrckm/splitbill/internal/extraction"
	"github.com/kndrckm/splitbill/internal/metrics"
	"github.com/kndrckm/splitbill/internal/models"
	"github.com/kndrckm/splitbill/internal/storage"
)

// SessionService implements the Connect SessionService.
// Every mutation loads the snapshot, edits it and writes it straight back.
type SessionService struct {
	store      storage.SessionStore
	jwtManager *auth.JWTManager
	extractor  extraction.Extractor
	publisher  events.Publisher
	metrics    *metrics.Metrics
	now        func() time.Time

	// mu serializes read-modify-write cycles on snapshots.
	mu sync.Mutex
}

// Option configures a SessionService.
type Option func(*SessionService)

// WithExtractor sets the receipt extractor. Defaults to extraction.Disabled.
func WithExtractor(e extraction.Extractor) Option {
	return func(s *SessionService) { s.extractor = e }
}

// WithPublisher sets the change event publisher. Defaults to events.Noop.
func WithPublisher(p events.Publisher) Option {
	return func(s *SessionService) { s.publisher = p }
}

// WithMetrics sets the metrics the service records to.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *SessionService) { s.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *SessionService) { s.now = now }
}

// NewSessionService creates a new SessionService with the given storage backend.
func NewSessionService(store storage.SessionStore, jwtManager *auth.JWTManager, opts ...Option) *SessionService {
	s := &SessionService{
		store:      store,
		jwtManager: jwtManager,
		extractor:  extraction.Disabled{},
		publisher:  events.Noop{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	return s
}

// defaultSessionName generates a name like "Session - Jan 2, 2006".
func defaultSessionName(t time.Time) string {
	return "Session - " + t.Format("Jan 2, 2006")
}

// storeError maps a storage error to a Connect error.
func storeError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// save bumps the version, persists the snapshot and announces the change.
// Callers hold s.mu.
func (s *SessionService) save(ctx context.Context, session *models.Session) error {
	session.Version++
	session.UpdatedAt = s.now().Unix()

	err := s.store.Save(ctx, session)
	s.metrics.StoreWrites.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		slog.Error("Save session failed", "session_id", session.ID, "error", err)
		return connect.NewError(connect.CodeInternal, err)
	}

	if err := s.publisher.PublishSessionChanged(ctx, session.ID, session.Version); err != nil {
		slog.Warn("Publish session change failed", "session_id", session.ID, "version", session.Version, "error", err)
	}
	return nil
}

// mutate runs fn against the stored snapshot and writes the result back.
// fn returns Connect errors; nothing is saved when it fails.
func (s *SessionService) mutate(ctx context.Context, sessionID string, fn func(*models.Session) error) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, storeError(err)
	}
	if err := fn(session); err != nil {
		return nil, err
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) load(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, storeError(err)
	}
	return session, nil
}

// CreateSession starts an empty session and returns a token for it.
func (s *SessionService) CreateSession(ctx context.Context, req *connect.Request[CreateSessionRequest]) (*connect.Response[CreateSessionResponse], error) {
	hash, err := auth.HashPasscode(req.Msg.Passcode)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPasscode) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	now := s.now()
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		name = defaultSessionName(now)
	}

	session := &models.Session{
		ID:           uuid.New().String(),
		Name:         name,
		People:       []models.Person{},
		Bills:        []models.Bill{},
		Payments:     []models.Payment{},
		CreatedAt:    now.Unix(),
		PasscodeHash: hash,
	}

	s.mu.Lock()
	err = s.save(ctx, session)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	token, err := s.jwtManager.Generate(session.ID)
	if err != nil {
		slog.Error("Generate token failed", "session_id", session.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Session created", "session_id", session.ID, "protected", hash != "")
	return connect.NewResponse(&CreateSessionResponse{Session: session, Token: token}), nil
}

// OpenSession exchanges a session ID (and its passcode, if set) for a token.
func (s *SessionService) OpenSession(ctx context.Context, req *connect.Request[OpenSessionRequest]) (*connect.Response[OpenSessionResponse], error) {
	session, err := s.load(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	if err := auth.CheckPasscode(session.PasscodeHash, req.Msg.Passcode); err != nil {
		slog.Warn("OpenSession rejected", "session_id", session.ID)
		return nil, connect.NewError(connect.CodeUnauthenticated, err)
	}

	token, err := s.jwtManager.Generate(session.ID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&OpenSessionResponse{Token: token}), nil
}

// GetSession returns the full snapshot, used to restore the UI on reload.
func (s *SessionService) GetSession(ctx context.Context, req *connect.Request[GetSessionRequest]) (*connect.Response[GetSessionResponse], error) {
	session, err := s.load(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&GetSessionResponse{Session: session}), nil
}

// DeleteSession removes the session and everything in it.
func (s *SessionService) DeleteSession(ctx context.Context, req *connect.Request[DeleteSessionRequest]) (*connect.Response[DeleteSessionResponse], error) {
	s.mu.Lock()
	err := s.store.Delete(ctx, req.Msg.SessionID)
	s.mu.Unlock()
	if err != nil {
		return nil, storeError(err)
	}

	slog.Info("Session deleted", "session_id", req.Msg.SessionID)
	return connect.NewResponse(&DeleteSessionResponse{}), nil
}

// AddPerson appends a person to the session.
func (s *SessionService) AddPerson(ctx context.Context, req *connect.Request[AddPersonRequest]) (*connect.Response[AddPersonResponse], error) {
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("name is required"))
	}

	person := models.Person{
		ID:    uuid.New().String(),
		Name:  name,
		Color: req.Msg.Color,
	}
	_, err := s.mutate(ctx, req.Msg.SessionID, func(session *models.Session) error {
		session.People = append(session.People, person)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&AddPersonResponse{Person: person}), nil
}

// RemovePerson deletes a person, drops them from every item they shared and
// deletes their payments.
func (s *SessionService) RemovePerson(ctx context.Context, req *connect.Request[RemovePersonRequest]) (*connect.Response[RemovePersonResponse], error) {
	personID := req.Msg.PersonID
	_, err := s.mutate(ctx, req.Msg.SessionID, func(session *models.Session) error {
		idx := session.FindPerson(personID)
		if idx < 0 {
			return connect.NewError(connect.CodeNotFound, fmt.Errorf("person %q not found", personID))
		}
		session.People = append(session.People[:idx], session.People[idx+1:]...)

		for b := range session.Bills {
			for i := range session.Bills[b].Items {
				item := &session.Bills[b].Items[i]
				item.SharedBy = without(item.SharedBy, personID)
			}
		}

		payments := session.Payments[:0]
		for _, p := range session.Payments {
			if p.PersonID != personID {
				payments = append(payments, p)
			}
		}
		session.Payments = payments
		return nil
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&RemovePersonResponse{}), nil
}

// SetStep stores the UI navigation position.
func (s *SessionService) SetStep(ctx context.Context, req *connect.Request[SetStepRequest]) (*connect.Response[SetStepResponse], error) {
	if req.Msg.Step < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("step must not be negative"))
	}

	_, err := s.mutate(ctx, req.Msg.SessionID, func(session *models.Session) error {
		session.Step = req.Msg.Step
		return nil
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&SetStepResponse{Step: req.Msg.Step}), nil
}

// without returns ids with every occurrence of id removed.
func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
