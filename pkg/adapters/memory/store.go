package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Session
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Session),
	}
}

// Save persists a deep copy of the session, similar to serialization.
func (s *Store) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	cp := session.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = cp
	return nil
}

// Load returns a copy so callers can't mutate stored sessions through the pointer.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns stored session IDs in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	slices.Sort(sessions)
	return sessions, nil
}
