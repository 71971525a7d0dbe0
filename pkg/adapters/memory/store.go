// Package memory provides in-process implementations of the persistence
// ports: stores for sessions, plans and pattern observations, plus a
// broadcast event publisher. Suitable for tests, the CLI chat loop, and
// single-replica embedding.
package memory

import (
	"context"
	"sync"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// SessionStore implements ports.SessionStore with a guarded map.
// Safe for concurrent use.
type SessionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SessionState
}

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{data: make(map[string]*domain.SessionState)}
}

// Save persists a copy of the state so later caller mutations never leak
// into the store, mirroring what serialization gives the redis adapter.
func (s *SessionStore) Save(_ context.Context, sessionID string, state *domain.SessionState) error {
	copied := copySession(state)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copied
	return nil
}

// Load retrieves a copy of the state.
func (s *SessionStore) Load(_ context.Context, sessionID string) (*domain.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return copySession(state), nil
}

// Delete removes the state.
func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the IDs of live sessions.
func (s *SessionStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

// copySession detaches the top-level containers. Nested step outputs are
// treated as immutable by the engine, so a one-level copy is enough.
func copySession(state *domain.SessionState) *domain.SessionState {
	copied := *state
	copied.Data = make(map[string]any, len(state.Data))
	for k, v := range state.Data {
		copied.Data[k] = v
	}
	if state.Clarification != nil {
		clar := *state.Clarification
		copied.Clarification = &clar
	}
	return &copied
}
