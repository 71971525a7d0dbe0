package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// PatternStore implements ports.PatternStore with a guarded map. All
// counter updates happen under one lock, which satisfies the port's
// atomicity contract in-process.
type PatternStore struct {
	mu  sync.Mutex
	obs map[string]*domain.PatternObservation
}

// NewPatternStore creates an empty in-memory pattern store.
func NewPatternStore() *PatternStore {
	return &PatternStore{obs: make(map[string]*domain.PatternObservation)}
}

// Observe upserts the observation and bumps its counters atomically.
func (s *PatternStore) Observe(_ context.Context, obs *domain.PatternObservation, success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	cur, ok := s.obs[obs.Fingerprint]
	if !ok {
		cur = &domain.PatternObservation{
			Fingerprint: obs.Fingerprint,
			DomainID:    obs.DomainID,
			Intent:      obs.Intent,
			Sequence:    append([]string(nil), obs.Sequence...),
			Status:      domain.PatternObserved,
			FirstSeen:   now,
		}
		s.obs[obs.Fingerprint] = cur
	}
	cur.TimesObserved++
	if success {
		cur.SuccessCount++
	}
	cur.LastSeen = now
	return nil
}

// Get retrieves a copy of one observation.
func (s *PatternStore) Get(_ context.Context, fingerprint string) (*domain.PatternObservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.obs[fingerprint]
	if !ok {
		return nil, domain.ErrPatternNotFound
	}
	return copyObservation(cur), nil
}

// ListByStatus returns copies of the observations with the given status.
func (s *PatternStore) ListByStatus(_ context.Context, status domain.PatternStatus) ([]*domain.PatternObservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.PatternObservation
	for _, cur := range s.obs {
		if cur.Status == status {
			out = append(out, copyObservation(cur))
		}
	}
	return out, nil
}

// SetStatus moves an observation through the promotion funnel.
func (s *PatternStore) SetStatus(_ context.Context, fingerprint string, status domain.PatternStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.obs[fingerprint]
	if !ok {
		return domain.ErrPatternNotFound
	}
	cur.Status = status
	return nil
}

// Delete removes an observation.
func (s *PatternStore) Delete(_ context.Context, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.obs, fingerprint)
	return nil
}

func copyObservation(cur *domain.PatternObservation) *domain.PatternObservation {
	copied := *cur
	copied.Sequence = append([]string(nil), cur.Sequence...)
	return &copied
}
