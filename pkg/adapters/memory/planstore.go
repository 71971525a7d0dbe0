package memory

import (
	"context"
	"sync"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// PlanStore implements ports.PlanStore with a guarded map keyed by
// (domain, intent). Safe for concurrent use.
type PlanStore struct {
	mu    sync.RWMutex
	plans map[planKey]*domain.Plan
}

type planKey struct {
	domainID string
	intent   string
}

// NewPlanStore creates an empty in-memory plan store.
func NewPlanStore() *PlanStore {
	return &PlanStore{plans: make(map[planKey]*domain.Plan)}
}

// Get retrieves the plan for a (domain, intent) key.
func (s *PlanStore) Get(_ context.Context, domainID, intent string) (*domain.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[planKey{domainID, intent}]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}

// Save persists the plan under every intent it satisfies.
func (s *PlanStore) Save(_ context.Context, plan *domain.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, intent := range plan.Intents {
		s.plans[planKey{plan.DomainID, intent}] = plan
	}
	return nil
}

// List returns the distinct plans stored for a domain.
func (s *PlanStore) List(_ context.Context, domainID string) ([]*domain.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var out []*domain.Plan
	for key, plan := range s.plans {
		if key.domainID != domainID || seen[plan.ID] {
			continue
		}
		seen[plan.ID] = true
		out = append(out, plan)
	}
	return out, nil
}

// Delete removes the plan for a (domain, intent) key.
func (s *PlanStore) Delete(_ context.Context, domainID, intent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.plans, planKey{domainID, intent})
	return nil
}
