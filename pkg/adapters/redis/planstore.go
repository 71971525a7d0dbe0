package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// PlanStore implements ports.PlanStore on redis. Plans never expire; they
// are replaced wholesale by the next Save for the same (domain, intent).
type PlanStore struct {
	client *backend.Client
	prefix string
}

// NewPlanStore wraps an existing client.
func NewPlanStore(client *backend.Client, opts ...Option) *PlanStore {
	cfg := applyOptions(opts)
	return &PlanStore{client: client, prefix: cfg.prefix}
}

func (s *PlanStore) key(domainID, intent string) string {
	return s.prefix + "plan:" + domainID + ":" + intent
}

func (s *PlanStore) indexKey(domainID string) string {
	return s.prefix + "plan:index:" + domainID
}

// Get retrieves the plan for a (domain, intent) key.
func (s *PlanStore) Get(ctx context.Context, domainID, intent string) (*domain.Plan, error) {
	val, err := s.client.Get(ctx, s.key(domainID, intent)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrPlanNotFound
		}
		return nil, fmt.Errorf("load plan %s/%s: %w", domainID, intent, err)
	}

	var plan domain.Plan
	if err := json.Unmarshal([]byte(val), &plan); err != nil {
		return nil, fmt.Errorf("unmarshal plan %s/%s: %w", domainID, intent, err)
	}
	return &plan, nil
}

// Save persists the plan under every intent it satisfies and records the
// intents in the domain's index.
func (s *PlanStore) Save(ctx context.Context, plan *domain.Plan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan %s: %w", plan.ID, err)
	}

	pipe := s.client.Pipeline()
	for _, intent := range plan.Intents {
		pipe.Set(ctx, s.key(plan.DomainID, intent), data, 0)
		pipe.SAdd(ctx, s.indexKey(plan.DomainID), intent)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save plan %s: %w", plan.ID, err)
	}
	return nil
}

// List returns the distinct plans stored for a domain, dropping index
// entries whose plan key has gone missing.
func (s *PlanStore) List(ctx context.Context, domainID string) ([]*domain.Plan, error) {
	intents, err := s.client.SMembers(ctx, s.indexKey(domainID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list plans for %s: %w", domainID, err)
	}

	seen := make(map[string]bool)
	var out []*domain.Plan
	for _, intent := range intents {
		plan, err := s.Get(ctx, domainID, intent)
		if errors.Is(err, domain.ErrPlanNotFound) {
			_ = s.client.SRem(ctx, s.indexKey(domainID), intent)
			continue
		}
		if err != nil {
			return nil, err
		}
		if seen[plan.ID] {
			continue
		}
		seen[plan.ID] = true
		out = append(out, plan)
	}
	return out, nil
}

// Delete removes the plan for a (domain, intent) key.
func (s *PlanStore) Delete(ctx context.Context, domainID, intent string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(domainID, intent))
	pipe.SRem(ctx, s.indexKey(domainID), intent)
	_, err := pipe.Exec(ctx)
	return err
}
