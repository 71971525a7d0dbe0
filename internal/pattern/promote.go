package pattern

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// Promote converts a suggested observation into a persisted plan. Steps
// derive mechanically from the recorded sequence: every declared parameter
// maps to the same-named data field and each result lands under
// "<function>Result". Future turns for the intent then resolve this plan
// instead of falling back.
func (l *Learner) Promote(ctx context.Context, d *domain.Domain, fingerprint string) (*domain.Plan, error) {
	obs, err := l.patterns.Get(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	if obs.Status != domain.PatternSuggested {
		return nil, fmt.Errorf("pattern %s is %s; only suggested patterns can be promoted", fingerprint, obs.Status)
	}
	if obs.DomainID != d.ID {
		return nil, fmt.Errorf("pattern %s belongs to domain %s, not %s", fingerprint, obs.DomainID, d.ID)
	}
	if len(obs.Sequence) == 0 {
		return nil, fmt.Errorf("pattern %s has no recorded function calls", fingerprint)
	}

	steps := make([]domain.PlanStep, 0, len(obs.Sequence))
	for _, name := range obs.Sequence {
		fn := d.Function(name)
		if fn == nil {
			return nil, fmt.Errorf("pattern %s calls %s, which domain %s no longer declares", fingerprint, name, d.ID)
		}
		var mapping map[string]string
		if len(fn.Parameters) > 0 {
			mapping = make(map[string]string, len(fn.Parameters))
			for param := range fn.Parameters {
				mapping[param] = param
			}
		}
		steps = append(steps, domain.PlanStep{
			Function:     name,
			InputMapping: mapping,
			OutputAs:     name + "Result",
		})
	}

	now := l.now().UTC()
	plan := &domain.Plan{
		ID:         uuid.NewString(),
		DomainID:   d.ID,
		Name:       obs.Intent + " (promoted)",
		Intents:    []string{obs.Intent},
		Steps:      steps,
		Provenance: domain.ProvenancePromoted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := l.plans.Save(ctx, plan); err != nil {
		return nil, err
	}
	if err := l.patterns.SetStatus(ctx, fingerprint, domain.PatternApproved); err != nil {
		return nil, err
	}
	l.metrics.RecordPatternEvent("promoted")

	event := domain.NewEvent(domain.EventPatternPromoted, "", d.ID)
	event.Intent = obs.Intent
	event.Detail = map[string]any{
		"fingerprint": fingerprint,
		"plan":        plan.ID,
		"steps":       len(plan.Steps),
	}
	if err := l.events.Publish(ctx, event); err != nil {
		l.log.Warn("event publish failed", "type", event.Type, "err", err)
	}

	l.log.Info("pattern promoted",
		"domain", d.ID, "intent", obs.Intent,
		"fingerprint", fingerprint, "plan", plan.ID)
	return plan, nil
}
