package workflow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/observability"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

// Resolver turns (domain, intent) into a plan: cache, store, synthesis,
// in that order. The read path never re-synthesizes.
type Resolver struct {
	cache   *PlanCache
	store   ports.PlanStore
	synth   *Synthesizer
	events  ports.EventPublisher
	metrics *observability.Metrics
	log     *slog.Logger
}

// NewResolver wires the resolution path. events and metrics may be nil.
func NewResolver(cache *PlanCache, store ports.PlanStore, synth *Synthesizer, events ports.EventPublisher, metrics *observability.Metrics, log *slog.Logger) *Resolver {
	if events == nil {
		events = ports.NopPublisher{}
	}
	return &Resolver{cache: cache, store: store, synth: synth, events: events, metrics: metrics, log: log}
}

// Lookup returns the cached or stored plan for (domainID, intent) and never
// synthesizes. Resume turns use it: a paused session whose plan is gone is
// corrupt state, not a synthesis trigger.
func (r *Resolver) Lookup(ctx context.Context, domainID, intent string) (*domain.Plan, error) {
	if plan, ok := r.cache.Get(domainID, intent); ok {
		r.metrics.RecordPlanCache("hit")
		return plan, nil
	}
	r.metrics.RecordPlanCache("miss")

	plan, err := r.store.Get(ctx, domainID, intent)
	if err != nil {
		return nil, err
	}
	r.cache.Set(plan)
	return plan, nil
}

// Resolve returns the plan for (domainID, intent). A synthesized plan is
// persisted before the cache is touched, so a crash between the two writes
// leaves the store authoritative and the cache merely cold.
func (r *Resolver) Resolve(ctx context.Context, d *domain.Domain, intent string, extracted map[string]any) (*domain.Plan, error) {
	if plan, ok := r.cache.Get(d.ID, intent); ok {
		r.metrics.RecordPlanCache("hit")
		return plan, nil
	}
	r.metrics.RecordPlanCache("miss")

	plan, err := r.store.Get(ctx, d.ID, intent)
	if err == nil {
		r.cache.Set(plan)
		return plan, nil
	}
	if !errors.Is(err, domain.ErrPlanNotFound) {
		return nil, err
	}

	plan, err = r.synth.Synthesize(ctx, d, intent, extracted)
	if err != nil {
		var synthErr *domain.WorkflowSynthesisError
		if errors.As(err, &synthErr) {
			r.metrics.RecordSynthesis(d.ID, "rejected")
		} else {
			r.metrics.RecordSynthesis(d.ID, "error")
		}
		return nil, err
	}

	if err := r.store.Save(ctx, plan); err != nil {
		return nil, err
	}
	r.cache.Set(plan)
	r.metrics.RecordSynthesis(d.ID, "ok")
	r.metrics.RecordPlanCache("store")

	event := domain.NewEvent(domain.EventPlanSynthesized, "", d.ID)
	event.Intent = intent
	event.Detail = map[string]any{"plan": plan.ID, "name": plan.Name, "steps": len(plan.Steps)}
	if err := r.events.Publish(ctx, event); err != nil {
		r.log.Warn("event publish failed", "type", event.Type, "err", err)
	}

	r.log.Info("plan synthesized", "domain", d.ID, "intent", intent, "plan", plan.ID, "steps", len(plan.Steps))
	return plan, nil
}
