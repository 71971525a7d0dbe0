package pattern

import (
	"context"
	"log/slog"
	"time"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/observability"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

// Suggestion thresholds: an observation needs this many runs and this
// success rate before it is put in front of a human.
const (
	defaultMinObservations = 5
	defaultMinSuccessRate  = 0.8
)

// Learner walks observations through the promotion funnel: observed,
// suggested once the thresholds are crossed, approved when a human promotes
// the sequence into a plan.
type Learner struct {
	patterns ports.PatternStore
	plans    ports.PlanStore
	events   ports.EventPublisher
	metrics  *observability.Metrics
	log      *slog.Logger
	minObs   int64
	minRate  float64
	now      func() time.Time
}

// LearnerOption configures a Learner.
type LearnerOption func(*Learner)

// WithThresholds overrides the suggestion thresholds. Non-positive values
// keep the defaults.
func WithThresholds(minObservations int64, minSuccessRate float64) LearnerOption {
	return func(l *Learner) {
		if minObservations > 0 {
			l.minObs = minObservations
		}
		if minSuccessRate > 0 {
			l.minRate = minSuccessRate
		}
	}
}

// WithClock fixes the clock stamped onto promoted plans.
func WithClock(now func() time.Time) LearnerOption {
	return func(l *Learner) { l.now = now }
}

// NewLearner wires observation aggregation. events and metrics may be nil.
func NewLearner(patterns ports.PatternStore, plans ports.PlanStore, events ports.EventPublisher, metrics *observability.Metrics, log *slog.Logger, opts ...LearnerOption) *Learner {
	if events == nil {
		events = ports.NopPublisher{}
	}
	l := &Learner{
		patterns: patterns,
		plans:    plans,
		events:   events,
		metrics:  metrics,
		log:      log,
		minObs:   defaultMinObservations,
		minRate:  defaultMinSuccessRate,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Observe records one completed fallback run under its fingerprint and
// flips the observation to suggested once it crosses the thresholds.
// Concurrent crossings may write suggested more than once; the status
// write is idempotent and the counters themselves are the store's atomic
// responsibility.
func (l *Learner) Observe(ctx context.Context, domainID, intent string, sequence []string, success bool) error {
	obs := &domain.PatternObservation{
		Fingerprint: domain.PatternFingerprint(domainID, intent, sequence),
		DomainID:    domainID,
		Intent:      intent,
		Sequence:    sequence,
	}
	if err := l.patterns.Observe(ctx, obs, success); err != nil {
		return err
	}
	l.metrics.RecordPatternEvent("observed")

	current, err := l.patterns.Get(ctx, obs.Fingerprint)
	if err != nil {
		return err
	}
	if current.Status != domain.PatternObserved ||
		current.TimesObserved < l.minObs ||
		current.SuccessRate() < l.minRate {
		return nil
	}

	if err := l.patterns.SetStatus(ctx, current.Fingerprint, domain.PatternSuggested); err != nil {
		return err
	}
	l.metrics.RecordPatternEvent("suggested")

	event := domain.NewEvent(domain.EventPatternSuggested, "", domainID)
	event.Intent = intent
	event.Detail = map[string]any{
		"fingerprint": current.Fingerprint,
		"sequence":    sequence,
		"observed":    current.TimesObserved,
		"successRate": current.SuccessRate(),
	}
	if err := l.events.Publish(ctx, event); err != nil {
		l.log.Warn("event publish failed", "type", event.Type, "err", err)
	}

	l.log.Info("pattern suggested",
		"domain", domainID, "intent", intent,
		"fingerprint", current.Fingerprint, "observed", current.TimesObserved)
	return nil
}

// Suggestions lists observations awaiting human review.
func (l *Learner) Suggestions(ctx context.Context) ([]*domain.PatternObservation, error) {
	return l.patterns.ListByStatus(ctx, domain.PatternSuggested)
}

// Dismiss drops an observation from the funnel.
func (l *Learner) Dismiss(ctx context.Context, fingerprint string) error {
	return l.patterns.Delete(ctx, fingerprint)
}
