// Package turn implements the inbound interface of the engine: one
// conversational turn in, one rendered response out. The service wires the
// resolution layers together and owns the per-turn session lifecycle;
// everything stateful it touches lives in the persisted SessionState.
package turn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/intent"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/pattern"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/runtime"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/sanitize"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/template"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/workflow"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/observability"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/schema"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/session"
)

const (
	restartMessage  = "I'm sorry, I lost track of where we were. Let's start over - what can I help you with?"
	restateMessage  = "I'm still not sure what you need. Could you restate your request in different words?"
	noIntentMessage = "I'm not sure how to help with that. Could you tell me a bit more about what you need?"
)

// Service handles inbound turns. It is safe for concurrent use; turns for
// the same session serialize on the session manager's lock, turns for
// different sessions run in parallel.
type Service struct {
	catalog   ports.Catalog
	sessions  *session.Manager
	matcher   *intent.Matcher
	validator *intent.Validator
	resolver  *workflow.Resolver
	executor  *runtime.Executor
	fallback  *pattern.Executor
	events    ports.EventPublisher
	metrics   *observability.Metrics
	log       *slog.Logger

	now            func() time.Time
	safeWindowDays int
}

// Option configures the Service.
type Option func(*Service)

// WithClock pins the engine clock seeded into plan runtimes.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSafeWindow sets the horizon (in days) for the safeDateEnd reserved
// value. Non-positive keeps the default.
func WithSafeWindow(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.safeWindowDays = days
		}
	}
}

// NewService wires the turn pipeline. events and metrics may be nil.
func NewService(
	catalog ports.Catalog,
	sessions *session.Manager,
	matcher *intent.Matcher,
	validator *intent.Validator,
	resolver *workflow.Resolver,
	executor *runtime.Executor,
	fallback *pattern.Executor,
	events ports.EventPublisher,
	metrics *observability.Metrics,
	log *slog.Logger,
	opts ...Option,
) *Service {
	if events == nil {
		events = ports.NopPublisher{}
	}
	s := &Service{
		catalog:        catalog,
		sessions:       sessions,
		matcher:        matcher,
		validator:      validator,
		resolver:       resolver,
		executor:       executor,
		fallback:       fallback,
		events:         events,
		metrics:        metrics,
		log:            log,
		now:            time.Now,
		safeWindowDays: template.DefaultSafeWindowDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle processes one turn. The whole turn runs under the session lock so
// no two steps of the same session ever execute concurrently; resumption of
// a paused plan is just the next call with the same session id.
func (s *Service) Handle(ctx context.Context, req domain.TurnRequest) (*domain.TurnResult, error) {
	started := s.now()

	utterance, err := sanitize.Input(req.Utterance)
	if err != nil {
		return nil, fmt.Errorf("rejected utterance: %w", err)
	}
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return nil, errors.New("rejected utterance: empty after sanitation")
	}

	entry, err := s.catalog.Domain(ctx, req.DomainID)
	if err != nil {
		return nil, err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var result *domain.TurnResult
	err = s.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		result, err = s.handleLocked(ctx, entry, sessionID, utterance)
		return err
	})
	if err != nil {
		s.metrics.RecordTurn(req.DomainID, "error", s.now().Sub(started))
		return nil, err
	}

	s.metrics.RecordTurn(req.DomainID, string(result.Status), s.now().Sub(started))
	s.publishOutcome(ctx, entry.Domain, result)
	return result, nil
}

// handleLocked is the pipeline body. It owns the session for the duration
// of the turn and persists it exactly once on every path, including the
// corruption path where persisting means deleting.
func (s *Service) handleLocked(ctx context.Context, entry *ports.CatalogEntry, sessionID, utterance string) (*domain.TurnResult, error) {
	store := s.sessions.Store()

	state, err := store.Load(ctx, sessionID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		state = domain.NewSession(sessionID, entry.Domain.ID)
	case err != nil:
		return nil, err
	case state.DomainID != entry.Domain.ID:
		// A session never migrates between domains; treat a mismatched
		// turn as corrupt state and restart clean.
		s.log.Warn("session arrived with a different domain; restarting",
			"session", sessionID, "had", state.DomainID, "got", entry.Domain.ID)
		state = domain.NewSession(sessionID, entry.Domain.ID)
	}

	response, err := s.advance(ctx, entry, state, utterance)
	if err != nil {
		var corrupt *domain.StateCorruptionError
		if errors.As(err, &corrupt) {
			s.log.Warn("session state corrupted; terminating",
				"session", sessionID, "reason", corrupt.Reason)
			if delErr := store.Delete(ctx, sessionID); delErr != nil {
				s.log.Error("corrupt session delete failed", "session", sessionID, "err", delErr)
			}
			return &domain.TurnResult{
				SessionID: sessionID,
				Response:  restartMessage,
				Status:    domain.StatusFailed,
				Terminal:  true,
			}, nil
		}
		return nil, err
	}

	state.UpdatedAt = s.now().UTC()
	if err := store.Save(ctx, sessionID, state); err != nil {
		return nil, err
	}

	return &domain.TurnResult{
		SessionID: sessionID,
		Response:  response,
		Status:    state.Status,
		Terminal:  state.Status.Terminal(),
	}, nil
}

// advance runs one turn's worth of pipeline: resume a paused plan, continue
// a pending clarification, or resolve the utterance from Layer 1 up.
func (s *Service) advance(ctx context.Context, entry *ports.CatalogEntry, state *domain.SessionState, utterance string) (string, error) {
	// A finished conversation starts a fresh flow on its next turn; the
	// data bag survives so context carries over.
	if state.Status.Terminal() {
		state.ClearPlan()
		state.Clarification = nil
	}

	if state.Status == domain.StatusWaitingForUser && state.AwaitingField != "" {
		return s.resume(ctx, entry, state, utterance)
	}

	if c := state.Clarification; c != nil && c.Kind == domain.ClarifyIntent {
		return s.resolveAndRun(ctx, entry, state, utterance)
	}

	// Layer 1: a trigger hit costs zero model calls, by contract.
	if res, ok := s.matcher.Match(entry.Domain, utterance); ok {
		s.metrics.RecordResolution(entry.Domain.ID, string(domain.LayerTrigger))
		s.log.Debug("intent matched by trigger",
			"session", state.ID, "domain", entry.Domain.ID, "intent", res.Intent)
		return s.runIntent(ctx, entry, state, res, utterance)
	}

	return s.resolveAndRun(ctx, entry, state, utterance)
}

// resolveAndRun is Layer 2 and onward: dual extraction, clarification
// bookkeeping, then plan resolution or fallback.
func (s *Service) resolveAndRun(ctx context.Context, entry *ports.CatalogEntry, state *domain.SessionState, utterance string) (string, error) {
	res, err := s.validator.Validate(ctx, entry.Domain, utterance)
	if err != nil {
		return "", err
	}

	switch {
	case res.Resolution != nil:
		state.Clarification = nil
		s.metrics.RecordResolution(entry.Domain.ID, string(domain.LayerValidator))
		return s.runIntent(ctx, entry, state, res.Resolution, utterance)

	case res.Unknown:
		state.Clarification = nil
		state.Intent = ""
		s.log.Debug("no domain intent recognized; falling back",
			"session", state.ID, "domain", entry.Domain.ID)
		return s.fallback.Execute(ctx, entry.Domain, entry.Validators, state, utterance)

	default:
		attempts := 1
		if c := state.Clarification; c != nil && c.Kind == domain.ClarifyIntent {
			attempts = c.Attempts + 1
		}
		if attempts > intent.MaxClarificationAttempts {
			ambiguity := &domain.IntentAmbiguityError{
				DomainID:     entry.Domain.ID,
				Disagreement: res.Disagreement,
			}
			s.log.Warn("intent clarification exhausted", "session", state.ID, "err", ambiguity)
			state.Clarification = nil
			return restateMessage, nil
		}
		state.Clarification = &domain.ClarificationState{
			Kind:     domain.ClarifyIntent,
			Question: res.Clarification,
			Attempts: attempts,
		}
		s.log.Debug("intent validators disagreed",
			"session", state.ID, "attempt", attempts, "disagreement", res.Disagreement)
		return res.Clarification, nil
	}
}

// runIntent takes a resolved intent through Layer 3 and Layer 4. Synthesis
// rejection routes silently to the fallback executor, per the error design.
func (s *Service) runIntent(ctx context.Context, entry *ports.CatalogEntry, state *domain.SessionState, res *domain.IntentResolution, utterance string) (string, error) {
	state.Intent = res.Intent
	mergeEntities(state.Data, res.Entities)

	plan, err := s.resolver.Resolve(ctx, entry.Domain, res.Intent, res.Entities)
	if err != nil {
		var synthErr *domain.WorkflowSynthesisError
		if errors.As(err, &synthErr) {
			s.log.Info("synthesis abandoned; using fallback execution",
				"session", state.ID, "domain", entry.Domain.ID, "intent", res.Intent)
			return s.fallback.Execute(ctx, entry.Domain, entry.Validators, state, utterance)
		}
		return "", err
	}

	s.attachPlan(entry.Domain, state, plan)
	return s.executor.Execute(ctx, workflow.RegisterPlanEntities(entry.Domain, plan), entry.Validators, plan, state)
}

// attachPlan points the session at a plan and seeds the reserved runtime
// namespace. Seeding happens exactly once per plan attachment so todayISO
// stays stable across the plan's pauses.
func (s *Service) attachPlan(d *domain.Domain, state *domain.SessionState, plan *domain.Plan) {
	state.PlanID = plan.ID
	state.StepIndex = 0
	state.Status = domain.StatusRunning
	state.AwaitingField = ""
	template.Seed(state.Data, d.ID, d.Endpoint, s.now(), s.safeWindowDays)
}

// resume feeds a paused plan the field it is waiting for. The utterance is
// validated against the awaited entity's schema kind when the domain
// declares one; an invalid answer re-asks within the bounded attempts.
func (s *Service) resume(ctx context.Context, entry *ports.CatalogEntry, state *domain.SessionState, utterance string) (string, error) {
	if state.Intent == "" || state.PlanID == "" {
		return "", &domain.StateCorruptionError{
			SessionID: state.ID,
			Reason:    "paused without an active plan",
		}
	}

	plan, err := s.resolver.Lookup(ctx, entry.Domain.ID, state.Intent)
	if err != nil {
		if errors.Is(err, domain.ErrPlanNotFound) {
			return "", &domain.StateCorruptionError{
				SessionID: state.ID,
				Reason:    fmt.Sprintf("paused on plan %s which no longer resolves", state.PlanID),
			}
		}
		return "", err
	}
	if plan.ID != state.PlanID {
		return "", &domain.StateCorruptionError{
			SessionID: state.ID,
			Reason:    fmt.Sprintf("paused on plan %s but %s/%s now resolves to %s", state.PlanID, entry.Domain.ID, state.Intent, plan.ID),
		}
	}

	// Plan-referenced fields the configuration never declared count as
	// entities here, so their answers get the same treatment.
	d := workflow.RegisterPlanEntities(entry.Domain, plan)

	field := state.AwaitingField
	if question, ok := s.rejectAnswer(d, state, field, utterance); ok {
		if question == "" {
			state.Status = domain.StatusFailed
			state.AwaitingField = ""
			state.Clarification = nil
			return restateMessage, nil
		}
		return question, nil
	}

	state.Data[field] = utterance
	state.Status = domain.StatusRunning
	s.log.Debug("session resumed", "session", state.ID, "field", field)

	// Re-executing from the paused step consumes the supplied field and
	// advances the index by exactly one for that step.
	return s.executor.Execute(ctx, d, entry.Validators, plan, state)
}

// rejectAnswer reports whether the utterance fails the awaited entity's
// kind check. It returns the re-ask question, or "" once the per-field
// attempts are spent. Fields without a declared entity are taken verbatim;
// the virtual that awaits them does its own parsing.
func (s *Service) rejectAnswer(d *domain.Domain, state *domain.SessionState, field, utterance string) (string, bool) {
	ent := d.Entity(field)
	if ent == nil {
		return "", false
	}
	typ, err := schema.ParseKind(ent.Type, s.now)
	if err != nil {
		// Catalog validation should have caught this; do not punish the
		// user for a config regression.
		s.log.Error("awaited entity has unknown kind", "entity", field, "kind", ent.Type, "err", err)
		return "", false
	}
	if typ.Validate(utterance) == nil {
		return "", false
	}

	c := state.Clarification
	if c == nil || c.Kind != domain.ClarifyParameter || c.Field != field {
		c = &domain.ClarificationState{Kind: domain.ClarifyParameter, Field: field}
		state.Clarification = c
	}
	c.Attempts++
	if c.Attempts > intent.MaxClarificationAttempts {
		s.log.Warn("awaited field attempts exhausted", "session", state.ID, "field", field)
		return "", true
	}

	question := fmt.Sprintf("That doesn't look like a valid %s. %s", ent.Name, hintSentence(ent))
	c.Question = question
	return question, true
}

func hintSentence(ent *domain.EntityDefinition) string {
	if ent.Hint != "" {
		return fmt.Sprintf("Please give me %s.", ent.Hint)
	}
	return "Could you try again?"
}

// mergeEntities copies extracted entities into the session bag. Reserved
// names never come from extraction; dropping them here keeps a confused
// model from clobbering the runtime namespace.
func mergeEntities(data map[string]any, entities map[string]any) {
	for k, v := range entities {
		if k == "" || v == nil || domain.IsReservedName(k) {
			continue
		}
		data[k] = v
	}
}

// publishOutcome emits the turn event, plus a failure event when the
// session ended badly. Publish errors are logged, never surfaced.
func (s *Service) publishOutcome(ctx context.Context, d *domain.Domain, result *domain.TurnResult) {
	event := domain.NewEvent(domain.EventTurnCompleted, result.SessionID, d.ID)
	event.Detail = map[string]any{"status": string(result.Status), "terminal": result.Terminal}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("event publish failed", "type", event.Type, "err", err)
	}

	if result.Status == domain.StatusFailed {
		failed := domain.NewEvent(domain.EventSessionFailed, result.SessionID, d.ID)
		if err := s.events.Publish(ctx, failed); err != nil {
			s.log.Warn("event publish failed", "type", failed.Type, "err", err)
		}
	}
}
