package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/sync/errgroup"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

// synthesisAttempts is the attempt budget: one generation round plus one
// regeneration carrying the gate findings.
const synthesisAttempts = 2

// Synthesizer builds plans by consensus: two independent generations on
// distinct backends, a semantic merge, then the deterministic gate.
type Synthesizer struct {
	primary   ports.LLMService
	secondary ports.LLMService
	log       *slog.Logger
	now       func() time.Time
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithClock fixes the clock stamped onto synthesized plans.
func WithClock(now func() time.Time) SynthesizerOption {
	return func(s *Synthesizer) { s.now = now }
}

// NewSynthesizer wires the two generation backends. Passing the same
// service twice is allowed but weakens the consensus.
func NewSynthesizer(primary, secondary ports.LLMService, log *slog.Logger, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{primary: primary, secondary: secondary, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize produces a gate-checked plan for the intent. Gate failure
// regenerates once with the findings appended to the prompts; a second
// failure returns WorkflowSynthesisError so the caller can route the turn
// to fallback execution. Nothing invalid ever leaves this function.
func (s *Synthesizer) Synthesize(ctx context.Context, d *domain.Domain, intent string, extracted map[string]any) (*domain.Plan, error) {
	var findings []string
	for attempt := 1; attempt <= synthesisAttempts; attempt++ {
		plan, err := s.generate(ctx, d, intent, extracted, findings)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.Warn("plan generation failed", "domain", d.ID, "intent", intent, "attempt", attempt, "err", err)
			return nil, &domain.WorkflowSynthesisError{
				DomainID: d.ID,
				Intent:   intent,
				Reasons:  []string{err.Error()},
			}
		}

		findings = CheckPlan(d, plan)
		if len(findings) == 0 {
			return plan, nil
		}
		s.log.Warn("synthesized plan rejected by quality gate",
			"domain", d.ID, "intent", intent, "attempt", attempt, "findings", len(findings))
	}

	return nil, &domain.WorkflowSynthesisError{DomainID: d.ID, Intent: intent, Reasons: findings}
}

// generate runs one consensus round: two candidates, then the merge call.
// One backend failing degrades to the survivor; the merge call failing
// degrades to the primary candidate. Only both generations failing is
// fatal for the round.
func (s *Synthesizer) generate(ctx context.Context, d *domain.Domain, intent string, extracted map[string]any, findings []string) (*domain.Plan, error) {
	schemaDef := planSchema()
	user := generationUser(intent, extracted, findings)

	var candA, candB map[string]any
	var errA, errB error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return gctx.Err()
		default:
			candA, errA = s.request(gctx, s.primary, generationSystem(d, 0), user, schemaDef)
			if errA != nil {
				s.log.Warn("primary plan generation failed", "provider", s.primary.Name(), "err", errA)
			}
			return nil
		}
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return gctx.Err()
		default:
			candB, errB = s.request(gctx, s.secondary, generationSystem(d, 1), user, schemaDef)
			if errB != nil {
				s.log.Warn("secondary plan generation failed", "provider", s.secondary.Name(), "err", errB)
			}
			return nil
		}
	})
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	var agreed map[string]any
	switch {
	case errA != nil && errB != nil:
		return nil, fmt.Errorf("both plan generations failed: %w", errors.Join(errA, errB))
	case errA != nil:
		agreed = candB
	case errB != nil:
		agreed = candA
	default:
		merged, err := s.request(ctx, s.primary, mergeSystem(d), mergeUser(intent, candA, candB), schemaDef)
		if err != nil {
			s.log.Warn("semantic merge failed, keeping primary candidate", "err", err)
			merged = candA
		}
		agreed = merged
	}

	return s.decodePlan(d, intent, agreed)
}

func (s *Synthesizer) request(ctx context.Context, svc ports.LLMService, system, user string, schemaDef map[string]any) (map[string]any, error) {
	resp, err := svc.Complete(ctx, ports.CompletionRequest{
		System:         system,
		Messages:       []ports.Message{{Role: ports.RoleUser, Content: user}},
		ResponseSchema: schemaDef,
	})
	if err != nil {
		return nil, err
	}
	if resp.Structured == nil {
		return nil, fmt.Errorf("%s returned no structured payload", svc.Name())
	}
	return resp.Structured, nil
}

type planDoc struct {
	Name  string            `mapstructure:"name"`
	Steps []domain.PlanStep `mapstructure:"steps"`
}

func (s *Synthesizer) decodePlan(d *domain.Domain, intent string, doc map[string]any) (*domain.Plan, error) {
	var decoded planDoc
	if err := mapstructure.Decode(doc, &decoded); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	now := s.now().UTC()
	return &domain.Plan{
		ID:         uuid.NewString(),
		DomainID:   d.ID,
		Name:       decoded.Name,
		Intents:    []string{intent},
		Steps:      decoded.Steps,
		Provenance: domain.ProvenanceSynthesized,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
