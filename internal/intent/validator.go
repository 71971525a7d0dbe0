package intent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"golang.org/x/sync/errgroup"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

// MaxClarificationAttempts bounds how many times the engine asks the user
// to restate an ambiguous request before giving up on the turn.
const MaxClarificationAttempts = 3

// extraction is the parsed structured output of one model call.
type extraction struct {
	Intent     string         `mapstructure:"intent"`
	Confidence float64        `mapstructure:"confidence"`
	Entities   map[string]any `mapstructure:"entities"`
}

// Result is the outcome of one validation round.
type Result struct {
	// Resolution is set when both extractions agree on a known intent.
	Resolution *domain.IntentResolution
	// Unknown is set when both extractions agree the utterance maps to no
	// domain intent. The turn falls through to dynamic execution.
	Unknown bool
	// Clarification is the question to send back when the extractions
	// disagree and another user turn is needed.
	Clarification string
	// Disagreement summarizes the conflict for logs and the ambiguity error.
	Disagreement string
}

// Validator is the second resolution layer. It runs two independent
// structured extractions of the same utterance, one persona-framed and one
// neutral, on distinct backends, and only trusts what both agree on.
type Validator struct {
	primary   ports.LLMService
	secondary ports.LLMService
	log       *slog.Logger
	now       func() time.Time
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithClock fixes the clock used to anchor relative day references.
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) { v.now = now }
}

func NewValidator(primary, secondary ports.LLMService, log *slog.Logger, opts ...ValidatorOption) *Validator {
	v := &Validator{
		primary:   primary,
		secondary: secondary,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs the dual extraction. One backend failing degrades to the
// surviving extraction with a warning; both failing is an external-call
// failure. Disagreements produce a clarification question, not an error;
// the caller tracks attempts and raises IntentAmbiguityError past the cap.
func (v *Validator) Validate(ctx context.Context, d *domain.Domain, utterance string) (*Result, error) {
	schemaDef := extractionSchema(d)

	var prim, sec *extraction
	var primErr, secErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return gctx.Err()
		default:
			prim, primErr = v.extract(gctx, v.primary, personaSystem(d), utterance, schemaDef)
			if primErr != nil {
				v.log.Warn("persona extraction failed", "provider", v.primary.Name(), "err", primErr)
			}
			return nil
		}
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return gctx.Err()
		default:
			sec, secErr = v.extract(gctx, v.secondary, neutralSystem(d), utterance, schemaDef)
			if secErr != nil {
				v.log.Warn("neutral extraction failed", "provider", v.secondary.Name(), "err", secErr)
			}
			return nil
		}
	})
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	switch {
	case primErr != nil && secErr != nil:
		return nil, &domain.ExternalCallError{Target: "intent extraction", Err: errors.Join(primErr, secErr)}
	case primErr != nil:
		return v.single(d, sec), nil
	case secErr != nil:
		return v.single(d, prim), nil
	}

	return v.compare(d, prim, sec), nil
}

// single accepts one extraction when its counterpart's backend was down.
// A lone witness is weaker than agreement but better than refusing the turn.
func (v *Validator) single(d *domain.Domain, ext *extraction) *Result {
	if ext.Intent == IntentUnknown || ext.Intent == "" {
		return &Result{Unknown: true}
	}
	return &Result{Resolution: &domain.IntentResolution{
		Intent:     canonicalIntent(d, ext.Intent),
		Entities:   ext.Entities,
		Confidence: ext.Confidence,
		Layer:      domain.LayerValidator,
	}}
}

func (v *Validator) compare(d *domain.Domain, prim, sec *extraction) *Result {
	primUnknown := prim.Intent == IntentUnknown || prim.Intent == ""
	secUnknown := sec.Intent == IntentUnknown || sec.Intent == ""

	switch {
	case primUnknown && secUnknown:
		return &Result{Unknown: true}
	case primUnknown || secUnknown:
		known := prim.Intent
		if primUnknown {
			known = sec.Intent
		}
		known = canonicalIntent(d, known)
		return &Result{
			Clarification: fmt.Sprintf("Just to confirm: did you want to %s?", known),
			Disagreement:  fmt.Sprintf("intent: %q vs unknown", known),
		}
	}

	if !EquivalentIntents(prim.Intent, sec.Intent) {
		a := canonicalIntent(d, prim.Intent)
		b := canonicalIntent(d, sec.Intent)
		return &Result{
			Clarification: fmt.Sprintf("I want to be sure I understood. Did you mean %q or %q?", a, b),
			Disagreement:  fmt.Sprintf("intent: %q vs %q", a, b),
		}
	}

	// Intents agree; the higher-confidence extraction's renderings win
	// overlapping entities.
	lead, follow := prim, sec
	if sec.Confidence > prim.Confidence {
		lead, follow = sec, prim
	}
	merged, conflicts := MergeExtractions(lead.Entities, follow.Entities, v.now())
	if len(conflicts) > 0 {
		field := conflicts[0]
		return &Result{
			Clarification: fmt.Sprintf("I caught two different values for %s (%v vs %v). Which is correct?",
				field, lead.Entities[field], follow.Entities[field]),
			Disagreement: "entities: " + strings.Join(conflicts, ", "),
		}
	}

	confidence := prim.Confidence
	if sec.Confidence < confidence {
		confidence = sec.Confidence
	}
	return &Result{Resolution: &domain.IntentResolution{
		Intent:     canonicalIntent(d, prim.Intent),
		Entities:   merged,
		Confidence: confidence,
		Layer:      domain.LayerValidator,
	}}
}

func (v *Validator) extract(ctx context.Context, svc ports.LLMService, system, utterance string, schemaDef map[string]any) (*extraction, error) {
	resp, err := svc.Complete(ctx, ports.CompletionRequest{
		System:         system,
		Messages:       []ports.Message{{Role: ports.RoleUser, Content: utterance}},
		ResponseSchema: schemaDef,
	})
	if err != nil {
		return nil, err
	}
	if resp.Structured == nil {
		return nil, fmt.Errorf("%s returned no structured payload", svc.Name())
	}
	var ext extraction
	if err := mapstructure.Decode(resp.Structured, &ext); err != nil {
		return nil, fmt.Errorf("decode extraction: %w", err)
	}
	ext.Intent = strings.TrimSpace(ext.Intent)
	if ext.Entities == nil {
		ext.Entities = map[string]any{}
	}
	return &ext, nil
}

// canonicalIntent maps an extracted label back to the domain's casing.
func canonicalIntent(d *domain.Domain, s string) string {
	for _, intent := range d.Intents() {
		if EquivalentIntents(intent, s) {
			return intent
		}
	}
	return strings.TrimSpace(s)
}
