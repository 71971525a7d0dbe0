// Package runtime drives plan execution over session state: one step at a
// time, pausing on user input, validating every parameter object before a
// function is dispatched, and rendering the plan's user-facing messages.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/template"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/observability"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/schema"
)

// maxFieldAttempts bounds how often the engine re-asks for one field
// before the step gives up.
const maxFieldAttempts = 3

// Executor is the plan state machine. It owns no state of its own; every
// execution mutates the supplied SessionState in place and the caller
// persists it.
type Executor struct {
	invoker ports.DomainInvoker
	metrics *observability.Metrics
	log     *slog.Logger
	now     func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock pins the clock used for semantic matching in ExtractEntityId.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// NewExecutor wires the executor. metrics may be nil.
func NewExecutor(invoker ports.DomainInvoker, metrics *observability.Metrics, log *slog.Logger, opts ...Option) *Executor {
	e := &Executor{invoker: invoker, metrics: metrics, log: log, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// outcomeKind classifies what one step execution did.
type outcomeKind int

const (
	outcomeExecuted outcomeKind = iota
	outcomePaused               // waiting on user input
	outcomeClarify              // waiting on a re-asked field
	outcomeDeclined             // user refused a confirmation
	outcomeFailed               // unrecoverable step error
)

// stepOutcome carries a step's disposition back to the execution loop.
// message is the user-facing rendering; await names the field a pause
// waits on.
type stepOutcome struct {
	kind    outcomeKind
	message string
	await   string
}

// Execute advances the plan from the session's current step until it
// pauses, completes, or fails, and returns the message for the user.
//
// The session index always moves one per executed or skipped step and
// never moves on a pause; re-running over identical state and identical
// external responses reproduces the identical data bag and message.
// Returned errors are engine faults (corrupt state, malformed template
// token, cancelled context), never ordinary step failures.
func (e *Executor) Execute(ctx context.Context, d *domain.Domain, reg *schema.Registry, plan *domain.Plan, session *domain.SessionState) (string, error) {
	if session.StepIndex < 0 || session.StepIndex > len(plan.Steps) {
		return "", &domain.StateCorruptionError{
			SessionID: session.ID,
			Reason:    fmt.Sprintf("step index %d outside plan %s (%d steps)", session.StepIndex, plan.ID, len(plan.Steps)),
		}
	}

	var finalMessage string
	for session.StepIndex < len(plan.Steps) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		step := plan.Steps[session.StepIndex]

		if step.SkipIf != "" && evalSkipIf(step.SkipIf, session.Data) {
			e.log.Debug("step skipped", "session", session.ID, "function", step.Function, "skipIf", step.SkipIf)
			e.metrics.RecordStep(d.ID, "skipped")
			session.StepIndex++
			continue
		}

		res, err := e.runStep(ctx, d, reg, step, session)
		if err != nil {
			return "", err
		}

		switch res.kind {
		case outcomePaused:
			session.Status = domain.StatusWaitingForUser
			session.AwaitingField = res.await
			e.metrics.RecordStep(d.ID, "paused")
			return res.message, nil

		case outcomeClarify:
			session.Status = domain.StatusWaitingForUser
			session.AwaitingField = res.await
			e.metrics.RecordStep(d.ID, "clarification")
			return res.message, nil

		case outcomeDeclined:
			session.Status = domain.StatusCompleted
			session.AwaitingField = ""
			session.Clarification = nil
			e.metrics.RecordStep(d.ID, "declined")
			e.log.Info("plan declined by user", "session", session.ID, "plan", plan.ID, "step", session.StepIndex)
			return res.message, nil

		case outcomeFailed:
			session.Status = domain.StatusFailed
			session.AwaitingField = ""
			session.Clarification = nil
			e.metrics.RecordStep(d.ID, "failed")
			return res.message, nil
		}

		session.AwaitingField = ""
		session.Clarification = nil
		e.metrics.RecordStep(d.ID, "ok")
		if res.message != "" {
			finalMessage = res.message
		}
		session.StepIndex++
	}

	session.Status = domain.StatusCompleted
	e.log.Info("plan completed", "session", session.ID, "plan", plan.ID, "steps", len(plan.Steps))
	if finalMessage == "" {
		finalMessage = defaultDoneMessage
	}
	return finalMessage, nil
}

// runStep executes a single step: virtuals in-process, everything else
// validated and dispatched to the domain API.
func (e *Executor) runStep(ctx context.Context, d *domain.Domain, reg *schema.Registry, step domain.PlanStep, session *domain.SessionState) (stepOutcome, error) {
	if domain.IsVirtualFunction(step.Function) {
		return e.runVirtual(d, step, session)
	}

	// A wait directive holds any step, not just a virtual one: the function
	// dispatches only once the awaited field has arrived.
	if wait := step.WaitForUser; wait != nil && wait.Field != "" {
		if _, ok := session.Data[wait.Field]; !ok {
			prompt := renderTemplate(wait.Prompt, session.Data, clarificationQuestion(d, wait.Field))
			return stepOutcome{kind: outcomePaused, await: wait.Field, message: prompt}, nil
		}
	}

	params, err := buildParams(step, session.Data)
	if err != nil {
		return stepOutcome{}, err
	}

	validator, ok := reg.Validator(step.Function)
	if !ok {
		return stepOutcome{}, &domain.StateCorruptionError{
			SessionID: session.ID,
			Reason:    fmt.Sprintf("plan step calls %s, which the domain no longer declares", step.Function),
		}
	}

	if err := validator.Validate(params); err != nil {
		if field, ok := clarifiableField(d, step, validator, err); ok {
			return e.clarify(step, session, d, field), nil
		}
		verr := &domain.ValidationError{Function: step.Function, Err: err}
		e.log.Warn("step parameters rejected", "session", session.ID, "function", step.Function, "err", verr)
		return failOutcome(step, session.Data), nil
	}

	result, err := e.invoker.Invoke(ctx, ports.InvokeRequest{
		DomainID: d.ID,
		Endpoint: d.Endpoint,
		Function: step.Function,
		Params:   params,
	})
	if err != nil {
		if ctx.Err() != nil {
			return stepOutcome{}, ctx.Err()
		}
		e.metrics.RecordExternalCall(d.ID, "error")
		callErr := &domain.ExternalCallError{Target: step.Function, Err: err}
		e.log.Error("domain call failed", "session", session.ID, "function", step.Function, "err", callErr)
		return failOutcome(step, session.Data), nil
	}
	if !result.Success {
		e.metrics.RecordExternalCall(d.ID, "rejected")
		e.log.Warn("domain call rejected", "session", session.ID, "function", step.Function, "reason", result.Error)
		return failOutcome(step, session.Data), nil
	}
	e.metrics.RecordExternalCall(d.ID, "ok")

	if step.OutputAs != "" && result.Data != nil {
		session.Data[step.OutputAs] = result.Data
	}
	return executedOutcome(step, session.Data), nil
}

// clarify pauses the step to ask the user for one field, bounded per field.
func (e *Executor) clarify(step domain.PlanStep, session *domain.SessionState, d *domain.Domain, field string) stepOutcome {
	question := clarificationQuestion(d, field)
	if bumpClarification(session, field, question) > maxFieldAttempts {
		e.log.Warn("field clarification exhausted", "session", session.ID, "function", step.Function, "field", field)
		return failOutcome(step, session.Data)
	}
	return stepOutcome{kind: outcomeClarify, await: field, message: question}
}

// clarifiableField reports the single required field behind a validation
// failure and the session key to collect the answer under. The parameter
// name itself or the bare field its mapping reads must be a declared
// entity; anything else is structural and fails the step.
func clarifiableField(d *domain.Domain, step domain.PlanStep, v *schema.Validator, err error) (string, bool) {
	failures := schema.ValidationErrors(err)
	if len(failures) != 1 {
		return "", false
	}
	param := failures[0].Key
	if failures[0].Reason == "not declared in schema" {
		return "", false
	}
	if !slices.Contains(v.Required(), param) {
		return "", false
	}
	if d.Entity(param) != nil {
		return param, true
	}
	// Parameter mapped to a differently named field: ask for that field so
	// the mapping path finds the answer on resume. Dotted paths are out;
	// an utterance cannot fill a nested structure.
	if mapped := step.InputMapping[param]; mapped != "" && template.FieldRef(mapped) == mapped && d.Entity(mapped) != nil {
		return mapped, true
	}
	return "", false
}

// bumpClarification tracks consecutive asks for the same field on the
// session and returns the attempt count after bumping.
func bumpClarification(session *domain.SessionState, field, question string) int {
	c := session.Clarification
	if c == nil || c.Kind != domain.ClarifyParameter || c.Field != field {
		c = &domain.ClarificationState{Kind: domain.ClarifyParameter, Field: field}
		session.Clarification = c
	}
	c.Attempts++
	c.Question = question
	return c.Attempts
}

// buildParams assembles a step's parameter object from its input mapping.
// A clarified answer lands under the parameter's own name, so an absent
// mapped path falls back to that key; a parameter still missing stays
// absent and the schema decides severity.
func buildParams(step domain.PlanStep, data map[string]any) (map[string]any, error) {
	params := make(map[string]any, len(step.InputMapping))
	for name, value := range step.InputMapping {
		resolved, ok, err := resolveMappingValue(value, data)
		if err != nil {
			return nil, err
		}
		if !ok {
			resolved, ok = data[name]
		}
		if ok {
			params[name] = resolved
		}
	}
	return params, nil
}

// resolveMappingValue resolves one inputMapping value: a ${name} token from
// the reserved namespace, or a dotted path into session data. Unknown
// tokens are configuration errors; absent paths report ok=false.
func resolveMappingValue(value string, data map[string]any) (any, bool, error) {
	if template.IsToken(value) {
		v, err := template.Resolve(value, data)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}
	v, ok := template.Lookup(data, value)
	return v, ok, nil
}

func executedOutcome(step domain.PlanStep, data map[string]any) stepOutcome {
	return stepOutcome{kind: outcomeExecuted, message: renderTemplate(step.OnSuccess, data, "")}
}

func failOutcome(step domain.PlanStep, data map[string]any) stepOutcome {
	return stepOutcome{kind: outcomeFailed, message: renderTemplate(step.OnError, data, defaultErrorMessage)}
}
