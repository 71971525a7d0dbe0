package runtime

import (
	"fmt"
	"time"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/intent"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/template"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/schema"
)

// Mapping keys the virtual functions read. Everything else in an
// ExtractEntityId mapping is a match criterion.
const (
	mappingSummary = "summary"
	mappingOptions = "options"
	mappingFrom    = "from"
	mappingIDField = "idField"
)

// runVirtual executes one of the engine's built-in functions in-process.
// Virtuals have no compiled schema; each handler checks its own shape.
func (e *Executor) runVirtual(d *domain.Domain, step domain.PlanStep, session *domain.SessionState) (stepOutcome, error) {
	switch step.Function {
	case domain.FuncAskUser:
		return e.askUser(d, step, session), nil
	case domain.FuncConfirmWithUser:
		return e.confirmWithUser(step, session), nil
	case domain.FuncPresentOptions:
		return e.presentOptions(step, session), nil
	case domain.FuncExtractEntityID:
		return e.extractEntityID(step, session)
	}
	return stepOutcome{}, &domain.StateCorruptionError{
		SessionID: session.ID,
		Reason:    fmt.Sprintf("unhandled virtual function %s", step.Function),
	}
}

// askUser pauses until the awaited field arrives. With the field already in
// data the step is a no-op, which is exactly what a resume turn relies on.
func (e *Executor) askUser(d *domain.Domain, step domain.PlanStep, session *domain.SessionState) stepOutcome {
	wait := step.WaitForUser
	if wait == nil || wait.Field == "" {
		e.log.Warn("AskUser step without a wait field", "session", session.ID)
		return failOutcome(step, session.Data)
	}
	if _, ok := session.Data[wait.Field]; ok {
		return executedOutcome(step, session.Data)
	}
	prompt := renderTemplate(wait.Prompt, session.Data, clarificationQuestion(d, wait.Field))
	return stepOutcome{kind: outcomePaused, await: wait.Field, message: prompt}
}

// confirmWithUser renders the summary mapping and waits for a yes/no. A
// negative answer completes the plan with the step's decline rendering; it
// is a user decision, not a failure.
func (e *Executor) confirmWithUser(step domain.PlanStep, session *domain.SessionState) stepOutcome {
	wait := step.WaitForUser
	if wait == nil || wait.Field == "" {
		e.log.Warn("ConfirmWithUser step without a wait field", "session", session.ID)
		return failOutcome(step, session.Data)
	}

	raw, present := session.Data[wait.Field]
	if !present {
		summary := renderTemplate(step.InputMapping[mappingSummary], session.Data, "")
		prompt := renderTemplate(wait.Prompt, session.Data, defaultConfirmPrompt)
		return stepOutcome{kind: outcomePaused, await: wait.Field, message: joinLines(summary, prompt)}
	}

	confirmed, err := schema.ParseConfirmation(raw)
	if err != nil {
		delete(session.Data, wait.Field)
		if bumpClarification(session, wait.Field, defaultConfirmPrompt) > maxFieldAttempts {
			return failOutcome(step, session.Data)
		}
		return stepOutcome{kind: outcomeClarify, await: wait.Field, message: "Please answer yes or no. " + defaultConfirmPrompt}
	}
	if !confirmed {
		return stepOutcome{kind: outcomeDeclined, message: renderTemplate(step.OnError, session.Data, defaultDeclineMessage)}
	}
	if step.OutputAs != "" {
		session.Data[step.OutputAs] = true
	}
	return executedOutcome(step, session.Data)
}

// presentOptions formats a prior step's list output as a numbered list and
// waits for a selection; the chosen element lands under OutputAs.
func (e *Executor) presentOptions(step domain.PlanStep, session *domain.SessionState) stepOutcome {
	wait := step.WaitForUser
	source := step.InputMapping[mappingOptions]
	if wait == nil || wait.Field == "" || source == "" {
		e.log.Warn("PresentOptions step without options or wait field", "session", session.ID)
		return failOutcome(step, session.Data)
	}

	items, ok := lookupList(session.Data, source)
	if !ok || len(items) == 0 {
		e.log.Warn("PresentOptions found no options", "session", session.ID, "source", source)
		return failOutcome(step, session.Data)
	}

	raw, present := session.Data[wait.Field]
	if !present {
		prompt := renderTemplate(wait.Prompt, session.Data, defaultSelectPrompt)
		return stepOutcome{kind: outcomePaused, await: wait.Field, message: joinLines(renderOptions(items), prompt)}
	}

	n, err := schema.ParseSelection(raw)
	if err != nil || n > len(items) {
		delete(session.Data, wait.Field)
		retry := fmt.Sprintf("Please pick a number between 1 and %d.", len(items))
		if bumpClarification(session, wait.Field, retry) > maxFieldAttempts {
			return failOutcome(step, session.Data)
		}
		return stepOutcome{kind: outcomeClarify, await: wait.Field, message: joinLines(renderOptions(items), retry)}
	}

	if step.OutputAs != "" {
		session.Data[step.OutputAs] = items[n-1]
	}
	return executedOutcome(step, session.Data)
}

// extractEntityID picks the item of a prior list output whose fields match
// the extracted entity values, then stores that item's identifier. It never
// pauses: either the data identifies one item or the step fails.
func (e *Executor) extractEntityID(step domain.PlanStep, session *domain.SessionState) (stepOutcome, error) {
	source := step.InputMapping[mappingFrom]
	if source == "" {
		e.log.Warn("ExtractEntityId step without a source list", "session", session.ID)
		return failOutcome(step, session.Data), nil
	}
	items, ok := lookupList(session.Data, source)
	if !ok || len(items) == 0 {
		e.log.Warn("ExtractEntityId found no items", "session", session.ID, "source", source)
		return failOutcome(step, session.Data), nil
	}

	idField := step.InputMapping[mappingIDField]
	if idField == "" {
		idField = "id"
	}

	criteria := make(map[string]any)
	for key, value := range step.InputMapping {
		if key == mappingFrom || key == mappingIDField {
			continue
		}
		want, present, err := resolveMappingValue(value, session.Data)
		if err != nil {
			return stepOutcome{}, err
		}
		if present {
			criteria[key] = want
		}
	}
	if len(criteria) == 0 {
		e.log.Warn("ExtractEntityId has no resolvable match criteria", "session", session.ID)
		return failOutcome(step, session.Data), nil
	}

	now := e.now()
	for _, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if matchesCriteria(fields, criteria, now) {
			id, ok := fields[idField]
			if !ok {
				continue
			}
			if step.OutputAs != "" {
				session.Data[step.OutputAs] = id
			}
			return executedOutcome(step, session.Data), nil
		}
	}

	e.log.Warn("ExtractEntityId matched nothing", "session", session.ID, "source", source)
	return failOutcome(step, session.Data), nil
}

func matchesCriteria(fields map[string]any, criteria map[string]any, now time.Time) bool {
	for key, want := range criteria {
		got, ok := fields[key]
		if !ok || !intent.EquivalentValues(got, want, now) {
			return false
		}
	}
	return true
}

func lookupList(data map[string]any, path string) ([]any, bool) {
	val, ok := template.Lookup(data, path)
	if !ok {
		return nil, false
	}
	items, ok := val.([]any)
	return items, ok
}
