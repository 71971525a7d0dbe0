package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrPlanNotFound is returned when no plan is cached for a (domain, intent) key.
var ErrPlanNotFound = errors.New("plan not found")

// ErrPatternNotFound is returned when a fingerprint has no observation.
var ErrPatternNotFound = errors.New("pattern observation not found")

// ErrDomainNotFound is returned when a domain ID is not in the catalog.
var ErrDomainNotFound = errors.New("domain not found")

// ValidationError reports that an assembled parameter object failed its
// function's schema check. The function was never invoked; there are no
// partial side effects.
type ValidationError struct {
	Function string
	Field    string // primary offending field, when attributable
	Err      error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s (field %q): %v", e.Function, e.Field, e.Err)
	}
	return fmt.Sprintf("validation failed for %s: %v", e.Function, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IntentAmbiguityError reports that the dual intent validators still
// disagreed after the clarification retry bound.
type IntentAmbiguityError struct {
	DomainID     string
	Disagreement string
}

func (e *IntentAmbiguityError) Error() string {
	return fmt.Sprintf("intent remains ambiguous in domain %s: %s", e.DomainID, e.Disagreement)
}

// WorkflowSynthesisError reports that both plan-generation attempts failed
// the deterministic quality gate. Callers route to the fallback executor;
// nothing is surfaced to the end user.
type WorkflowSynthesisError struct {
	DomainID string
	Intent   string
	Reasons  []string
}

func (e *WorkflowSynthesisError) Error() string {
	return fmt.Sprintf("plan synthesis failed for %s/%s: %s", e.DomainID, e.Intent, strings.Join(e.Reasons, "; "))
}

// ExternalCallError reports a failure or timeout from the domain API or
// the language-model service.
type ExternalCallError struct {
	Target string // function name or provider id
	Err    error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("external call %s failed: %v", e.Target, e.Err)
}

func (e *ExternalCallError) Unwrap() error { return e.Err }

// StateCorruptionError reports that a resumed session references a plan,
// step, or field that is no longer resolvable. The session state is
// terminated; the next turn restarts intent resolution from Layer 1.
type StateCorruptionError struct {
	SessionID string
	Reason    string
}

func (e *StateCorruptionError) Error() string {
	return fmt.Sprintf("session %s state corrupted: %s", e.SessionID, e.Reason)
}

// TemplateError reports a ${token} that names nothing in the reserved
// runtime namespace. This is a configuration error in the plan, surfaced
// immediately rather than silently defaulted.
type TemplateError struct {
	Token string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template token %q is not a reserved runtime name", e.Token)
}
