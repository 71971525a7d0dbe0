package ports

import (
	"context"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// SessionStore persists conversation state between turns. This enables
// pause/resume across turns handled by different worker instances.
type SessionStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.SessionState) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.SessionState, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of live sessions.
	List(ctx context.Context) ([]string, error)
}

// PlanStore persists plans keyed by (domain, intent). Writes replace the
// whole plan; reads must never mutate.
type PlanStore interface {
	// Get retrieves the plan for a (domain, intent) key.
	// Returns domain.ErrPlanNotFound when no plan is cached for the key.
	Get(ctx context.Context, domainID, intent string) (*domain.Plan, error)

	// Save persists the plan under every intent it satisfies.
	Save(ctx context.Context, plan *domain.Plan) error

	// List returns all plans stored for a domain.
	List(ctx context.Context, domainID string) ([]*domain.Plan, error)

	// Delete removes the plan for a (domain, intent) key.
	Delete(ctx context.Context, domainID, intent string) error
}

// PatternStore aggregates fallback-execution observations. Observe must be
// atomic: concurrent observations of one fingerprint never lose counts.
type PatternStore interface {
	// Observe upserts the observation identified by obs.Fingerprint,
	// atomically incrementing TimesObserved (and SuccessCount when success
	// is true). The stored sequence/domain/intent are written once.
	Observe(ctx context.Context, obs *domain.PatternObservation, success bool) error

	// Get retrieves one observation by fingerprint.
	// Returns domain.ErrPatternNotFound when the fingerprint is unknown.
	Get(ctx context.Context, fingerprint string) (*domain.PatternObservation, error)

	// ListByStatus returns observations with the given status.
	ListByStatus(ctx context.Context, status domain.PatternStatus) ([]*domain.PatternObservation, error)

	// SetStatus moves an observation through the promotion funnel.
	// Returns domain.ErrPatternNotFound when the fingerprint is unknown.
	SetStatus(ctx context.Context, fingerprint string, status domain.PatternStatus) error

	// Delete removes an observation.
	Delete(ctx context.Context, fingerprint string) error
}
