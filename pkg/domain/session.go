package domain

import "time"

// ExecutionStatus defines the current mode of a session's plan execution.
type ExecutionStatus string

const (
	StatusRunning        ExecutionStatus = "running"          // Advancing steps
	StatusWaitingForUser ExecutionStatus = "waiting_for_user" // Paused on a waitForUser step
	StatusCompleted      ExecutionStatus = "completed"        // Final step executed
	StatusFailed         ExecutionStatus = "failed"           // Unrecoverable step error
)

// Terminal reports whether the status ends the conversation flow.
func (s ExecutionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ClarificationKind distinguishes what a pending clarification is about.
type ClarificationKind string

const (
	ClarifyIntent    ClarificationKind = "intent"    // Dual-validator disagreement
	ClarifyParameter ClarificationKind = "parameter" // Missing/invalid required parameter
)

// ClarificationState tracks an in-flight clarification exchange with the
// user. Attempts is bounded; exhausting it surfaces an ambiguity error.
type ClarificationState struct {
	Kind     ClarificationKind `json:"kind"`
	Field    string            `json:"field,omitempty"`
	Question string            `json:"question,omitempty"`
	Attempts int               `json:"attempts"`
}

// SessionState is the only mutable, externally persisted state the engine
// owns. It is created on the first turn of a conversation, mutated every
// turn, and expires with the store's TTL policy.
type SessionState struct {
	ID       string `json:"id"`
	DomainID string `json:"domainId"`

	// Intent is the resolved intent driving the active plan, if any.
	Intent string `json:"intent,omitempty"`

	// PlanID names the active plan; empty when no plan is attached.
	PlanID string `json:"planId,omitempty"`

	// StepIndex is the next step to execute. Never exceeds the length of
	// the active plan's step list.
	StepIndex int `json:"stepIndex"`

	// Data accumulates extracted entities, reserved runtime values, and
	// step outputs keyed by outputAs.
	Data map[string]any `json:"data"`

	Status ExecutionStatus `json:"status"`

	// AwaitingField names the field a waitForUser step is paused on.
	AwaitingField string `json:"awaitingField,omitempty"`

	Clarification *ClarificationState `json:"clarification,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSession creates a fresh session for a domain.
func NewSession(id, domainID string) *SessionState {
	now := time.Now().UTC()
	return &SessionState{
		ID:        id,
		DomainID:  domainID,
		Data:      make(map[string]any),
		Status:    StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ClearPlan detaches the active plan and resets execution progress.
// Accumulated data survives so follow-up turns keep their context.
func (s *SessionState) ClearPlan() {
	s.PlanID = ""
	s.Intent = ""
	s.StepIndex = 0
	s.AwaitingField = ""
	s.Status = StatusRunning
}
