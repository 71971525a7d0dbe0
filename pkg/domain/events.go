package domain

import "time"

// EventType defines the category of an engine event.
type EventType string

const (
	EventTurnCompleted    EventType = "turn_completed"
	EventPlanSynthesized  EventType = "plan_synthesized"
	EventPatternSuggested EventType = "pattern_suggested"
	EventPatternPromoted  EventType = "pattern_promoted"
	EventSessionFailed    EventType = "session_failed"
)

// Event is a fire-and-forget notification about engine activity.
// Publishers must never block or fail a turn.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"sessionId,omitempty"`
	DomainID  string         `json:"domainId,omitempty"`
	Intent    string         `json:"intent,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(t EventType, sessionID, domainID string) Event {
	return Event{
		Type:      t,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		DomainID:  domainID,
	}
}
