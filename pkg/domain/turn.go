package domain

// TurnRequest is the inbound interface surrounding systems call: one
// conversational turn for one session.
type TurnRequest struct {
	SessionID string `json:"sessionId"`
	DomainID  string `json:"domainId"`
	Utterance string `json:"utterance"`
}

// TurnResult is what a turn hands back to the caller. SessionID echoes the
// session (generated when the request carried none); Response is the
// rendered text for the user; Terminal reports whether the conversation
// flow reached a sink state this turn.
type TurnResult struct {
	SessionID string          `json:"sessionId"`
	Response  string          `json:"response"`
	Status    ExecutionStatus `json:"status"`
	Terminal  bool            `json:"terminal"`
}

// ResolutionLayer identifies which layer produced an intent resolution.
type ResolutionLayer string

const (
	LayerTrigger   ResolutionLayer = "trigger"   // Layer 1 phrase match
	LayerValidator ResolutionLayer = "validator" // Layer 2 dual extraction
)

// IntentResolution is the outcome of intent matching or validation:
// the intent name, any entities extracted alongside it, and a confidence
// score (always 1.0 for trigger matches).
type IntentResolution struct {
	Intent     string          `json:"intent"`
	Entities   map[string]any  `json:"entities,omitempty"`
	Confidence float64         `json:"confidence"`
	Layer      ResolutionLayer `json:"layer"`
}
