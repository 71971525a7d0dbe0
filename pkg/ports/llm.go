package ports

import "context"

// Message roles understood by the LLM adapters.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation entry in a completion request.
// Assistant messages may carry ToolCalls; user messages may carry
// ToolResults answering them.
type Message struct {
	Role        string
	Content     string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// ToolDefinition declares a callable function to the model.
// Parameters is a JSON-schema object ({"type":"object","properties":...}).
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is the model asking for a function invocation.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolResult carries a function invocation's outcome back to the model.
type ToolResult struct {
	ID      string
	Content string
	IsError bool
}

// CompletionRequest is a single structured completion exchange.
//
// When ResponseSchema is set the adapter instructs the model to answer
// with JSON conforming to it and parses the reply into
// CompletionResponse.Structured. When Tools are set the model may answer
// with ToolCalls instead of text.
type CompletionRequest struct {
	System         string
	Messages       []Message
	ResponseSchema map[string]any
	Tools          []ToolDefinition
	MaxTokens      int
	Temperature    float64
}

// Usage reports token consumption for a completion.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	Text       string
	Structured map[string]any
	ToolCalls  []ToolCall
	Usage      Usage
	Model      string
}

// LLMService is the engine's view of a language-model backend: a pure
// request/response boundary. Callers bound each call with a deadline
// context; transport-level retry policy belongs to the adapter.
type LLMService interface {
	// Name identifies the backend (e.g. "anthropic", "openai") for
	// logging and metrics.
	Name() string

	// Complete issues one completion request.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
