package ports

import "context"

// InvokeRequest asks a domain API to execute one function with validated
// parameters. Endpoint comes from the Domain record; the engine never
// assumes the API's internal implementation.
type InvokeRequest struct {
	DomainID string
	Endpoint string
	Function string
	Params   map[string]any
}

// InvokeResult is the domain API's answer: {success, data} or
// {success: false, error}.
type InvokeResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DomainInvoker dispatches non-virtual plan steps and fallback tool calls
// to a domain's API endpoint.
type DomainInvoker interface {
	Invoke(ctx context.Context, req InvokeRequest) (*InvokeResult, error)
}
