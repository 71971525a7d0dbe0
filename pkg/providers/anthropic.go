// Package providers implements the LLM service port for the model backends
// the engine pairs for cross-validation.
package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

// Anthropic implements ports.LLMService for Anthropic's Claude models.
type Anthropic struct {
	client *anthropic.Client
	config AnthropicConfig
}

// NewAnthropic creates an Anthropic-backed LLM service.
func NewAnthropic(config AnthropicConfig) (*Anthropic, error) {
	if config.Model == "" {
		config.Model = DefaultAnthropicConfig().Model
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultAnthropicConfig().MaxTokens
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(config.MaxRetries))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}

	client := anthropic.NewClient(opts...)
	return &Anthropic{client: &client, config: config}, nil
}

// Name returns the provider identifier.
func (p *Anthropic) Name() string {
	return "anthropic"
}

// Complete performs a non-streaming completion request.
func (p *Anthropic) Complete(ctx context.Context, req ports.CompletionRequest) (*ports.CompletionResponse, error) {
	params := p.buildParams(req)

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic complete: %w", err)
	}

	return p.convertResponse(msg, req.ResponseSchema != nil)
}

func (p *Anthropic) buildParams(req ports.CompletionRequest) anthropic.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	system := req.System
	if req.ResponseSchema != nil {
		system += "\n\n" + structuredInstruction(req.ResponseSchema)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		MaxTokens: int64(maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: p.convertMessages(req.Messages),
	}

	if len(req.Tools) > 0 {
		params.Tools = p.convertTools(req.Tools)
	}

	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	} else if p.config.Temperature > 0 {
		params.Temperature = anthropic.Float(p.config.Temperature)
	}

	return params
}

func (p *Anthropic) convertMessages(messages []ports.Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case ports.RoleUser:
			if len(msg.ToolResults) > 0 {
				blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.ToolResults)+1)
				for _, tr := range msg.ToolResults {
					blocks = append(blocks, anthropic.NewToolResultBlock(tr.ID, tr.Content, tr.IsError))
				}
				if msg.Content != "" {
					blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
				}
				result = append(result, anthropic.NewUserMessage(blocks...))
			} else {
				result = append(result, anthropic.NewUserMessage(
					anthropic.NewTextBlock(msg.Content),
				))
			}

		case ports.RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.ToolCalls)+1)
				if msg.Content != "" {
					blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
				}
				for _, tc := range msg.ToolCalls {
					blocks = append(blocks, anthropic.ContentBlockParamUnion{
						OfToolUse: &anthropic.ToolUseBlockParam{
							ID:    tc.ID,
							Name:  tc.Name,
							Input: tc.Arguments,
						},
					})
				}
				result = append(result, anthropic.NewAssistantMessage(blocks...))
			} else {
				result = append(result, anthropic.NewAssistantMessage(
					anthropic.NewTextBlock(msg.Content),
				))
			}
		}
	}

	return result
}

func (p *Anthropic) convertTools(tools []ports.ToolDefinition) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, tool := range tools {
		result[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name,
				Description: anthropic.String(tool.Description),
				InputSchema: buildAnthropicSchema(tool.Parameters),
			},
		}
	}
	return result
}

func buildAnthropicSchema(params map[string]any) anthropic.ToolInputSchemaParam {
	return anthropic.ToolInputSchemaParam{
		Type:       "object",
		Properties: params["properties"],
		Required:   extractRequiredFields(params),
	}
}

func extractRequiredFields(params map[string]any) []string {
	switch req := params["required"].(type) {
	case []string:
		return req
	case []any:
		result := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				result = append(result, s)
			}
		}
		return result
	}
	return nil
}

func (p *Anthropic) convertResponse(msg *anthropic.Message, wantStructured bool) (*ports.CompletionResponse, error) {
	var content string
	var toolCalls []ports.ToolCall

	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			content += b.Text
		case anthropic.ToolUseBlock:
			raw, _ := b.Input.MarshalJSON()
			var args map[string]any
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("anthropic tool arguments: %w", err)
			}
			toolCalls = append(toolCalls, ports.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: args,
			})
		}
	}

	resp := &ports.CompletionResponse{
		Text:      content,
		ToolCalls: toolCalls,
		Model:     string(msg.Model),
		Usage: ports.Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}

	if wantStructured && len(toolCalls) == 0 {
		structured, err := decodeStructured(content)
		if err != nil {
			return nil, fmt.Errorf("anthropic structured reply: %w", err)
		}
		resp.Structured = structured
	}

	return resp, nil
}
