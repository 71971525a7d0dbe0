package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

// OpenAI implements ports.LLMService for OpenAI models via the Responses API.
type OpenAI struct {
	client *openai.Client
	config OpenAIConfig
}

// NewOpenAI creates an OpenAI-backed LLM service.
func NewOpenAI(config OpenAIConfig) (*OpenAI, error) {
	if config.Model == "" {
		config.Model = DefaultOpenAIConfig().Model
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultOpenAIConfig().MaxTokens
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
	if config.Organization != "" {
		opts = append(opts, option.WithHeader("OpenAI-Organization", config.Organization))
	}
	if config.Project != "" {
		opts = append(opts, option.WithHeader("OpenAI-Project", config.Project))
	}
	if config.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(config.MaxRetries))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}

	client := openai.NewClient(opts...)
	return &OpenAI{client: &client, config: config}, nil
}

// Name returns the provider identifier.
func (p *OpenAI) Name() string {
	return "openai"
}

// Complete performs a non-streaming completion request.
func (p *OpenAI) Complete(ctx context.Context, req ports.CompletionRequest) (*ports.CompletionResponse, error) {
	params := p.buildParams(req)

	result, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai complete: %w", err)
	}

	return p.convertResponse(result, req.ResponseSchema != nil)
}

func (p *OpenAI) buildParams(req ports.CompletionRequest) responses.ResponseNewParams {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	system := req.System
	if req.ResponseSchema != nil {
		system += "\n\n" + structuredInstruction(req.ResponseSchema)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(p.config.Model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: p.convertMessages(req.Messages, system),
		},
		MaxOutputTokens: openai.Int(int64(maxTokens)),
	}

	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	} else if p.config.Temperature > 0 {
		params.Temperature = openai.Float(p.config.Temperature)
	}

	if len(req.Tools) > 0 {
		params.Tools = p.convertTools(req.Tools)
	}

	return params
}

func (p *OpenAI) convertMessages(messages []ports.Message, system string) responses.ResponseInputParam {
	result := make(responses.ResponseInputParam, 0, len(messages)+1)

	if system != "" {
		result = append(result, responses.ResponseInputItemParamOfMessage(system, responses.EasyInputMessageRoleSystem))
	}

	for _, msg := range messages {
		switch msg.Role {
		case ports.RoleUser:
			for _, tr := range msg.ToolResults {
				result = append(result, responses.ResponseInputItemParamOfFunctionCallOutput(tr.ID, tr.Content))
			}
			if msg.Content != "" || len(msg.ToolResults) == 0 {
				result = append(result, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleUser))
			}
		case ports.RoleAssistant:
			if msg.Content != "" {
				result = append(result, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleAssistant))
			}
		}
	}

	return result
}

func (p *OpenAI) convertTools(tools []ports.ToolDefinition) []responses.ToolUnionParam {
	result := make([]responses.ToolUnionParam, len(tools))
	for i, tool := range tools {
		result[i] = responses.ToolParamOfFunction(tool.Name, ensureObjectType(tool.Parameters), true)
		if tool.Description != "" {
			desc := openai.String(tool.Description)
			function := result[i].OfFunction
			function.Description = desc
			result[i].OfFunction = function
		}
	}
	return result
}

func (p *OpenAI) convertResponse(result *responses.Response, wantStructured bool) (*ports.CompletionResponse, error) {
	if result == nil {
		return nil, fmt.Errorf("openai complete: empty response")
	}

	resp := &ports.CompletionResponse{
		Text:  result.OutputText(),
		Model: string(result.Model),
		Usage: ports.Usage{
			InputTokens:  result.Usage.InputTokens,
			OutputTokens: result.Usage.OutputTokens,
		},
	}

	for _, item := range result.Output {
		if item.Type != "function_call" {
			continue
		}
		var args map[string]any
		if item.Arguments != "" {
			if err := json.Unmarshal([]byte(item.Arguments), &args); err != nil {
				return nil, fmt.Errorf("openai tool arguments: %w", err)
			}
		}
		id := item.CallID
		if id == "" {
			id = item.ID
		}
		resp.ToolCalls = append(resp.ToolCalls, ports.ToolCall{
			ID:        id,
			Name:      item.Name,
			Arguments: args,
		})
	}

	if wantStructured && len(resp.ToolCalls) == 0 {
		structured, err := decodeStructured(resp.Text)
		if err != nil {
			return nil, fmt.Errorf("openai structured reply: %w", err)
		}
		resp.Structured = structured
	}

	return resp, nil
}

func ensureObjectType(params map[string]any) map[string]any {
	if params == nil {
		return map[string]any{"type": "object"}
	}
	if _, hasType := params["type"]; !hasType {
		params["type"] = "object"
	}
	return params
}
