// Package pattern holds the engine's learning loop: the fallback executor
// that handles intents no plan covers, the aggregation of its runs into
// observations, and the promotion of proven call sequences into plans.
package pattern

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/template"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/observability"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/schema"
)

// defaultRounds bounds the function-calling conversation. Six rounds cover
// gather, act and report shapes without letting a confused model loop.
const defaultRounds = 6

const exhaustedMessage = "I couldn't finish working through that request. Could you rephrase or break it into smaller steps?"

// Executor handles a turn when no plan exists and synthesis was abandoned:
// one function-calling conversation against the domain's full non-virtual
// registry, every call schema-validated and dispatched like an engine step.
type Executor struct {
	llm     ports.LLMService
	invoker ports.DomainInvoker
	learner *Learner
	metrics *observability.Metrics
	log     *slog.Logger
	rounds  int
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRounds overrides the conversation round bound.
func WithRounds(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.rounds = n
		}
	}
}

// NewExecutor wires the fallback path. learner and metrics may be nil.
func NewExecutor(llm ports.LLMService, invoker ports.DomainInvoker, learner *Learner, metrics *observability.Metrics, log *slog.Logger, opts ...ExecutorOption) *Executor {
	e := &Executor{llm: llm, invoker: invoker, learner: learner, metrics: metrics, log: log, rounds: defaultRounds}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the fallback conversation and returns the reply for the
// turn. The final assistant text is the response; the ordered sequence of
// dispatched functions is reported to the learner, marked successful only
// when every dispatched call succeeded. A run that called nothing teaches
// nothing and is not recorded.
func (e *Executor) Execute(ctx context.Context, d *domain.Domain, reg *schema.Registry, session *domain.SessionState, utterance string) (string, error) {
	tools := toolDefinitions(d)
	messages := []ports.Message{{Role: ports.RoleUser, Content: contextBlock(session, utterance)}}

	var sequence []string
	succeeded := true
	lastText := ""

	for round := 0; round < e.rounds; round++ {
		started := time.Now()
		resp, err := e.llm.Complete(ctx, ports.CompletionRequest{
			System:   fallbackSystem(d),
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", &domain.ExternalCallError{Target: "fallback completion", Err: err}
		}
		e.metrics.RecordLLMCall(e.llm.Name(), "fallback", time.Since(started))

		if len(resp.ToolCalls) == 0 {
			e.observe(ctx, d, session, sequence, succeeded)
			return strings.TrimSpace(resp.Text), nil
		}
		if resp.Text != "" {
			lastText = strings.TrimSpace(resp.Text)
		}

		results := make([]ports.ToolResult, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			res, dispatched, ok, err := e.dispatch(ctx, d, reg, session, call)
			if err != nil {
				return "", err
			}
			if dispatched {
				sequence = append(sequence, call.Name)
			}
			if !ok {
				succeeded = false
			}
			results = append(results, res)
		}

		messages = append(messages,
			ports.Message{Role: ports.RoleAssistant, Content: resp.Text, ToolCalls: resp.ToolCalls},
			ports.Message{Role: ports.RoleUser, ToolResults: results},
		)
	}

	e.log.Warn("fallback conversation exhausted its rounds",
		"session", session.ID, "domain", d.ID, "intent", session.Intent, "rounds", e.rounds)
	e.observe(ctx, d, session, sequence, false)
	if lastText != "" {
		return lastText, nil
	}
	return exhaustedMessage, nil
}

// dispatch validates and executes one tool call. dispatched reports whether
// the call reached the domain API; ok reports whether it counts as clean for
// the run's success signal. Only a cancelled context is returned as error.
func (e *Executor) dispatch(ctx context.Context, d *domain.Domain, reg *schema.Registry, session *domain.SessionState, call ports.ToolCall) (res ports.ToolResult, dispatched, ok bool, err error) {
	res = ports.ToolResult{ID: call.ID}

	if domain.IsVirtualFunction(call.Name) {
		res.IsError = true
		res.Content = fmt.Sprintf("%s is not callable here; ask the user directly in your reply instead", call.Name)
		return res, false, false, nil
	}

	if verr := reg.Validate(call.Name, call.Arguments); verr != nil {
		e.log.Warn("fallback call rejected by schema",
			"session", session.ID, "function", call.Name, "err", verr)
		res.IsError = true
		res.Content = validationContent(verr)
		return res, false, false, nil
	}

	result, callErr := e.invoker.Invoke(ctx, ports.InvokeRequest{
		DomainID: d.ID,
		Endpoint: d.Endpoint,
		Function: call.Name,
		Params:   call.Arguments,
	})
	if callErr != nil {
		if ctx.Err() != nil {
			return res, false, false, ctx.Err()
		}
		e.metrics.RecordExternalCall(d.ID, "error")
		e.log.Error("fallback domain call failed",
			"session", session.ID, "function", call.Name,
			"err", &domain.ExternalCallError{Target: call.Name, Err: callErr})
		res.IsError = true
		res.Content = "the call failed: " + callErr.Error()
		return res, true, false, nil
	}
	if !result.Success {
		e.metrics.RecordExternalCall(d.ID, "rejected")
		e.log.Warn("fallback domain call rejected",
			"session", session.ID, "function", call.Name, "reason", result.Error)
		res.IsError = true
		res.Content = rejectionContent(result.Error)
		return res, true, false, nil
	}
	e.metrics.RecordExternalCall(d.ID, "ok")
	res.Content = resultContent(result.Data)
	return res, true, true, nil
}

func (e *Executor) observe(ctx context.Context, d *domain.Domain, session *domain.SessionState, sequence []string, success bool) {
	if e.learner == nil || len(sequence) == 0 || session.Intent == "" {
		return
	}
	if err := e.learner.Observe(ctx, d.ID, session.Intent, sequence, success); err != nil {
		e.log.Warn("pattern observation failed",
			"session", session.ID, "domain", d.ID, "intent", session.Intent, "err", err)
	}
}

// toolDefinitions renders the domain's dispatchable surface for the model.
// Virtual functions stay off the list; the engine owns those.
func toolDefinitions(d *domain.Domain) []ports.ToolDefinition {
	tools := make([]ports.ToolDefinition, 0, len(d.Functions))
	for _, fn := range d.Functions {
		if fn.Virtual || domain.IsVirtualFunction(fn.Name) {
			continue
		}
		tools = append(tools, ports.ToolDefinition{
			Name:        fn.Name,
			Description: fn.Description,
			Parameters:  schema.ToolSchema(fn),
		})
	}
	return tools
}

func fallbackSystem(d *domain.Domain) string {
	var b strings.Builder
	if d.Persona != "" {
		b.WriteString(d.Persona)
		b.WriteString("\n\n")
	}
	name := d.Name
	if name == "" {
		name = d.ID
	}
	fmt.Fprintf(&b, "You are handling a request for %s. Call the provided functions to fulfil it; never invent data a function could return. If something required is missing or ambiguous, ask the user in plain text instead of guessing. When the work is done, reply with a short plain-text summary of the outcome.\n", name)
	if d.BusinessRules != "" {
		b.WriteString("\nBusiness rules:\n")
		b.WriteString(d.BusinessRules)
		b.WriteString("\n")
	}
	return b.String()
}

// contextBlock appends what earlier layers already extracted, so the model
// does not re-ask for values the user has given.
func contextBlock(session *domain.SessionState, utterance string) string {
	if len(session.Data) == 0 {
		return utterance
	}
	keys := make([]string, 0, len(session.Data))
	for k := range session.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(utterance)
	b.WriteString("\n\nKnown so far:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "  - %s: %s\n", k, template.Stringify(session.Data[k]))
	}
	return strings.TrimRight(b.String(), "\n")
}

func validationContent(err error) string {
	failures := schema.ValidationErrors(err)
	if len(failures) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, f.Key+": "+f.Reason)
	}
	return "invalid parameters: " + strings.Join(parts, "; ")
}

func rejectionContent(reason string) string {
	if reason == "" {
		return "the domain rejected the call"
	}
	return "the domain rejected the call: " + reason
}

func resultContent(data any) string {
	if data == nil {
		return "ok"
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(raw)
}
