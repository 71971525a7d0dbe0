// Package testutil carries the fakes shared by tests that exercise the
// whole pipeline: a scripted language-model service, a recording domain
// invoker, and a fixture domain. Packages testing a single component keep
// their own local fakes.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

// Clock is the fixed instant pipeline tests anchor relative dates to.
func Clock() time.Time {
	return time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)
}

// Reply scripts one LLM response: structured payload, tool calls, plain
// text, or an error.
type Reply struct {
	Structured map[string]any
	ToolCalls  []ports.ToolCall
	Text       string
	Err        error
}

// ScriptedLLM replays scripted replies in order and records every request.
// Once the script runs out it keeps returning the final reply, so a test
// scripts only the turns it cares about.
type ScriptedLLM struct {
	ServiceName string

	mu      sync.Mutex
	replies []Reply
	calls   []ports.CompletionRequest
}

// NewScriptedLLM creates a scripted backend with the given reply sequence.
func NewScriptedLLM(name string, replies ...Reply) *ScriptedLLM {
	return &ScriptedLLM{ServiceName: name, replies: replies}
}

func (s *ScriptedLLM) Name() string { return s.ServiceName }

func (s *ScriptedLLM) Complete(_ context.Context, req ports.CompletionRequest) (*ports.CompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)

	if len(s.replies) == 0 {
		return nil, fmt.Errorf("%s has no scripted replies", s.ServiceName)
	}
	i := len(s.calls) - 1
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	r := s.replies[i]
	if r.Err != nil {
		return nil, r.Err
	}
	return &ports.CompletionResponse{
		Text:       r.Text,
		Structured: r.Structured,
		ToolCalls:  r.ToolCalls,
		Model:      s.ServiceName,
	}, nil
}

// Calls returns how many completions the backend served.
func (s *ScriptedLLM) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Request returns the i-th recorded completion request.
func (s *ScriptedLLM) Request(i int) ports.CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[i]
}

// Invoker is a recording ports.DomainInvoker. Unscripted functions succeed
// with a nil payload.
type Invoker struct {
	mu      sync.Mutex
	calls   []ports.InvokeRequest
	results map[string]*ports.InvokeResult
	errs    map[string]error
}

func NewInvoker() *Invoker {
	return &Invoker{
		results: make(map[string]*ports.InvokeResult),
		errs:    make(map[string]error),
	}
}

// Script sets the result returned for a function name.
func (f *Invoker) Script(function string, result *ports.InvokeResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[function] = result
}

// Fail makes a function name return a transport error.
func (f *Invoker) Fail(function string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[function] = err
}

func (f *Invoker) Invoke(_ context.Context, req ports.InvokeRequest) (*ports.InvokeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if err, ok := f.errs[req.Function]; ok {
		return nil, err
	}
	if res, ok := f.results[req.Function]; ok {
		return res, nil
	}
	return &ports.InvokeResult{Success: true}, nil
}

// Calls returns every recorded invocation.
func (f *Invoker) Calls() []ports.InvokeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ports.InvokeRequest, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsFor counts invocations of one function.
func (f *Invoker) CallsFor(function string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Function == function {
			n++
		}
	}
	return n
}

// BookingDomain is the fixture domain pipeline tests run against: an
// appointment-booking catalog with one trigger, two entities and a mix of
// read and critical operations.
func BookingDomain() *domain.Domain {
	return &domain.Domain{
		ID:                 "dental",
		Name:               "Dental Clinic",
		Persona:            "You are the friendly scheduling assistant for a dental clinic.",
		Endpoint:           "https://dental.example.com/api",
		BusinessRules:      "Appointments require a patient name and a future date.",
		CriticalOperations: []string{"Create*", "Cancel*"},
		Functions: []domain.FunctionDefinition{
			{
				Name:        "FindOpenSlots",
				Description: "List open appointment slots in a date range.",
				Parameters: map[string]domain.ParameterSpec{
					"DateStart": {Type: "date", Required: true},
					"DateEnd":   {Type: "date", Required: true},
				},
			},
			{
				Name:        "CreateAppointment",
				Description: "Book an appointment for a patient.",
				Parameters: map[string]domain.ParameterSpec{
					"patientName": {Type: "name", Required: true},
					"slotId":      {Type: "id", Required: true},
				},
			},
		},
		Entities: []domain.EntityDefinition{
			{Name: "patientName", Type: "name", Hint: "the patient's full name"},
			{Name: "chosenDate", Type: "date", Hint: "the date the caller wants"},
		},
		Triggers: []domain.TriggerPhrase{
			{Phrase: "book", Intent: "book_appointment"},
		},
	}
}
