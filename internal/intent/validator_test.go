package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/logging"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

type stubLLM struct {
	name    string
	payload map[string]any
	err     error
	lastReq ports.CompletionRequest
}

func (s *stubLLM) Name() string { return s.name }

func (s *stubLLM) Complete(ctx context.Context, req ports.CompletionRequest) (*ports.CompletionResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &ports.CompletionResponse{Structured: s.payload, Model: s.name}, nil
}

func testClock() time.Time { return anchor }

func newTestValidator(primary, secondary *stubLLM) *Validator {
	return NewValidator(primary, secondary, logging.NewNop(), WithClock(testClock))
}

func TestValidateAgreement(t *testing.T) {
	primary := &stubLLM{name: "primary", payload: map[string]any{
		"intent":     "Book Appointment",
		"confidence": 0.9,
		"entities":   map[string]any{"patientName": "Ann Barton", "chosenDate": "tomorrow"},
	}}
	secondary := &stubLLM{name: "secondary", payload: map[string]any{
		"intent":     "book appointment",
		"confidence": 0.8,
		"entities":   map[string]any{"chosenDate": "2025-06-16", "phone": "555-123-4567"},
	}}

	res, err := newTestValidator(primary, secondary).Validate(context.Background(), dentalDomain(), "it's Ann, get me in tomorrow")
	require.NoError(t, err)
	require.NotNil(t, res.Resolution)

	assert.Equal(t, "book appointment", res.Resolution.Intent, "canonical domain casing wins")
	assert.Equal(t, domain.LayerValidator, res.Resolution.Layer)
	assert.InDelta(t, 0.8, res.Resolution.Confidence, 1e-9, "agreement confidence is the weaker witness")
	assert.Equal(t, "Ann Barton", res.Resolution.Entities["patientName"])
	assert.Equal(t, "tomorrow", res.Resolution.Entities["chosenDate"], "higher-confidence rendering wins overlaps")
	assert.Equal(t, "555-123-4567", res.Resolution.Entities["phone"], "one-sided entities merge in")

	// Both calls ran with distinct framings against the same schema.
	require.NotEmpty(t, primary.lastReq.System)
	require.NotEmpty(t, secondary.lastReq.System)
	assert.NotEqual(t, primary.lastReq.System, secondary.lastReq.System)
	assert.Equal(t, primary.lastReq.ResponseSchema, secondary.lastReq.ResponseSchema)
}

func TestValidateIntentDisagreement(t *testing.T) {
	primary := &stubLLM{name: "primary", payload: map[string]any{
		"intent": "book appointment", "confidence": 0.9, "entities": map[string]any{},
	}}
	secondary := &stubLLM{name: "secondary", payload: map[string]any{
		"intent": "cancel appointment", "confidence": 0.85, "entities": map[string]any{},
	}}

	res, err := newTestValidator(primary, secondary).Validate(context.Background(), dentalDomain(), "about my appointment...")
	require.NoError(t, err)
	assert.Nil(t, res.Resolution)
	assert.NotEmpty(t, res.Clarification)
	assert.Contains(t, res.Clarification, "book appointment")
	assert.Contains(t, res.Clarification, "cancel appointment")
	assert.Contains(t, res.Disagreement, "intent")
}

func TestValidateEntityConflict(t *testing.T) {
	primary := &stubLLM{name: "primary", payload: map[string]any{
		"intent": "book appointment", "confidence": 0.9,
		"entities": map[string]any{"chosenDate": "2025-06-16"},
	}}
	secondary := &stubLLM{name: "secondary", payload: map[string]any{
		"intent": "book appointment", "confidence": 0.9,
		"entities": map[string]any{"chosenDate": "2025-06-20"},
	}}

	res, err := newTestValidator(primary, secondary).Validate(context.Background(), dentalDomain(), "book me in")
	require.NoError(t, err)
	assert.Nil(t, res.Resolution)
	assert.Contains(t, res.Clarification, "chosenDate")
	assert.Contains(t, res.Disagreement, "chosenDate")
}

func TestValidateBothUnknown(t *testing.T) {
	primary := &stubLLM{name: "primary", payload: map[string]any{
		"intent": "unknown", "confidence": 0.3, "entities": map[string]any{},
	}}
	secondary := &stubLLM{name: "secondary", payload: map[string]any{
		"intent": "unknown", "confidence": 0.2, "entities": map[string]any{},
	}}

	res, err := newTestValidator(primary, secondary).Validate(context.Background(), dentalDomain(), "sing me a song")
	require.NoError(t, err)
	assert.True(t, res.Unknown)
	assert.Nil(t, res.Resolution)
	assert.Empty(t, res.Clarification)
}

func TestValidateOneUnknown(t *testing.T) {
	primary := &stubLLM{name: "primary", payload: map[string]any{
		"intent": "book appointment", "confidence": 0.7, "entities": map[string]any{},
	}}
	secondary := &stubLLM{name: "secondary", payload: map[string]any{
		"intent": "unknown", "confidence": 0.6, "entities": map[string]any{},
	}}

	res, err := newTestValidator(primary, secondary).Validate(context.Background(), dentalDomain(), "hmm appointment I guess")
	require.NoError(t, err)
	assert.Nil(t, res.Resolution)
	assert.False(t, res.Unknown)
	assert.Contains(t, res.Clarification, "book appointment")
}

func TestValidateDegradedSingleBackend(t *testing.T) {
	primary := &stubLLM{name: "primary", err: errors.New("boom")}
	secondary := &stubLLM{name: "secondary", payload: map[string]any{
		"intent": "cancel appointment", "confidence": 0.75,
		"entities": map[string]any{"patientName": "Ann"},
	}}

	res, err := newTestValidator(primary, secondary).Validate(context.Background(), dentalDomain(), "cancel it")
	require.NoError(t, err)
	require.NotNil(t, res.Resolution)
	assert.Equal(t, "cancel appointment", res.Resolution.Intent)
	assert.Equal(t, "Ann", res.Resolution.Entities["patientName"])
}

func TestValidateBothBackendsDown(t *testing.T) {
	primary := &stubLLM{name: "primary", err: errors.New("boom a")}
	secondary := &stubLLM{name: "secondary", err: errors.New("boom b")}

	_, err := newTestValidator(primary, secondary).Validate(context.Background(), dentalDomain(), "cancel it")
	require.Error(t, err)
	var callErr *domain.ExternalCallError
	assert.ErrorAs(t, err, &callErr)
}
