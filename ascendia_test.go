package ascendia_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ascendia "github.com/Sam-lateef/Ascendia-booking-sub000"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/testutil"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/adapters/memory"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/catalog"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

type fixedSource struct {
	domains []*domain.Domain
}

func (s fixedSource) Load(_ context.Context) ([]*domain.Domain, error) {
	return s.domains, nil
}

func newEngine(t *testing.T, opts ...ascendia.Option) (*ascendia.Engine, *testutil.ScriptedLLM) {
	t.Helper()

	primary := testutil.NewScriptedLLM("primary")
	base := []ascendia.Option{
		ascendia.WithCatalogSource(fixedSource{domains: []*domain.Domain{testutil.BookingDomain()}}),
		ascendia.WithModels(primary, testutil.NewScriptedLLM("secondary"), testutil.NewScriptedLLM("fallback")),
		ascendia.WithInvoker(testutil.NewInvoker()),
		ascendia.WithClock(testutil.Clock),
	}
	engine, err := ascendia.New("", append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return engine, primary
}

func storedBookingPlan() *domain.Plan {
	return &domain.Plan{
		ID:       "plan-book",
		DomainID: "dental",
		Name:     "book_appointment",
		Intents:  []string{"book_appointment"},
		Steps: []domain.PlanStep{{
			Function: "FindOpenSlots",
			InputMapping: map[string]string{
				"DateStart": "${todayISO}",
				"DateEnd":   "${safeDateEnd}",
			},
			OutputAs:  "slots",
			OnSuccess: "Here's what I found.",
		}},
	}
}

func TestEngineServesTriggerTurnWithoutModels(t *testing.T) {
	plans := memory.NewPlanStore()
	require.NoError(t, plans.Save(context.Background(), storedBookingPlan()))

	engine, primary := newEngine(t, ascendia.WithPlanStore(plans))

	result, err := engine.Handle(context.Background(), domain.TurnRequest{
		DomainID:  "dental",
		Utterance: "please book me in",
	})
	require.NoError(t, err)

	assert.Equal(t, "Here's what I found.", result.Response)
	assert.Equal(t, domain.StatusCompleted, result.Status)
	assert.NotEmpty(t, result.SessionID)
	assert.Zero(t, primary.Calls(), "trigger hits must not touch a model")
}

func TestEngineCountsModelCallsByPurpose(t *testing.T) {
	extraction := testutil.Reply{Structured: map[string]any{
		"intent":     "book_appointment",
		"confidence": 0.9,
		"entities":   map[string]any{},
	}}
	primary := testutil.NewScriptedLLM("primary", extraction)
	secondary := testutil.NewScriptedLLM("secondary", extraction)

	plans := memory.NewPlanStore()
	require.NoError(t, plans.Save(context.Background(), storedBookingPlan()))

	engine, err := ascendia.New("",
		ascendia.WithCatalogSource(fixedSource{domains: []*domain.Domain{testutil.BookingDomain()}}),
		ascendia.WithModels(primary, secondary, testutil.NewScriptedLLM("fallback")),
		ascendia.WithInvoker(testutil.NewInvoker()),
		ascendia.WithClock(testutil.Clock),
		ascendia.WithPlanStore(plans),
	)
	require.NoError(t, err)
	defer func() { _ = engine.Close() }()

	// No trigger phrase, so the turn goes through dual extraction.
	result, err := engine.Handle(context.Background(), domain.TurnRequest{
		DomainID:  "dental",
		Utterance: "I'd like to come in for a cleaning",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, result.Status)
	require.Equal(t, 1, primary.Calls())
	require.Equal(t, 1, secondary.Calls())

	assert.Equal(t, 1.0, llmCallCount(t, engine, "primary", "extraction"))
	assert.Equal(t, 1.0, llmCallCount(t, engine, "secondary", "extraction"))
	assert.Equal(t, 0.0, llmCallCount(t, engine, "primary", "synthesis"))
}

// llmCallCount reads one ascendia_llm_calls_total series off the engine's
// registry.
func llmCallCount(t *testing.T, engine *ascendia.Engine, provider, purpose string) float64 {
	t.Helper()
	families, err := engine.Metrics().Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "ascendia_llm_calls_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["provider"] == provider && labels["purpose"] == purpose {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestEngineRequiresModels(t *testing.T) {
	_, err := ascendia.New("", ascendia.WithCatalogSource(fixedSource{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model provider")
}

func TestEngineRequiresPathOrSource(t *testing.T) {
	_, err := ascendia.New("", ascendia.WithModels(testutil.NewScriptedLLM("p"), nil, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domainsPath")
}

func TestEngineCatalogAccessors(t *testing.T) {
	engine, _ := newEngine(t)

	ids, err := engine.Catalog().Domains(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"dental"}, ids)

	entry, err := engine.Catalog().Domain(context.Background(), "dental")
	require.NoError(t, err)
	assert.NotNil(t, entry.Validators)
}

func TestRunnerDrivesConversation(t *testing.T) {
	plans := memory.NewPlanStore()
	require.NoError(t, plans.Save(context.Background(), storedBookingPlan()))
	engine, _ := newEngine(t, ascendia.WithPlanStore(plans))

	var out bytes.Buffer
	runner := ascendia.NewRunner("dental")
	runner.Input = strings.NewReader("book me in\n/quit\n")
	runner.Output = &out
	runner.Headless = true

	require.NoError(t, runner.Run(context.Background(), engine))
	assert.Contains(t, out.String(), "Here's what I found.")
}

func TestRunnerRejectsMissingIO(t *testing.T) {
	engine, _ := newEngine(t)

	runner := ascendia.NewRunner("dental")
	require.Error(t, runner.Run(context.Background(), engine))

	runner.Input = strings.NewReader("")
	require.Error(t, runner.Run(context.Background(), engine))
}

var _ catalog.Source = fixedSource{}
