package pattern_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/logging"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/pattern"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

var learnerClock = func() time.Time {
	return time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
}

type fakePatternStore struct {
	mu  sync.Mutex
	obs map[string]*domain.PatternObservation
}

func newFakePatternStore() *fakePatternStore {
	return &fakePatternStore{obs: make(map[string]*domain.PatternObservation)}
}

func (f *fakePatternStore) Observe(_ context.Context, obs *domain.PatternObservation, success bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.obs[obs.Fingerprint]
	if !ok {
		cur = &domain.PatternObservation{
			Fingerprint: obs.Fingerprint,
			DomainID:    obs.DomainID,
			Intent:      obs.Intent,
			Sequence:    append([]string(nil), obs.Sequence...),
			Status:      domain.PatternObserved,
			FirstSeen:   time.Now().UTC(),
		}
		f.obs[obs.Fingerprint] = cur
	}
	cur.TimesObserved++
	if success {
		cur.SuccessCount++
	}
	cur.LastSeen = time.Now().UTC()
	return nil
}

func (f *fakePatternStore) Get(_ context.Context, fingerprint string) (*domain.PatternObservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.obs[fingerprint]
	if !ok {
		return nil, domain.ErrPatternNotFound
	}
	return copyObservation(cur), nil
}

func (f *fakePatternStore) ListByStatus(_ context.Context, status domain.PatternStatus) ([]*domain.PatternObservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.PatternObservation
	for _, cur := range f.obs {
		if cur.Status == status {
			out = append(out, copyObservation(cur))
		}
	}
	return out, nil
}

func (f *fakePatternStore) SetStatus(_ context.Context, fingerprint string, status domain.PatternStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.obs[fingerprint]
	if !ok {
		return domain.ErrPatternNotFound
	}
	cur.Status = status
	return nil
}

func (f *fakePatternStore) Delete(_ context.Context, fingerprint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.obs, fingerprint)
	return nil
}

func (f *fakePatternStore) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.obs)
}

func copyObservation(cur *domain.PatternObservation) *domain.PatternObservation {
	copied := *cur
	copied.Sequence = append([]string(nil), cur.Sequence...)
	return &copied
}

type fakePlanStore struct {
	mu    sync.Mutex
	plans map[string]*domain.Plan
}

func newFakePlanStore() *fakePlanStore {
	return &fakePlanStore{plans: make(map[string]*domain.Plan)}
}

func planKey(domainID, intent string) string { return domainID + "\x00" + intent }

func (f *fakePlanStore) Get(_ context.Context, domainID, intent string) (*domain.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	plan, ok := f.plans[planKey(domainID, intent)]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}

func (f *fakePlanStore) Save(_ context.Context, plan *domain.Plan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, intent := range plan.Intents {
		f.plans[planKey(plan.DomainID, intent)] = plan
	}
	return nil
}

func (f *fakePlanStore) List(_ context.Context, domainID string) ([]*domain.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var out []*domain.Plan
	for _, plan := range f.plans {
		if plan.DomainID == domainID && !seen[plan.ID] {
			seen[plan.ID] = true
			out = append(out, plan)
		}
	}
	return out, nil
}

func (f *fakePlanStore) Delete(_ context.Context, domainID, intent string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.plans, planKey(domainID, intent))
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingPublisher) Publish(_ context.Context, event domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) ofType(t domain.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newLearnerFixture(opts ...pattern.LearnerOption) (*pattern.Learner, *fakePatternStore, *fakePlanStore, *recordingPublisher) {
	patterns := newFakePatternStore()
	plans := newFakePlanStore()
	pub := &recordingPublisher{}
	all := append([]pattern.LearnerOption{pattern.WithClock(learnerClock)}, opts...)
	learner := pattern.NewLearner(patterns, plans, pub, nil, logging.NewNop(), all...)
	return learner, patterns, plans, pub
}

var balanceSequence = []string{"FindPatient", "GetPatientBalance"}

func observeN(t *testing.T, l *pattern.Learner, n int, success bool) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, l.Observe(context.Background(), "dental", "check balance", balanceSequence, success))
	}
}

func TestObserveBelowThresholdStaysObserved(t *testing.T) {
	learner, patterns, _, pub := newLearnerFixture()
	observeN(t, learner, 4, true)

	fp := domain.PatternFingerprint("dental", "check balance", balanceSequence)
	obs, err := patterns.Get(context.Background(), fp)
	require.NoError(t, err)
	assert.Equal(t, int64(4), obs.TimesObserved)
	assert.Equal(t, domain.PatternObserved, obs.Status)
	assert.Empty(t, pub.ofType(domain.EventPatternSuggested))
}

func TestObserveCrossingThresholdSuggests(t *testing.T) {
	learner, patterns, _, pub := newLearnerFixture()
	observeN(t, learner, 1, false)
	observeN(t, learner, 4, true)

	fp := domain.PatternFingerprint("dental", "check balance", balanceSequence)
	obs, err := patterns.Get(context.Background(), fp)
	require.NoError(t, err)
	assert.Equal(t, int64(5), obs.TimesObserved)
	assert.Equal(t, int64(4), obs.SuccessCount)
	assert.Equal(t, domain.PatternSuggested, obs.Status)

	suggested := pub.ofType(domain.EventPatternSuggested)
	require.Len(t, suggested, 1)
	assert.Equal(t, "dental", suggested[0].DomainID)
	assert.Equal(t, "check balance", suggested[0].Intent)
	assert.Equal(t, fp, suggested[0].Detail["fingerprint"])
	assert.Equal(t, int64(5), suggested[0].Detail["observed"])

	// Further observations keep counting but never re-suggest.
	observeN(t, learner, 1, true)
	obs, err = patterns.Get(context.Background(), fp)
	require.NoError(t, err)
	assert.Equal(t, int64(6), obs.TimesObserved)
	assert.Equal(t, domain.PatternSuggested, obs.Status)
	assert.Len(t, pub.ofType(domain.EventPatternSuggested), 1)
}

func TestObserveLowSuccessRateNeverSuggests(t *testing.T) {
	learner, patterns, _, pub := newLearnerFixture()
	observeN(t, learner, 3, false)
	observeN(t, learner, 2, true)

	fp := domain.PatternFingerprint("dental", "check balance", balanceSequence)
	obs, err := patterns.Get(context.Background(), fp)
	require.NoError(t, err)
	assert.Equal(t, int64(5), obs.TimesObserved)
	assert.Equal(t, domain.PatternObserved, obs.Status)
	assert.Empty(t, pub.ofType(domain.EventPatternSuggested))
}

func TestObserveCustomThresholds(t *testing.T) {
	learner, patterns, _, _ := newLearnerFixture(pattern.WithThresholds(2, 0.5))
	observeN(t, learner, 1, false)
	observeN(t, learner, 1, true)

	fp := domain.PatternFingerprint("dental", "check balance", balanceSequence)
	obs, err := patterns.Get(context.Background(), fp)
	require.NoError(t, err)
	assert.Equal(t, domain.PatternSuggested, obs.Status)
}

func TestConcurrentObservationsLoseNothing(t *testing.T) {
	learner, patterns, _, pub := newLearnerFixture()

	const n = 1000
	errCh := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- learner.Observe(context.Background(), "dental", "check balance", balanceSequence, true)
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	fp := domain.PatternFingerprint("dental", "check balance", balanceSequence)
	obs, err := patterns.Get(context.Background(), fp)
	require.NoError(t, err)
	assert.Equal(t, int64(n), obs.TimesObserved, "no observation may be lost under concurrency")
	assert.Equal(t, int64(n), obs.SuccessCount)
	assert.Equal(t, domain.PatternSuggested, obs.Status)
	assert.NotEmpty(t, pub.ofType(domain.EventPatternSuggested))
}

func TestSuggestionsListsOnlySuggested(t *testing.T) {
	learner, _, _, _ := newLearnerFixture()
	observeN(t, learner, 5, true)
	require.NoError(t, learner.Observe(context.Background(), "dental", "cancel appointment", []string{"BreakAppointment"}, true))

	suggestions, err := learner.Suggestions(context.Background())
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "check balance", suggestions[0].Intent)
}

func TestDismissRemovesObservation(t *testing.T) {
	learner, patterns, _, _ := newLearnerFixture()
	observeN(t, learner, 1, true)

	fp := domain.PatternFingerprint("dental", "check balance", balanceSequence)
	require.NoError(t, learner.Dismiss(context.Background(), fp))

	_, err := patterns.Get(context.Background(), fp)
	assert.ErrorIs(t, err, domain.ErrPatternNotFound)
}

func TestPromoteSuggestedPattern(t *testing.T) {
	learner, patterns, plans, pub := newLearnerFixture()
	observeN(t, learner, 5, true)
	fp := domain.PatternFingerprint("dental", "check balance", balanceSequence)

	plan, err := learner.Promote(context.Background(), billingDomain(), fp)
	require.NoError(t, err)

	assert.Equal(t, domain.ProvenancePromoted, plan.Provenance)
	assert.Equal(t, "check balance (promoted)", plan.Name)
	assert.Equal(t, []string{"check balance"}, plan.Intents)
	assert.True(t, plan.CreatedAt.Equal(learnerClock()))

	require.Len(t, plan.Steps, 2)
	assert.Equal(t, "FindPatient", plan.Steps[0].Function)
	assert.Equal(t, map[string]string{"name": "name"}, plan.Steps[0].InputMapping)
	assert.Equal(t, "FindPatientResult", plan.Steps[0].OutputAs)
	assert.Equal(t, "GetPatientBalance", plan.Steps[1].Function)
	assert.Equal(t, map[string]string{"PatNum": "PatNum"}, plan.Steps[1].InputMapping)
	assert.Equal(t, "GetPatientBalanceResult", plan.Steps[1].OutputAs)

	stored, err := plans.Get(context.Background(), "dental", "check balance")
	require.NoError(t, err, "the promoted plan must be resolvable by (domain, intent)")
	assert.Equal(t, plan.ID, stored.ID)

	obs, err := patterns.Get(context.Background(), fp)
	require.NoError(t, err)
	assert.Equal(t, domain.PatternApproved, obs.Status)

	promoted := pub.ofType(domain.EventPatternPromoted)
	require.Len(t, promoted, 1)
	assert.Equal(t, plan.ID, promoted[0].Detail["plan"])
	assert.Equal(t, fp, promoted[0].Detail["fingerprint"])
}

func TestPromoteRequiresSuggestedStatus(t *testing.T) {
	learner, _, _, _ := newLearnerFixture()
	observeN(t, learner, 1, true)
	fp := domain.PatternFingerprint("dental", "check balance", balanceSequence)

	_, err := learner.Promote(context.Background(), billingDomain(), fp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only suggested patterns")
}

func TestPromoteUnknownFingerprint(t *testing.T) {
	learner, _, _, _ := newLearnerFixture()
	_, err := learner.Promote(context.Background(), billingDomain(), "no-such-fingerprint")
	assert.ErrorIs(t, err, domain.ErrPatternNotFound)
}

func TestPromoteFunctionNoLongerDeclared(t *testing.T) {
	learner, _, _, _ := newLearnerFixture()
	for i := 0; i < 5; i++ {
		require.NoError(t, learner.Observe(context.Background(), "dental", "check balance", []string{"ArchivedLookup"}, true))
	}
	fp := domain.PatternFingerprint("dental", "check balance", []string{"ArchivedLookup"})

	_, err := learner.Promote(context.Background(), billingDomain(), fp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no longer declares")
}

func TestPromoteWrongDomain(t *testing.T) {
	learner, _, _, _ := newLearnerFixture()
	for i := 0; i < 5; i++ {
		require.NoError(t, learner.Observe(context.Background(), "vision", "check balance", balanceSequence, true))
	}
	fp := domain.PatternFingerprint("vision", "check balance", balanceSequence)

	_, err := learner.Promote(context.Background(), billingDomain(), fp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "belongs to domain")
}

var _ ports.PatternStore = (*fakePatternStore)(nil)
var _ ports.PlanStore = (*fakePlanStore)(nil)
var _ ports.EventPublisher = (*recordingPublisher)(nil)
