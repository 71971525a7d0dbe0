package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewSession(sessionID, "dental")
		state.Intent = "book appointment"
		state.StepIndex = 2
		state.Status = domain.StatusWaitingForUser
		state.AwaitingField = "AptDate"
		state.Data["patientName"] = "Ann"
		state.Data["count"] = 42

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "dental", loaded.DomainID)
		assert.Equal(t, "book appointment", loaded.Intent)
		assert.Equal(t, 2, loaded.StepIndex)
		assert.Equal(t, domain.StatusWaitingForUser, loaded.Status)
		assert.Equal(t, "AptDate", loaded.AwaitingField)
		assert.Equal(t, "Ann", loaded.Data["patientName"])
		// JSON persistence may convert int to float64; only existence is contractual.
		assert.NotNil(t, loaded.Data["count"])
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		state := domain.NewSession(sessionID, "dental")
		state.StepIndex = 5
		require.NoError(t, store.Save(ctx, sessionID, state))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 5, loaded.StepIndex, "latest Save should win")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewSession(sessionID, "dental"))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1, "dental"))
		_ = store.Save(ctx, id2, domain.NewSession(id2, "dental"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunPlanStoreContract runs a suite of tests to verify that a PlanStore
// implementation adheres to the defined interface contract.
func RunPlanStoreContract(t *testing.T, store PlanStore) {
	ctx := context.Background()
	domainID := "contract-domain-" + time.Now().Format("20060102150405")

	plan := &domain.Plan{
		ID:       "plan-1",
		DomainID: domainID,
		Name:     "Book appointment",
		Intents:  []string{"book appointment", "schedule visit"},
		Steps: []domain.PlanStep{
			{Function: "GetOpenSlots", InputMapping: map[string]string{"dateStart": "${todayISO}"}, OutputAs: "slots"},
			{Function: "CreateAppointment", InputMapping: map[string]string{"AptDate": "chosenDate"}},
		},
		Provenance: domain.ProvenanceSynthesized,
		CreatedAt:  time.Now().UTC(),
	}

	t.Run("Save and Get", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, plan), "Save should not return error")

		// A plan is retrievable under every intent it satisfies.
		for _, intent := range plan.Intents {
			got, err := store.Get(ctx, domainID, intent)
			require.NoError(t, err, "Get(%q) should not return error", intent)
			assert.Equal(t, plan.ID, got.ID)
			require.Len(t, got.Steps, 2)
			assert.Equal(t, "GetOpenSlots", got.Steps[0].Function)
			assert.Equal(t, "${todayISO}", got.Steps[0].InputMapping["dateStart"])
		}
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, domainID, "no-such-intent")
		assert.ErrorIs(t, err, domain.ErrPlanNotFound)

		_, err = store.Get(ctx, "no-such-domain", "book appointment")
		assert.ErrorIs(t, err, domain.ErrPlanNotFound)
	})

	t.Run("Save Replaces", func(t *testing.T) {
		replacement := &domain.Plan{
			ID:         "plan-2",
			DomainID:   domainID,
			Name:       "Book appointment v2",
			Intents:    []string{"book appointment"},
			Steps:      []domain.PlanStep{{Function: "CreateAppointment"}},
			Provenance: domain.ProvenancePromoted,
		}
		require.NoError(t, store.Save(ctx, replacement))

		got, err := store.Get(ctx, domainID, "book appointment")
		require.NoError(t, err)
		assert.Equal(t, "plan-2", got.ID, "Save for an existing key should replace the plan")
		assert.Equal(t, domain.ProvenancePromoted, got.Provenance)
	})

	t.Run("List Scoped To Domain", func(t *testing.T) {
		other := &domain.Plan{
			ID:       "plan-other",
			DomainID: domainID + "-other",
			Intents:  []string{"cancel appointment"},
			Steps:    []domain.PlanStep{{Function: "BreakAppointment"}},
		}
		require.NoError(t, store.Save(ctx, other))
		defer func() { _ = store.Delete(ctx, other.DomainID, "cancel appointment") }()

		plans, err := store.List(ctx, domainID)
		require.NoError(t, err)
		require.NotEmpty(t, plans)
		for _, p := range plans {
			assert.Equal(t, domainID, p.DomainID, "List must only return plans for the requested domain")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, domainID, "book appointment"))

		_, err := store.Get(ctx, domainID, "book appointment")
		assert.ErrorIs(t, err, domain.ErrPlanNotFound, "Get after Delete should return ErrPlanNotFound")
	})
}

// RunPatternStoreContract runs a suite of tests to verify that a PatternStore
// implementation adheres to the defined interface contract, including the
// atomicity of concurrent Observe calls.
func RunPatternStoreContract(t *testing.T, store PatternStore) {
	ctx := context.Background()
	seq := []string{"GetOpenSlots", "ConfirmWithUser", "CreateAppointment"}
	domainID := "contract-domain-" + time.Now().Format("20060102150405")
	fp := domain.PatternFingerprint(domainID, "book appointment", seq)

	obs := &domain.PatternObservation{
		Fingerprint: fp,
		DomainID:    domainID,
		Intent:      "book appointment",
		Sequence:    seq,
	}

	t.Run("Observe Creates", func(t *testing.T) {
		require.NoError(t, store.Observe(ctx, obs, true), "Observe should not return error")

		got, err := store.Get(ctx, fp)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.TimesObserved)
		assert.Equal(t, int64(1), got.SuccessCount)
		assert.Equal(t, domain.PatternObserved, got.Status)
		assert.Equal(t, domainID, got.DomainID)
		assert.Equal(t, "book appointment", got.Intent)
		assert.Equal(t, seq, got.Sequence)
		assert.False(t, got.FirstSeen.IsZero())
		assert.False(t, got.LastSeen.IsZero())
	})

	t.Run("Observe Increments", func(t *testing.T) {
		require.NoError(t, store.Observe(ctx, obs, false))

		got, err := store.Get(ctx, fp)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.TimesObserved)
		assert.Equal(t, int64(1), got.SuccessCount, "failed observation must not count as success")
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "no-such-fingerprint")
		assert.ErrorIs(t, err, domain.ErrPatternNotFound)
	})

	t.Run("SetStatus and ListByStatus", func(t *testing.T) {
		require.NoError(t, store.SetStatus(ctx, fp, domain.PatternSuggested))

		suggested, err := store.ListByStatus(ctx, domain.PatternSuggested)
		require.NoError(t, err)
		found := false
		for _, o := range suggested {
			if o.Fingerprint == fp {
				found = true
			}
		}
		assert.True(t, found, "ListByStatus(suggested) should include the updated observation")

		observed, err := store.ListByStatus(ctx, domain.PatternObserved)
		require.NoError(t, err)
		for _, o := range observed {
			assert.NotEqual(t, fp, o.Fingerprint, "observation must leave its previous status bucket")
		}
	})

	t.Run("SetStatus Non-Existent", func(t *testing.T) {
		err := store.SetStatus(ctx, "no-such-fingerprint", domain.PatternApproved)
		assert.ErrorIs(t, err, domain.ErrPatternNotFound)
	})

	t.Run("Concurrent Observe", func(t *testing.T) {
		concSeq := []string{"GetPatientBalance"}
		concFP := domain.PatternFingerprint(domainID, "check balance", concSeq)
		concObs := &domain.PatternObservation{
			Fingerprint: concFP,
			DomainID:    domainID,
			Intent:      "check balance",
			Sequence:    concSeq,
		}

		const n = 1000
		errCh := make(chan error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errCh <- store.Observe(ctx, concObs, i%2 == 0)
			}(i)
		}
		wg.Wait()
		close(errCh)
		for err := range errCh {
			require.NoError(t, err)
		}

		got, err := store.Get(ctx, concFP)
		require.NoError(t, err)
		assert.Equal(t, int64(n), got.TimesObserved, "no observation may be lost under concurrency")
		assert.Equal(t, int64(n/2), got.SuccessCount)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, fp))

		_, err := store.Get(ctx, fp)
		assert.ErrorIs(t, err, domain.ErrPatternNotFound)
	})
}
