package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/adapters/redis"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionStoreContract(t *testing.T) {
	_, client := newTestClient(t)
	ports.RunSessionStoreContract(t, redis.NewSessionStore(client))
}

func TestPlanStoreContract(t *testing.T) {
	_, client := newTestClient(t)
	ports.RunPlanStoreContract(t, redis.NewPlanStore(client))
}

func TestPatternStoreContract(t *testing.T) {
	_, client := newTestClient(t)
	ports.RunPatternStoreContract(t, redis.NewPatternStore(client))
}

func TestSessionTTLExpiration(t *testing.T) {
	mr, client := newTestClient(t)
	store := redis.NewSessionStore(client, redis.WithTTL(50*time.Millisecond))
	ctx := context.Background()

	state := domain.NewSession("session-ttl", "dental")
	state.Data["patientName"] = "Ann"
	require.NoError(t, store.Save(ctx, "session-ttl", state))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "session-ttl")

	mr.FastForward(100 * time.Millisecond)

	_, err = store.Load(ctx, "session-ttl")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Index pruning keys off wall-clock scores, so give it a beat.
	time.Sleep(60 * time.Millisecond)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids, "session-ttl", "expired sessions are lazily pruned from the index")
}

func TestPrefixNamespacesKeys(t *testing.T) {
	mr, client := newTestClient(t)
	store := redis.NewSessionStore(client, redis.WithPrefix("custom:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "my-session", domain.NewSession("my-session", "dental")))

	assert.True(t, mr.Exists("custom:session:my-session"), "session key should carry the custom prefix")
	assert.True(t, mr.Exists("custom:session:index"), "index key should carry the custom prefix")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "my-session")
}

func TestPatternCountersSurviveRestart(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	obs := &domain.PatternObservation{
		Fingerprint: domain.PatternFingerprint("dental", "check balance", []string{"GetPatientBalance"}),
		DomainID:    "dental",
		Intent:      "check balance",
		Sequence:    []string{"GetPatientBalance"},
	}

	first := redis.NewPatternStore(client)
	require.NoError(t, first.Observe(ctx, obs, true))
	require.NoError(t, first.Observe(ctx, obs, false))

	// A fresh store over the same backend sees the accumulated counters.
	second := redis.NewPatternStore(client)
	got, err := second.Get(ctx, obs.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.TimesObserved)
	assert.Equal(t, int64(1), got.SuccessCount)
	assert.Equal(t, []string{"GetPatientBalance"}, got.Sequence)
}
