package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/adapters/memory"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

func TestSessionStoreContract(t *testing.T) {
	ports.RunSessionStoreContract(t, memory.NewSessionStore())
}

func TestPlanStoreContract(t *testing.T) {
	ports.RunPlanStoreContract(t, memory.NewPlanStore())
}

func TestPatternStoreContract(t *testing.T) {
	ports.RunPatternStoreContract(t, memory.NewPatternStore())
}

func TestSessionIsolation(t *testing.T) {
	store := memory.NewSessionStore()
	ctx := context.Background()

	state := domain.NewSession("sess-1", "dental")
	state.Data["patientName"] = "Ann"
	require.NoError(t, store.Save(ctx, "sess-1", state))

	state.Data["patientName"] = "Bob"

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", loaded.Data["patientName"], "saved state must not alias the caller's map")

	loaded.Data["patientName"] = "Cleo"
	again, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", again.Data["patientName"], "loaded state must not alias the stored map")
}
