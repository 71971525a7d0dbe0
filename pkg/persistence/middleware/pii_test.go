package middleware_test

import (
	"context"
	"testing"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/persistence/middleware"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	// Setup
	underlyingStore := NewMockStore()
	// Mask keys containing "password" or "ssn"
	mw := middleware.NewPIIMiddleware([]string{"password", "ssn"})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	sessionID := "pii-session"
	state := domain.NewSession(sessionID, "dental")

	// Populate with mixed data
	state.Data["username"] = "jdoe"
	state.Data["user_password"] = "secret123"
	state.Data["details"] = map[string]any{
		"address":    "123 St",
		"ssn_number": "999-99-9999",
	}
	state.Data["safe_data"] = "public"

	// 1. Save
	if err := secureStore.Save(ctx, sessionID, state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Verify in-memory state is NOT MODIFIED (immutability check)
	if state.Data["user_password"] != "secret123" {
		t.Error("Middleware modified original state in memory!")
	}

	// 2. Load from underlying store (should be masked)
	storedState, err := underlyingStore.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}

	// Check masking
	if storedState.Data["username"] != "jdoe" {
		t.Error("Username shouldn't be masked")
	}
	if storedState.Data["user_password"] != "***" {
		t.Errorf("Password should be masked, got: %v", storedState.Data["user_password"])
	}

	details := storedState.Data["details"].(map[string]any)
	if details["ssn_number"] != "***" {
		t.Errorf("Nested SSN should be masked, got: %v", details["ssn_number"])
	}
}

// recordingPublisher captures published events for inspection.
type recordingPublisher struct {
	events []domain.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event domain.Event) error {
	p.events = append(p.events, event)
	return nil
}

var _ ports.EventPublisher = (*recordingPublisher)(nil)

func TestMaskedPublisher(t *testing.T) {
	sink := &recordingPublisher{}
	publisher := middleware.NewMaskedPublisher(sink, []string{"ssn"})

	event := domain.NewEvent(domain.EventTurnCompleted, "sess-1", "dental")
	event.Detail = map[string]any{
		"status":     "completed",
		"ssn_number": "999-99-9999",
	}

	if err := publisher.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if len(sink.events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(sink.events))
	}
	got := sink.events[0]
	if got.Detail["ssn_number"] != "***" {
		t.Errorf("SSN should be masked before publish, got: %v", got.Detail["ssn_number"])
	}
	if got.Detail["status"] != "completed" {
		t.Errorf("Non-matching keys must pass through, got: %v", got.Detail["status"])
	}

	// The caller's event must stay untouched.
	if event.Detail["ssn_number"] != "999-99-9999" {
		t.Error("Publisher modified the caller's event detail")
	}
}
