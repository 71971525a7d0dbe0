package ports

import (
	"context"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// EventPublisher receives fire-and-forget engine events. Implementations
// must not block the turn; a failed publish is logged, never surfaced.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event domain.Event) error { return nil }
