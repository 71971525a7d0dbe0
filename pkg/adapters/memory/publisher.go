package memory

import (
	"context"
	"sync"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls further behind loses events rather than stalling the engine.
const subscriberBuffer = 64

// Publisher implements ports.EventPublisher by fanning events out to
// in-process subscribers. The HTTP event stream and tests attach here.
type Publisher struct {
	mu   sync.Mutex
	subs map[int]chan domain.Event
	next int
}

// NewPublisher creates a publisher with no subscribers.
func NewPublisher() *Publisher {
	return &Publisher{subs: make(map[int]chan domain.Event)}
}

// Publish delivers the event to every subscriber without blocking.
func (p *Publisher) Publish(_ context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ch := range p.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe registers a listener. The cancel function detaches it and
// closes the channel; it is safe to call more than once.
func (p *Publisher) Subscribe() (<-chan domain.Event, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.next
	p.next++
	ch := make(chan domain.Event, subscriberBuffer)
	p.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}
