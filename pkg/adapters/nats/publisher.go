// Package nats implements ports.EventPublisher on a NATS connection.
// Events go out as JSON on <prefix>.events.<type> so consumers can
// subscribe to one event kind or wildcard the whole stream.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/logging"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// DefaultSubjectPrefix namespaces published subjects.
const DefaultSubjectPrefix = "ascendia"

// Publisher publishes engine events to NATS.
type Publisher struct {
	conn   *nats.Conn
	prefix string
	log    *slog.Logger
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithSubjectPrefix overrides the subject prefix.
func WithSubjectPrefix(prefix string) Option {
	return func(p *Publisher) {
		if prefix != "" {
			p.prefix = prefix
		}
	}
}

// WithLogger configures a logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Publisher) {
		if log != nil {
			p.log = log
		}
	}
}

// Connect dials the NATS server and wraps the connection in a Publisher.
func Connect(url string, opts ...Option) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("ascendia"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return NewPublisher(conn, opts...), nil
}

// NewPublisher wraps an existing connection. The caller keeps ownership
// of the connection unless the Publisher came from Connect.
func NewPublisher(conn *nats.Conn, opts ...Option) *Publisher {
	p := &Publisher{
		conn:   conn,
		prefix: DefaultSubjectPrefix,
		log:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish sends the event. NATS publishes are buffered and non-blocking;
// the context is only consulted up front.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	subject := Subject(p.prefix, event.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.log.Debug("event published", "subject", subject, "session", event.SessionID)
	return nil
}

// Close flushes and closes the connection.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Flush(); err != nil {
		p.log.Warn("flush on close failed", "err", err)
	}
	p.conn.Close()
}

// Subject names the NATS subject for an event type.
func Subject(prefix string, t domain.EventType) string {
	return fmt.Sprintf("%s.events.%s", prefix, t)
}
