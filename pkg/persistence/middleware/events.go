package middleware

import (
	"context"
	"regexp"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

type maskedPublisher struct {
	next     ports.EventPublisher
	patterns []*regexp.Regexp
}

// NewMaskedPublisher wraps an event publisher so that event detail keys
// matching the patterns are masked before the event leaves the process.
// The same patterns usually drive NewPIIMiddleware.
func NewMaskedPublisher(next ports.EventPublisher, patternStrings []string) ports.EventPublisher {
	return &maskedPublisher{next: next, patterns: compilePatterns(patternStrings)}
}

func (p *maskedPublisher) Publish(ctx context.Context, event domain.Event) error {
	if len(event.Detail) > 0 {
		detail := deepCopyMap(event.Detail)
		maskMap(detail, p.patterns)
		event.Detail = detail
	}
	return p.next.Publish(ctx, event)
}
