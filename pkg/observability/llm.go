package observability

import (
	"context"
	"time"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

// InstrumentLLM wraps a model backend so every call is counted and timed
// under the given purpose label ("extraction", "synthesis", "merge",
// "fallback"). The same backend is typically wrapped once per call site.
func InstrumentLLM(inner ports.LLMService, m *Metrics, purpose string) ports.LLMService {
	if m == nil {
		return inner
	}
	return &instrumentedLLM{inner: inner, metrics: m, purpose: purpose}
}

type instrumentedLLM struct {
	inner   ports.LLMService
	metrics *Metrics
	purpose string
}

func (s *instrumentedLLM) Name() string { return s.inner.Name() }

func (s *instrumentedLLM) Complete(ctx context.Context, req ports.CompletionRequest) (*ports.CompletionResponse, error) {
	start := time.Now()
	resp, err := s.inner.Complete(ctx, req)
	s.metrics.RecordLLMCall(s.inner.Name(), s.purpose, time.Since(start))
	return resp, err
}
