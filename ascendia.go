package ascendia

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/intent"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/logging"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/pattern"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/runtime"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/turn"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/workflow"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/adapters/domainapi"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/adapters/memory"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/catalog"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/observability"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/session"
)

// Version is the engine version, overridden at build time.
var Version = "dev"

// Engine is the high-level entry point for the Ascendia library. It wires
// the turn pipeline over pluggable stores and model providers and exposes
// the handful of operations the transports need.
type Engine struct {
	turns    *turn.Service
	catalog  ports.Catalog
	sessions *session.Manager
	plans    ports.PlanStore
	patterns ports.PatternStore
	learner  *pattern.Learner
	events   ports.EventPublisher
	metrics  *observability.Metrics
	cache    *workflow.PlanCache
	log      *slog.Logger

	// construction state, consumed by New
	source        catalog.Source
	catalogOpts   []catalog.Option
	sessionStore  ports.SessionStore
	planStore     ports.PlanStore
	patternStore  ports.PatternStore
	locker        ports.DistributedLocker
	invoker       ports.DomainInvoker
	primary       ports.LLMService
	secondary     ports.LLMService
	fallbackModel ports.LLMService
	now           func() time.Time
	safeWindow    int
	planCacheTTL  time.Duration
	lockTTL       time.Duration
}

// Option configures the Engine.
type Option func(*Engine)

// WithModels sets the model providers. primary is required; a nil
// secondary falls back to primary (single-provider deployments lose the
// cross-provider consensus but keep the rest of the pipeline), and a nil
// fallback reuses primary for function-calling turns.
func WithModels(primary, secondary, fallback ports.LLMService) Option {
	return func(e *Engine) {
		e.primary = primary
		e.secondary = secondary
		e.fallbackModel = fallback
	}
}

// WithCatalogSource injects a domain source, bypassing the default loam
// repository at the path given to New.
func WithCatalogSource(src catalog.Source) Option {
	return func(e *Engine) { e.source = src }
}

// WithCatalogOptions forwards options to the domain catalog.
func WithCatalogOptions(opts ...catalog.Option) Option {
	return func(e *Engine) { e.catalogOpts = append(e.catalogOpts, opts...) }
}

// WithSessionStore replaces the default in-memory session store.
func WithSessionStore(store ports.SessionStore) Option {
	return func(e *Engine) { e.sessionStore = store }
}

// WithPlanStore replaces the default in-memory plan store.
func WithPlanStore(store ports.PlanStore) Option {
	return func(e *Engine) { e.planStore = store }
}

// WithPatternStore replaces the default in-memory pattern store.
func WithPatternStore(store ports.PatternStore) Option {
	return func(e *Engine) { e.patternStore = store }
}

// WithLocker enables distributed session locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) { e.locker = locker }
}

// WithLockTTL bounds how long a crashed replica can wedge a session.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.lockTTL = ttl }
}

// WithInvoker replaces the default HTTP domain-API client.
func WithInvoker(invoker ports.DomainInvoker) Option {
	return func(e *Engine) { e.invoker = invoker }
}

// WithEventPublisher sets the event sink. The default discards events.
func WithEventPublisher(events ports.EventPublisher) Option {
	return func(e *Engine) {
		if events != nil {
			e.events = events
		}
	}
}

// WithMetrics injects a metrics registry shared with the transports.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithLogger sets a structured logger for the whole pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.log = logger
		}
	}
}

// WithClock pins the engine clock. Temporal validation and the reserved
// date values all derive from it.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithSafeWindow sets the horizon in days for the safeDateEnd reserved
// value.
func WithSafeWindow(days int) Option {
	return func(e *Engine) { e.safeWindow = days }
}

// WithPlanCacheTTL bounds plan staleness between replicas sharing a store.
func WithPlanCacheTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.planCacheTTL = ttl }
}

// New initializes an Ascendia Engine. By default domains load from a loam
// repository at domainsPath; WithCatalogSource replaces that, in which
// case domainsPath may be empty. Model providers are the one thing New
// cannot default: pass them with WithModels.
func New(domainsPath string, opts ...Option) (*Engine, error) {
	e := &Engine{
		events: ports.NopPublisher{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.primary == nil {
		return nil, fmt.Errorf("a primary model provider is required; configure one with WithModels")
	}
	if e.secondary == nil {
		e.secondary = e.primary
	}
	if e.fallbackModel == nil {
		e.fallbackModel = e.primary
	}
	if e.log == nil {
		e.log = logging.NewNop()
	}
	if e.metrics == nil {
		e.metrics = observability.New()
	}

	if e.source == nil {
		if domainsPath == "" {
			return nil, fmt.Errorf("domainsPath is required when no catalog source is provided")
		}
		src, err := catalog.NewLoamSource(domainsPath)
		if err != nil {
			return nil, err
		}
		e.source = src
	}
	catalogOpts := append([]catalog.Option{
		catalog.WithClock(e.now),
		catalog.WithLogger(e.log),
	}, e.catalogOpts...)
	cat, err := catalog.New(e.source, catalogOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialize domain catalog: %w", err)
	}
	e.catalog = cat

	if e.sessionStore == nil {
		e.sessionStore = memory.NewSessionStore()
	}
	if e.planStore == nil {
		e.planStore = memory.NewPlanStore()
	}
	if e.patternStore == nil {
		e.patternStore = memory.NewPatternStore()
	}
	if e.invoker == nil {
		e.invoker = domainapi.NewClient(domainapi.WithLogger(e.log))
	}

	sessionOpts := []session.Option{session.WithLogger(e.log)}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}
	if e.lockTTL > 0 {
		sessionOpts = append(sessionOpts, session.WithLockTTL(e.lockTTL))
	}
	e.sessions = session.NewManager(e.sessionStore, sessionOpts...)
	e.plans = e.planStore
	e.patterns = e.patternStore

	cache, err := workflow.NewPlanCache(e.planCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("initialize plan cache: %w", err)
	}
	e.cache = cache

	// Each pipeline stage gets its backends wrapped under its own purpose
	// label, so llm call counts break down by what the call was for.
	synthesizer := workflow.NewSynthesizer(
		observability.InstrumentLLM(e.primary, e.metrics, "synthesis"),
		observability.InstrumentLLM(e.secondary, e.metrics, "synthesis"),
		e.log, workflow.WithClock(e.now),
	)
	resolver := workflow.NewResolver(cache, e.planStore, synthesizer, e.events, e.metrics, e.log)
	executor := runtime.NewExecutor(e.invoker, e.metrics, e.log, runtime.WithClock(e.now))
	e.learner = pattern.NewLearner(e.patternStore, e.planStore, e.events, e.metrics, e.log, pattern.WithClock(e.now))
	fallback := pattern.NewExecutor(
		observability.InstrumentLLM(e.fallbackModel, e.metrics, "fallback"),
		e.invoker, e.learner, e.metrics, e.log,
	)
	validator := intent.NewValidator(
		observability.InstrumentLLM(e.primary, e.metrics, "extraction"),
		observability.InstrumentLLM(e.secondary, e.metrics, "extraction"),
		e.log, intent.WithClock(e.now),
	)

	turnOpts := []turn.Option{turn.WithClock(e.now)}
	if e.safeWindow > 0 {
		turnOpts = append(turnOpts, turn.WithSafeWindow(e.safeWindow))
	}
	e.turns = turn.NewService(
		e.catalog,
		e.sessions,
		intent.NewMatcher(),
		validator,
		resolver,
		executor,
		fallback,
		e.events,
		e.metrics,
		e.log,
		turnOpts...,
	)

	return e, nil
}

// Handle processes one conversational turn.
func (e *Engine) Handle(ctx context.Context, req domain.TurnRequest) (*domain.TurnResult, error) {
	return e.turns.Handle(ctx, req)
}

// Promote converts an observed pattern into a stored plan for its domain.
func (e *Engine) Promote(ctx context.Context, d *domain.Domain, fingerprint string) (*domain.Plan, error) {
	return e.learner.Promote(ctx, d, fingerprint)
}

// Catalog exposes the domain catalog.
func (e *Engine) Catalog() ports.Catalog { return e.catalog }

// Plans exposes the plan store.
func (e *Engine) Plans() ports.PlanStore { return e.plans }

// Patterns exposes the pattern store backing the review queue.
func (e *Engine) Patterns() ports.PatternStore { return e.patterns }

// Events exposes the configured event publisher.
func (e *Engine) Events() ports.EventPublisher { return e.events }

// Sessions exposes the session manager.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// Metrics exposes the metrics registry for transports to serve.
func (e *Engine) Metrics() *observability.Metrics { return e.metrics }

// Close releases in-process resources. Injected stores and connections
// belong to the caller and stay open.
func (e *Engine) Close() error {
	if e.cache != nil {
		e.cache.Close()
	}
	return nil
}
