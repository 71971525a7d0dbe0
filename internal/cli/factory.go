// Package cli assembles a fully wired engine from layered configuration.
// It is the shared factory behind the serve and chat commands.
package cli

import (
	"fmt"
	"log/slog"

	ascendia "github.com/Sam-lateef/Ascendia-booking-sub000"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/config"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/logging"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/adapters/memory"
	natsadapter "github.com/Sam-lateef/Ascendia-booking-sub000/pkg/adapters/nats"
	redisadapter "github.com/Sam-lateef/Ascendia-booking-sub000/pkg/adapters/redis"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/catalog"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/persistence/middleware"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/providers"
)

// piiPatterns mask collected-data keys on events leaving the process.
// Domain entity names are user-defined, so matching stays broad. Session
// state is never masked: the data bag is the working memory of a paused
// plan, and a masked value would be dispatched on resume.
var piiPatterns = []string{
	`(?i)name`,
	`(?i)email`,
	`(?i)phone`,
}

// Build is a wired engine plus the resources it was built on.
type Build struct {
	Engine *ascendia.Engine

	// Stream carries live events for the HTTP SSE surface. Nil when events
	// go to an external broker instead of the in-process publisher.
	Stream *memory.Publisher

	cleanups []func()
}

// Close releases the engine and every connection the build opened.
func (b *Build) Close() {
	if b.Engine != nil {
		_ = b.Engine.Close()
	}
	for i := len(b.cleanups) - 1; i >= 0; i-- {
		b.cleanups[i]()
	}
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	level := parseLevel(cfg.Level)
	if cfg.Format == "json" {
		return logging.NewJSON(level)
	}
	return logging.New(level)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// BuildEngine wires stores, providers, events and the catalog per the
// configuration. The returned Build owns the opened connections; callers
// must Close it.
func BuildEngine(cfg *config.Config, log *slog.Logger) (*Build, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	build := &Build{}

	primary, err := buildModel(cfg.Models.Primary, cfg.Models)
	if err != nil {
		build.Close()
		return nil, fmt.Errorf("primary model: %w", err)
	}
	secondary, err := buildModel(cfg.Models.Secondary, cfg.Models)
	if err != nil {
		build.Close()
		return nil, fmt.Errorf("secondary model: %w", err)
	}
	var fallback ports.LLMService
	if cfg.Models.Fallback.Provider != "" {
		fallback, err = buildModel(cfg.Models.Fallback, cfg.Models)
		if err != nil {
			build.Close()
			return nil, fmt.Errorf("fallback model: %w", err)
		}
	}

	opts := []ascendia.Option{
		ascendia.WithModels(primary, secondary, fallback),
		ascendia.WithLogger(log),
	}

	switch cfg.Store.Backend {
	case "redis":
		client := redisadapter.NewClient(cfg.Store.Redis.Address, cfg.Store.Redis.Password, cfg.Store.Redis.DB)
		build.cleanups = append(build.cleanups, func() { _ = client.Close() })

		opts = append(opts,
			ascendia.WithSessionStore(wrapSessionStore(cfg, redisadapter.NewSessionStore(client))),
			ascendia.WithPlanStore(redisadapter.NewPlanStore(client)),
			ascendia.WithPatternStore(redisadapter.NewPatternStore(client)),
			ascendia.WithLocker(redisadapter.NewLocker(client)),
		)
		if cfg.Store.LockTTL > 0 {
			opts = append(opts, ascendia.WithLockTTL(cfg.Store.LockTTL))
		}
	default:
		opts = append(opts, ascendia.WithSessionStore(wrapSessionStore(cfg, memory.NewSessionStore())))
	}

	var events ports.EventPublisher
	switch cfg.Events.Backend {
	case "nats":
		pubOpts := []natsadapter.Option{natsadapter.WithLogger(log)}
		if cfg.Events.SubjectPrefix != "" {
			pubOpts = append(pubOpts, natsadapter.WithSubjectPrefix(cfg.Events.SubjectPrefix))
		}
		pub, err := natsadapter.Connect(cfg.Events.URL, pubOpts...)
		if err != nil {
			build.Close()
			return nil, fmt.Errorf("connect event broker: %w", err)
		}
		build.cleanups = append(build.cleanups, pub.Close)
		events = pub
	default:
		stream := memory.NewPublisher()
		build.Stream = stream
		events = stream
	}
	opts = append(opts, ascendia.WithEventPublisher(middleware.NewMaskedPublisher(events, piiPatterns)))

	var source catalog.Source
	if cfg.Catalog.Source == "yaml" {
		source = catalog.NewYAMLDirSource(cfg.Catalog.Path)
		opts = append(opts, ascendia.WithCatalogSource(source))
	}
	if cfg.Catalog.TTL > 0 {
		opts = append(opts, ascendia.WithCatalogOptions(catalog.WithTTL(cfg.Catalog.TTL)))
	}

	if cfg.Engine.SafeWindowDays > 0 {
		opts = append(opts, ascendia.WithSafeWindow(cfg.Engine.SafeWindowDays))
	}
	if cfg.Engine.PlanCacheTTL > 0 {
		opts = append(opts, ascendia.WithPlanCacheTTL(cfg.Engine.PlanCacheTTL))
	}

	engine, err := ascendia.New(cfg.Catalog.Path, opts...)
	if err != nil {
		build.Close()
		return nil, err
	}
	build.Engine = engine
	return build, nil
}

// wrapSessionStore layers optional encryption over the backend store, so
// collected entities rest sealed but round-trip intact across turns.
func wrapSessionStore(cfg *config.Config, store ports.SessionStore) ports.SessionStore {
	if cfg.Store.EncryptSessions {
		store = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey: cfg.Store.SessionKey,
		})(store)
	}
	return store
}

func buildModel(ref config.ModelRef, models config.ModelsConfig) (ports.LLMService, error) {
	switch ref.Provider {
	case "anthropic":
		c := providers.DefaultAnthropicConfig()
		c.APIKey = models.AnthropicAPIKey
		if ref.Model != "" {
			c.Model = ref.Model
		}
		if models.Timeout > 0 {
			c.Timeout = models.Timeout
		}
		return providers.NewAnthropic(c)
	case "openai":
		c := providers.DefaultOpenAIConfig()
		c.APIKey = models.OpenAIAPIKey
		if ref.Model != "" {
			c.Model = ref.Model
		}
		if models.Timeout > 0 {
			c.Timeout = models.Timeout
		}
		return providers.NewOpenAI(c)
	default:
		return nil, fmt.Errorf("unknown model provider %q", ref.Provider)
	}
}
