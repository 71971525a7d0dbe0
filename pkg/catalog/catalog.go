// Package catalog loads and serves domain configuration: YAML files, loam
// markdown repositories and OpenAPI imports, compiled into schema
// registries and cached with a short TTL.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/logging"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/schema"
)

const (
	cacheNumCounters = 1e4
	cacheMaxCost     = 1e3
	cacheBufferItems = 64

	keyDomain = "domain/"
	keyList   = "domains"

	// DefaultTTL bounds how stale a served domain may be after its file
	// changed. On expiry the next read reloads from the source.
	DefaultTTL = 5 * time.Minute
)

// Source loads domain definitions from configuration.
type Source interface {
	Load(ctx context.Context) ([]*domain.Domain, error)
}

// Catalog serves validated, compiled domains out of a TTL cache backed by
// a Source. It implements ports.Catalog.
type Catalog struct {
	source Source
	cache  *ristretto.Cache
	ttl    time.Duration
	now    func() time.Time
	log    *slog.Logger
}

// Option configures the Catalog.
type Option func(*Catalog)

// WithTTL overrides the cache TTL. Non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(c *Catalog) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects the engine clock used by temporal validators.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.log = logger
		}
	}
}

// New creates a Catalog over the given source.
func New(source Source, opts ...Option) (*Catalog, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheNumCounters,
		MaxCost:     cacheMaxCost,
		BufferItems: cacheBufferItems,
	})
	if err != nil {
		return nil, err
	}
	c := &Catalog{
		source: source,
		cache:  cache,
		ttl:    DefaultTTL,
		now:    time.Now,
		log:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Domain returns one configured domain with its compiled schema registry.
func (c *Catalog) Domain(ctx context.Context, id string) (*ports.CatalogEntry, error) {
	if v, ok := c.cache.Get(keyDomain + id); ok {
		if entry, ok := v.(*ports.CatalogEntry); ok {
			return entry, nil
		}
	}

	entries, _, err := c.reload(ctx)
	if err != nil {
		return nil, err
	}
	entry, ok := entries[id]
	if !ok {
		return nil, domain.ErrDomainNotFound
	}
	return entry, nil
}

// Domains lists the configured domain IDs, sorted.
func (c *Catalog) Domains(ctx context.Context) ([]string, error) {
	if v, ok := c.cache.Get(keyList); ok {
		if ids, ok := v.([]string); ok {
			return ids, nil
		}
	}

	_, ids, err := c.reload(ctx)
	return ids, err
}

// reload pulls everything from the source, validates and compiles it, and
// repopulates the cache. A single broken domain fails the whole reload: a
// typo'd file silently vanishing would surface as an unexplained
// not-found at turn time.
func (c *Catalog) reload(ctx context.Context) (map[string]*ports.CatalogEntry, []string, error) {
	domains, err := c.source.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load domain catalog: %w", err)
	}

	entries := make(map[string]*ports.CatalogEntry, len(domains))
	ids := make([]string, 0, len(domains))
	for _, d := range domains {
		if _, dup := entries[d.ID]; dup {
			return nil, nil, fmt.Errorf("domain %s: defined more than once", d.ID)
		}
		if err := validateDomain(d); err != nil {
			return nil, nil, fmt.Errorf("domain %s: %w", d.ID, err)
		}
		validators, err := schema.NewRegistry(d, schema.WithClock(c.now))
		if err != nil {
			return nil, nil, err
		}
		entries[d.ID] = &ports.CatalogEntry{Domain: d, Validators: validators}
		ids = append(ids, d.ID)
	}
	sort.Strings(ids)

	for id, entry := range entries {
		c.cache.SetWithTTL(keyDomain+id, entry, 1, c.ttl)
	}
	c.cache.SetWithTTL(keyList, ids, 1, c.ttl)
	// Make the fresh entries visible before returning so a follow-up read
	// does not reload.
	c.cache.Wait()

	c.log.Debug("domain catalog reloaded", "domains", len(ids))
	return entries, ids, nil
}

// validateDomain enforces the structural rules every served domain meets.
func validateDomain(d *domain.Domain) error {
	if d.ID == "" {
		return fmt.Errorf("missing id")
	}

	seen := make(map[string]bool, len(d.Functions))
	hasExternal := false
	for _, fn := range d.Functions {
		if fn.Name == "" {
			return fmt.Errorf("function with empty name")
		}
		if seen[fn.Name] {
			return fmt.Errorf("duplicate function %s", fn.Name)
		}
		seen[fn.Name] = true

		if fn.Virtual && !domain.IsVirtualFunction(fn.Name) {
			return fmt.Errorf("function %s is flagged virtual but is not one of the engine's built-ins", fn.Name)
		}
		if !fn.Virtual && domain.IsVirtualFunction(fn.Name) {
			return fmt.Errorf("function %s collides with a built-in virtual function", fn.Name)
		}
		if !fn.Virtual {
			hasExternal = true
		}
	}
	if hasExternal && d.Endpoint == "" {
		return fmt.Errorf("external functions declared but no endpoint configured")
	}

	for _, e := range d.Entities {
		if e.Name == "" {
			return fmt.Errorf("entity with empty name")
		}
		if domain.IsReservedName(e.Name) {
			return fmt.Errorf("entity %s shadows a reserved runtime name", e.Name)
		}
		if _, err := schema.ParseKind(e.Type, nil); err != nil {
			return fmt.Errorf("entity %s: %w", e.Name, err)
		}
	}

	for _, t := range d.Triggers {
		if t.Phrase == "" {
			return fmt.Errorf("trigger with empty phrase")
		}
		if t.Intent == "" {
			return fmt.Errorf("trigger %q has no intent", t.Phrase)
		}
	}

	return nil
}
