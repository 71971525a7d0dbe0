package main

import (
	"fmt"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/config"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/adapters/memory"
	redisadapter "github.com/Sam-lateef/Ascendia-booking-sub000/pkg/adapters/redis"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/catalog"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

// buildCatalog opens the configured domain source without the rest of the
// engine. Inspection commands need domains, not models.
func buildCatalog(cfg *config.Config) (ports.Catalog, error) {
	var source catalog.Source
	switch cfg.Catalog.Source {
	case "yaml":
		source = catalog.NewYAMLDirSource(cfg.Catalog.Path)
	default:
		src, err := catalog.NewLoamSource(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		source = src
	}
	return catalog.New(source, catalog.WithTTL(cfg.Catalog.TTL))
}

// buildStores opens the plan and pattern stores without the rest of the
// engine. The memory backend starts empty, so plan and pattern inspection
// is only meaningful against redis.
func buildStores(cfg *config.Config) (ports.PlanStore, ports.PatternStore, func(), error) {
	switch cfg.Store.Backend {
	case "redis":
		client := redisadapter.NewClient(cfg.Store.Redis.Address, cfg.Store.Redis.Password, cfg.Store.Redis.DB)
		cleanup := func() { _ = client.Close() }
		return redisadapter.NewPlanStore(client), redisadapter.NewPatternStore(client), cleanup, nil
	case "memory":
		return memory.NewPlanStore(), memory.NewPatternStore(), func() {}, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
