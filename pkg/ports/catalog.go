package ports

import (
	"context"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/schema"
)

// Catalog provides read access to domain configuration. Implementations
// cache with a short TTL; the engine treats a returned Domain as immutable.
type Catalog interface {
	// Domain returns one configured domain with its compiled schema
	// registry. Returns domain.ErrDomainNotFound for unknown IDs.
	Domain(ctx context.Context, id string) (*CatalogEntry, error)

	// Domains lists the configured domain IDs.
	Domains(ctx context.Context) ([]string, error)
}

// CatalogEntry is a loaded domain plus the artifacts compiled from it at
// load time.
type CatalogEntry struct {
	Domain     *domain.Domain
	Validators *schema.Registry
}
