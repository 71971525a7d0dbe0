package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/loam"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// domainMetadata is the frontmatter of a loam domain document. The
// structured configuration lives in the header; the markdown body carries
// the prose the models see: persona first, business rules under their own
// heading.
type domainMetadata struct {
	ID                 string                      `json:"id" mapstructure:"id"`
	Name               string                      `json:"name" mapstructure:"name"`
	Endpoint           string                      `json:"endpoint" mapstructure:"endpoint"`
	CriticalOperations []string                    `json:"criticalOperations" mapstructure:"criticalOperations"`
	Functions          []domain.FunctionDefinition `json:"functions" mapstructure:"functions"`
	Entities           []domain.EntityDefinition   `json:"entities" mapstructure:"entities"`
	Triggers           []domain.TriggerPhrase      `json:"triggers" mapstructure:"triggers"`
}

// businessRulesHeading splits the document body: everything above is the
// persona, everything below is business rules.
const businessRulesHeading = "## Business Rules"

// LoamSource loads domains from a loam markdown repository, one document
// per domain.
type LoamSource struct {
	repo *loam.TypedRepository[domainMetadata]
}

// NewLoamSource opens the repository at dir read-only.
func NewLoamSource(dir string) (*LoamSource, error) {
	repo, err := loam.Init(dir,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("initialize loam repository %s: %w", dir, err)
	}
	return &LoamSource{repo: loam.NewTypedRepository[domainMetadata](repo)}, nil
}

// Load reads every document in the repository.
func (s *LoamSource) Load(ctx context.Context) ([]*domain.Domain, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list loam domains: %w", err)
	}

	domains := make([]*domain.Domain, 0, len(docs))
	for _, doc := range docs {
		meta := doc.Data
		id := meta.ID
		if id == "" {
			id = trimExtension(doc.ID)
		}

		persona, rules := splitBody(doc.Content)
		domains = append(domains, &domain.Domain{
			ID:                 id,
			Name:               meta.Name,
			Persona:            persona,
			Endpoint:           meta.Endpoint,
			BusinessRules:      rules,
			CriticalOperations: meta.CriticalOperations,
			Functions:          meta.Functions,
			Entities:           meta.Entities,
			Triggers:           meta.Triggers,
		})
	}

	sort.Slice(domains, func(i, j int) bool { return domains[i].ID < domains[j].ID })
	return domains, nil
}

// splitBody separates the persona prose from the business-rules section.
func splitBody(content string) (persona, rules string) {
	before, after, found := strings.Cut(content, businessRulesHeading)
	persona = strings.TrimSpace(before)
	if found {
		rules = strings.TrimSpace(after)
	}
	return persona, rules
}

func trimExtension(id string) string {
	if i := strings.LastIndex(id, "."); i > 0 {
		return id[:i]
	}
	return id
}
