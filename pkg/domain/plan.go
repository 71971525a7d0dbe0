package domain

import "time"

// Provenance records how a plan came to exist.
type Provenance string

const (
	ProvenanceSynthesized Provenance = "synthesized"
	ProvenancePromoted    Provenance = "promoted"
)

// Plan is an ordered sequence of steps satisfying one or more intents
// within a domain. Plans are immutable once persisted except for full
// replacement, and are looked up by (domain, intent).
type Plan struct {
	ID         string     `json:"id" yaml:"id" mapstructure:"id"`
	DomainID   string     `json:"domainId" yaml:"domainId" mapstructure:"domainId"`
	Name       string     `json:"name" yaml:"name" mapstructure:"name"`
	Intents    []string   `json:"intents" yaml:"intents" mapstructure:"intents"`
	Steps      []PlanStep `json:"steps" yaml:"steps" mapstructure:"steps"`
	Provenance Provenance `json:"provenance,omitempty" yaml:"provenance,omitempty" mapstructure:"provenance"`
	CreatedAt  time.Time  `json:"createdAt,omitempty" yaml:"createdAt,omitempty" mapstructure:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty" mapstructure:"updatedAt"`
}

// PlanStep is one unit of plan execution.
//
// InputMapping values are either dotted paths into the session data bag
// ("customer.id") or ${name} tokens resolved against the reserved runtime
// namespace. SkipIf is a predicate over the data bag; when it holds the
// step is skipped without execution or output.
type PlanStep struct {
	Function     string            `json:"function" yaml:"function" mapstructure:"function"`
	InputMapping map[string]string `json:"inputMapping,omitempty" yaml:"inputMapping,omitempty" mapstructure:"inputMapping"`
	OutputAs     string            `json:"outputAs,omitempty" yaml:"outputAs,omitempty" mapstructure:"outputAs"`
	SkipIf       string            `json:"skipIf,omitempty" yaml:"skipIf,omitempty" mapstructure:"skipIf"`
	WaitForUser  *WaitDirective    `json:"waitForUser,omitempty" yaml:"waitForUser,omitempty" mapstructure:"waitForUser"`
	OnSuccess    string            `json:"onSuccess,omitempty" yaml:"onSuccess,omitempty" mapstructure:"onSuccess"`
	OnError      string            `json:"onError,omitempty" yaml:"onError,omitempty" mapstructure:"onError"`
}

// WaitDirective pauses the plan until the user supplies Field.
// Prompt is rendered to the user when the pause begins; it may interpolate
// {field} placeholders from the data bag.
type WaitDirective struct {
	Field  string `json:"field" yaml:"field" mapstructure:"field"`
	Prompt string `json:"prompt,omitempty" yaml:"prompt,omitempty" mapstructure:"prompt"`
}

// Satisfies reports whether the plan covers the given intent.
func (p *Plan) Satisfies(intent string) bool {
	for _, i := range p.Intents {
		if i == intent {
			return true
		}
	}
	return false
}
