package schema

import (
	"fmt"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// Registry holds the compiled validator for every function of one domain.
// Built once when the domain is loaded, read-only afterwards.
type Registry struct {
	domainID   string
	validators map[string]*Validator
}

// NewRegistry compiles validators for every function in the domain.
func NewRegistry(d *domain.Domain, opts ...Option) (*Registry, error) {
	validators := make(map[string]*Validator, len(d.Functions))
	for _, fn := range d.Functions {
		if _, dup := validators[fn.Name]; dup {
			return nil, fmt.Errorf("domain %s: duplicate function %s", d.ID, fn.Name)
		}
		v, err := Compile(fn, opts...)
		if err != nil {
			return nil, fmt.Errorf("domain %s: %w", d.ID, err)
		}
		validators[fn.Name] = v
	}
	return &Registry{domainID: d.ID, validators: validators}, nil
}

// Validator returns the compiled validator for a function.
func (r *Registry) Validator(function string) (*Validator, bool) {
	v, ok := r.validators[function]
	return v, ok
}

// Validate checks params for the named function.
func (r *Registry) Validate(function string, params map[string]any) error {
	v, ok := r.validators[function]
	if !ok {
		return fmt.Errorf("domain %s has no function %s", r.domainID, function)
	}
	return v.Validate(params)
}
