package schema

import (
	"fmt"
	"sort"
	"time"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// compiledField is one parameter's validation recipe.
type compiledField struct {
	typ      Type
	required bool
	nullable bool
}

// Validator checks assembled parameter objects for a single function.
// Built once at domain-load time, used for every call.
type Validator struct {
	function string
	fields   map[string]compiledField
}

// Option configures validator compilation.
type Option func(*compileConfig)

type compileConfig struct {
	now func() time.Time
}

// WithClock pins the clock used by temporal kinds (futureDate, pastDate).
func WithClock(now func() time.Time) Option {
	return func(c *compileConfig) {
		c.now = now
	}
}

// Compile builds the parameter validator for a function definition.
// Unknown validator kinds fail compilation; that is a configuration error
// caught at domain-load time, not mid-conversation.
func Compile(fn domain.FunctionDefinition, opts ...Option) (*Validator, error) {
	cfg := compileConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	fields := make(map[string]compiledField, len(fn.Parameters))
	for name, spec := range fn.Parameters {
		typ, err := ParseKind(spec.Type, cfg.now)
		if err != nil {
			return nil, fmt.Errorf("function %s, parameter %s: %w", fn.Name, name, err)
		}
		fields[name] = compiledField{
			typ:      typ,
			required: spec.Required,
			nullable: spec.Nullable,
		}
	}

	return &Validator{function: fn.Name, fields: fields}, nil
}

// Function returns the function name this validator was compiled for.
func (v *Validator) Function() string { return v.function }

// Required returns the required parameter names in sorted order.
func (v *Validator) Required() []string {
	var out []string
	for name, f := range v.fields {
		if f.required {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Validate checks params against the compiled schema. All failures are
// collected; any failure means the function must not be invoked.
func (v *Validator) Validate(params map[string]any) error {
	var errs []error

	for name, f := range v.fields {
		value, present := params[name]
		if !present {
			if f.required {
				errs = append(errs, &ValidationError{Key: name, Kind: f.typ.Name(), Reason: "required"})
			}
			continue
		}
		if value == nil {
			if !f.nullable {
				errs = append(errs, &ValidationError{Key: name, Kind: f.typ.Name(), Reason: "null not allowed"})
			}
			continue
		}
		if err := f.typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: name, Kind: f.typ.Name(), Reason: err.Error(), Value: value})
		}
	}

	// Reject parameters the function never declared. Plans and model
	// outputs both flow through here; silently passing extras hides
	// misgenerated mappings.
	for name := range params {
		if _, declared := v.fields[name]; !declared {
			errs = append(errs, &ValidationError{Key: name, Reason: "not declared in schema", Value: params[name]})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidateValue checks a single value against one declared parameter.
// Used when a paused session collects an awaited field.
func (v *Validator) ValidateValue(name string, value any) error {
	f, ok := v.fields[name]
	if !ok {
		return &ValidationError{Key: name, Reason: "not declared in schema"}
	}
	if value == nil {
		if f.nullable {
			return nil
		}
		return &ValidationError{Key: name, Kind: f.typ.Name(), Reason: "null not allowed"}
	}
	if err := f.typ.Validate(value); err != nil {
		return &ValidationError{Key: name, Kind: f.typ.Name(), Reason: err.Error(), Value: value}
	}
	return nil
}
