package domain

import "strings"

// Domain is a configured business context: the functions the engine may
// call, the entities it may extract, the trigger phrases it matches, and
// the API endpoint it dispatches to. Domains are loaded from configuration
// and never mutated at runtime.
type Domain struct {
	ID                 string               `json:"id" yaml:"id" mapstructure:"id"`
	Name               string               `json:"name" yaml:"name" mapstructure:"name"`
	Persona            string               `json:"persona,omitempty" yaml:"persona,omitempty" mapstructure:"persona"`
	Endpoint           string               `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	BusinessRules      string               `json:"businessRules,omitempty" yaml:"businessRules,omitempty" mapstructure:"businessRules"`
	CriticalOperations []string             `json:"criticalOperations,omitempty" yaml:"criticalOperations,omitempty" mapstructure:"criticalOperations"`
	Functions          []FunctionDefinition `json:"functions,omitempty" yaml:"functions,omitempty" mapstructure:"functions"`
	Entities           []EntityDefinition   `json:"entities,omitempty" yaml:"entities,omitempty" mapstructure:"entities"`
	Triggers           []TriggerPhrase      `json:"triggers,omitempty" yaml:"triggers,omitempty" mapstructure:"triggers"`
}

// FunctionDefinition describes a callable operation within a domain.
// Virtual functions are handled in-process; everything else is dispatched
// to the domain's API endpoint.
type FunctionDefinition struct {
	Name        string                   `json:"name" yaml:"name" mapstructure:"name"`
	Description string                   `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Parameters  map[string]ParameterSpec `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`
	Virtual     bool                     `json:"virtual,omitempty" yaml:"virtual,omitempty" mapstructure:"virtual"`
}

// ParameterSpec declares a single function parameter.
// Type names one of the schema validator kinds.
type ParameterSpec struct {
	Type        string `json:"type" yaml:"type" mapstructure:"type"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required"`
	Nullable    bool   `json:"nullable,omitempty" yaml:"nullable,omitempty" mapstructure:"nullable"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
}

// EntityDefinition describes an extractable value within a domain.
// Type names a schema validator kind; Hint guides extraction prompts.
type EntityDefinition struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	Type string `json:"type" yaml:"type" mapstructure:"type"`
	Hint string `json:"hint,omitempty" yaml:"hint,omitempty" mapstructure:"hint"`
}

// TriggerPhrase maps a literal phrase to an intent name.
type TriggerPhrase struct {
	Phrase string `json:"phrase" yaml:"phrase" mapstructure:"phrase"`
	Intent string `json:"intent" yaml:"intent" mapstructure:"intent"`
}

// Function returns the named function definition, or nil.
func (d *Domain) Function(name string) *FunctionDefinition {
	for i := range d.Functions {
		if d.Functions[i].Name == name {
			return &d.Functions[i]
		}
	}
	return nil
}

// Entity returns the named entity definition, or nil.
func (d *Domain) Entity(name string) *EntityDefinition {
	for i := range d.Entities {
		if d.Entities[i].Name == name {
			return &d.Entities[i]
		}
	}
	return nil
}

// Intents returns the distinct intent names reachable via trigger phrases.
func (d *Domain) Intents() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range d.Triggers {
		if t.Intent == "" || seen[t.Intent] {
			continue
		}
		seen[t.Intent] = true
		out = append(out, t.Intent)
	}
	return out
}

// IsCritical reports whether a function name matches one of the domain's
// critical operation patterns. Patterns match exactly, or by prefix when
// they end with '*' (e.g. "Create*", "Cancel*").
func (d *Domain) IsCritical(function string) bool {
	for _, pat := range d.CriticalOperations {
		if pat == "" {
			continue
		}
		if strings.HasSuffix(pat, "*") {
			if strings.HasPrefix(function, strings.TrimSuffix(pat, "*")) {
				return true
			}
			continue
		}
		if function == pat {
			return true
		}
	}
	return false
}
