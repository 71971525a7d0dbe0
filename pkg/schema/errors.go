package schema

import "fmt"

// ValidationError represents a single parameter validation failure.
type ValidationError struct {
	Key    string // Parameter name
	Kind   string // Validator kind that rejected the value, when known
	Reason string // Human-readable reason for failure
	Value  any    // The value that failed validation
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %T)", e.Key, e.Reason, e.Value)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// ValidationErrors returns all field failures if err is an AggregateError,
// a single-element slice if err is a ValidationError, nil otherwise.
func ValidationErrors(err error) []*ValidationError {
	switch e := err.(type) {
	case *AggregateError:
		out := make([]*ValidationError, 0, len(e.Errors))
		for _, inner := range e.Errors {
			if ve, ok := inner.(*ValidationError); ok {
				out = append(out, ve)
			}
		}
		return out
	case *ValidationError:
		return []*ValidationError{e}
	}
	return nil
}

// MissingRequired returns the names of required parameters err reports as
// absent.
func MissingRequired(err error) []string {
	var out []string
	for _, ve := range ValidationErrors(err) {
		if ve.Reason == "required" {
			out = append(out, ve.Key)
		}
	}
	return out
}
