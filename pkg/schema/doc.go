// Package schema provides the parameter validation system for domain
// functions.
//
// Each function declares its parameters as named validator kinds (phone,
// date, futureDate, pastDate, time, datetime, name, email, id,
// confirmation, selection, string, number, object, array). Compile builds
// a Validator per function once at domain-load time; Validate then checks
// every assembled parameter object before dispatch, so a function with a
// schema mismatch is never invoked.
//
// Basic usage:
//
//	v, err := schema.Compile(fn)
//	if err != nil {
//	    // configuration error: unknown kind
//	}
//
//	if err := v.Validate(params); err != nil {
//	    for _, ve := range schema.ValidationErrors(err) {
//	        // ve.Key, ve.Kind, ve.Reason
//	    }
//	}
//
// NewRegistry compiles all of a domain's functions in one pass, and
// ToolSchema renders a function as a JSON-schema object for language-model
// tool declarations.
//
// Value parsing helpers (ParseDate, ParseTimeOfDay, ParseConfirmation,
// ParseSelection, NormalizePhone) are exported for the layers that collect
// awaited fields and compare entity values.
package schema
