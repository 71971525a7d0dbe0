package schema

import "github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"

// jsonType maps a validator kind to its JSON-schema primitive.
func jsonType(kind string) string {
	switch kind {
	case KindNumber, KindSelection:
		return "number"
	case KindConfirmation:
		return "boolean"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		// phone, date, time, name, email, id and friends travel as strings.
		return "string"
	}
}

// ToolSchema renders a function's parameters as a JSON-schema object for
// language-model tool declarations: {"type": "object", "properties": ...,
// "required": [...]}. Kind semantics are folded into the description so
// the model sees the expected format.
func ToolSchema(fn domain.FunctionDefinition) map[string]any {
	properties := make(map[string]any, len(fn.Parameters))
	var required []string

	for name, spec := range fn.Parameters {
		prop := map[string]any{"type": jsonType(spec.Type)}
		desc := spec.Description
		switch spec.Type {
		case KindDate, KindFutureDate, KindPastDate:
			desc = appendHint(desc, "format: YYYY-MM-DD")
		case KindTime:
			desc = appendHint(desc, "format: HH:MM, 24-hour")
		case KindDateTime:
			desc = appendHint(desc, "format: RFC 3339")
		case KindPhone:
			desc = appendHint(desc, "digits only, optional leading +")
		case KindSelection:
			desc = appendHint(desc, "1-based option index")
		}
		if desc != "" {
			prop["description"] = desc
		}
		properties[name] = prop
		if spec.Required {
			required = append(required, name)
		}
	}

	out := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func appendHint(desc, hint string) string {
	if desc == "" {
		return hint
	}
	return desc + " (" + hint + ")"
}
