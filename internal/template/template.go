// Package template resolves the engine-owned value namespace used inside
// plan input mappings and response messages.
//
// A mapping value is either a ${name} token resolved from the reserved
// namespace, or a dotted path into accumulated session data. Tokens outside
// the reserved namespace are configuration errors, never entity names.
package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// DefaultSafeWindowDays is the horizon used for safeDateEnd when the domain
// does not configure one.
const DefaultSafeWindowDays = 90

// Seed injects the reserved values into a session's parameter space.
// Plans reference these as ${todayISO}, ${safeDateEnd}, ${domainId} and
// ${apiEndpoint} instead of baking literals in at synthesis time.
func Seed(data map[string]any, domainID, endpoint string, now time.Time, safeWindowDays int) {
	if safeWindowDays <= 0 {
		safeWindowDays = DefaultSafeWindowDays
	}
	now = now.UTC()
	data[domain.ReservedTodayISO] = now.Format("2006-01-02")
	data[domain.ReservedSafeDateEnd] = now.AddDate(0, 0, safeWindowDays).Format("2006-01-02")
	data[domain.ReservedDomainID] = domainID
	data[domain.ReservedEndpoint] = endpoint
}

var tokenRe = regexp.MustCompile(`^\$\{([A-Za-z][A-Za-z0-9_]*)\}$`)

// IsToken reports whether a mapping value is a ${name} template token.
func IsToken(v string) bool {
	return tokenRe.MatchString(v)
}

// TokenName returns the name inside a ${name} token, or "" when v is not
// a token.
func TokenName(v string) string {
	m := tokenRe.FindStringSubmatch(v)
	if m == nil {
		return ""
	}
	return m[1]
}

// Resolve resolves a ${name} token against seeded session data. Only
// reserved names resolve; anything else is a configuration error surfaced
// as domain.TemplateError so a malformed plan fails loudly instead of
// shipping the raw token to a domain API.
func Resolve(v string, data map[string]any) (any, error) {
	name := TokenName(v)
	if name == "" || !domain.IsReservedName(name) {
		return nil, &domain.TemplateError{Token: v}
	}
	val, ok := data[name]
	if !ok {
		return nil, &domain.TemplateError{Token: v}
	}
	return val, nil
}

// Lookup resolves a dotted path ("patient.PatNum", "slots.0.start") against
// session data. Intermediate segments traverse maps by key and slices by
// index. The boolean is false when any segment is absent.
func Lookup(data map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var cur any = data
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

var fieldRe = regexp.MustCompile(`\{([A-Za-z][A-Za-z0-9_.]*)\}`)

// RenderMessage interpolates {field} references in a response template with
// values from session data. Fields support dotted paths. Unresolvable
// references are left verbatim so a gap is visible rather than silent.
func RenderMessage(tmpl string, data map[string]any) string {
	return fieldRe.ReplaceAllStringFunc(tmpl, func(ref string) string {
		path := ref[1 : len(ref)-1]
		val, ok := Lookup(data, path)
		if !ok {
			return ref
		}
		return Stringify(val)
	})
}

// Stringify renders a session-data value for user-facing text.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		// JSON round-trips numbers as float64; keep integers clean.
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "yes"
		}
		return "no"
	default:
		return fmt.Sprintf("%v", val)
	}
}
