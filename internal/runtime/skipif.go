package runtime

import (
	"strings"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/template"
)

// evalSkipIf reports whether a step's skipIf predicate holds against the
// session data bag. Grammar: "path", "!path", "path == literal",
// "path != literal". An empty or unparseable predicate never skips.
func evalSkipIf(cond string, data map[string]any) bool {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return false
	}

	if path, literal, found := cutOperator(cond, "=="); found {
		return literalEquals(data, path, literal)
	}
	if path, literal, found := cutOperator(cond, "!="); found {
		return !literalEquals(data, path, literal)
	}
	if path, found := strings.CutPrefix(cond, "!"); found {
		return !truthy(data, strings.TrimSpace(path))
	}
	return truthy(data, cond)
}

func cutOperator(cond, op string) (path, literal string, found bool) {
	before, after, found := strings.Cut(cond, op)
	if !found {
		return "", "", false
	}
	return strings.TrimSpace(before), trimQuotes(strings.TrimSpace(after)), true
}

func trimQuotes(s string) string {
	return strings.Trim(s, `'"`)
}

func literalEquals(data map[string]any, path, literal string) bool {
	val, ok := template.Lookup(data, path)
	if !ok {
		return false
	}
	return strings.EqualFold(template.Stringify(val), literal)
}

// truthy: the path resolves to a value that is present, non-empty, and not
// false or zero.
func truthy(data map[string]any, path string) bool {
	val, ok := template.Lookup(data, path)
	if !ok {
		return false
	}
	switch v := val.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	return true
}
