package template

import (
	"sort"
	"strings"
	"unicode"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// maxFieldRefLen is the length beyond which a mapping value is treated as
// literal prompt text rather than a field name.
const maxFieldRefLen = 50

// IsFieldRef classifies a mapping value as a reference into session data.
// The exclusion rules run in order: ${} tokens resolve from the reserved
// namespace, bare reserved names are engine-owned, and literal phrases
// (whitespace, over-long, or not starting with a letter) are passed through
// untouched. Everything else names a field.
func IsFieldRef(v string) bool {
	if IsToken(v) {
		return false
	}
	if domain.IsReservedName(v) {
		return false
	}
	if v == "" || len(v) > maxFieldRefLen {
		return false
	}
	if strings.IndexFunc(v, unicode.IsSpace) >= 0 {
		return false
	}
	first := []rune(v)[0]
	return unicode.IsLetter(first)
}

// FieldRef returns the session-data field a mapping value reads, or ""
// when the value is a token or literal. Dotted paths contribute their head
// segment: "patient.PatNum" reads the "patient" field.
func FieldRef(v string) string {
	if !IsFieldRef(v) {
		return ""
	}
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}

// PredicateRef returns the session-data field a skipIf predicate reads, or
// "". The grammar is "path", "!path", "path == literal", "path != literal";
// only the path operand can name a field.
func PredicateRef(cond string) string {
	cond = strings.TrimSpace(cond)
	if i := strings.Index(cond, "=="); i >= 0 {
		cond = cond[:i]
	} else if i := strings.Index(cond, "!="); i >= 0 {
		cond = cond[:i]
	}
	cond = strings.TrimSpace(strings.TrimPrefix(cond, "!"))
	return FieldRef(cond)
}

// FieldRefs returns the distinct session-data fields a plan's steps read,
// across input mappings and skipIf predicates, sorted for stable iteration.
func FieldRefs(steps []domain.PlanStep) []string {
	seen := make(map[string]struct{})
	for _, step := range steps {
		for _, v := range step.InputMapping {
			if f := FieldRef(v); f != "" {
				seen[f] = struct{}{}
			}
		}
		if f := PredicateRef(step.SkipIf); f != "" {
			seen[f] = struct{}{}
		}
	}
	fields := make([]string, 0, len(seen))
	for f := range seen {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
