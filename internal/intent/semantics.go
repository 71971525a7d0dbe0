package intent

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/schema"
)

// Two extractions of the same utterance rarely disagree on meaning while
// agreeing on surface form; the hard case is the reverse. The comparisons
// here accept the surface variation models produce: casing, date layouts,
// relative day names, digit grouping in phone numbers.

// EquivalentIntents reports whether two extracted intent labels agree.
func EquivalentIntents(a, b string) bool {
	return canonIntent(a) == canonIntent(b)
}

func canonIntent(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// EquivalentValues reports whether two extracted entity values agree in
// meaning. now anchors relative day references.
func EquivalentValues(a, b any, now time.Time) bool {
	as := valueString(a)
	bs := valueString(b)
	if strings.EqualFold(strings.TrimSpace(as), strings.TrimSpace(bs)) {
		return true
	}
	if ad, aok := parseWhen(as, now); aok {
		if bd, bok := parseWhen(bs, now); bok {
			return ad.Equal(bd)
		}
	}
	if af, aok := parseNumber(a); aok {
		if bf, bok := parseNumber(b); bok {
			return af == bf
		}
	}
	if ap, aok := phoneDigits(as); aok {
		if bp, bok := phoneDigits(bs); bok {
			return samePhone(ap, bp)
		}
	}
	if ab, err := schema.ParseConfirmation(a); err == nil {
		if bb, err := schema.ParseConfirmation(b); err == nil {
			return ab == bb
		}
	}
	return false
}

// MergeExtractions combines two independent extractions once their intents
// agree. Keys present in both must hold equivalent values; the primary's
// rendering wins. Keys seen by only one extraction are kept, since one
// model noticing an entity the other missed is not a conflict. The second
// return lists conflicting keys, sorted.
func MergeExtractions(primary, secondary map[string]any, now time.Time) (map[string]any, []string) {
	merged := make(map[string]any, len(primary)+len(secondary))
	var conflicts []string
	for k, v := range primary {
		merged[k] = v
	}
	for k, v := range secondary {
		pv, shared := primary[k]
		if !shared {
			merged[k] = v
			continue
		}
		if !EquivalentValues(pv, v, now) {
			conflicts = append(conflicts, k)
		}
	}
	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		return nil, conflicts
	}
	return merged, nil
}

func valueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func parseNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// parseWhen resolves absolute date layouts and relative day references to
// a calendar day.
func parseWhen(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if d, ok := schema.ParseDate(s); ok {
		return day(d), true
	}
	return parseRelativeDay(s, now)
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// parseRelativeDay anchors spoken day references at the supplied clock.
func parseRelativeDay(s string, now time.Time) (time.Time, bool) {
	today := day(now)
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "today", "tonight":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	case "day after tomorrow":
		return today.AddDate(0, 0, 2), true
	case "yesterday":
		return today.AddDate(0, 0, -1), true
	}

	if rest, ok := strings.CutPrefix(name, "in "); ok {
		rest, _ = strings.CutSuffix(rest, " days")
		rest, _ = strings.CutSuffix(rest, " day")
		if n, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil {
			return today.AddDate(0, 0, n), true
		}
		return time.Time{}, false
	}

	next := false
	if rest, ok := strings.CutPrefix(name, "next "); ok {
		name, next = rest, true
	} else if rest, ok := strings.CutPrefix(name, "this "); ok {
		name = rest
	}
	wd, ok := weekdays[name]
	if !ok {
		return time.Time{}, false
	}
	delta := (int(wd) - int(today.Weekday()) + 7) % 7
	if delta == 0 && next {
		delta = 7
	}
	return today.AddDate(0, 0, delta), true
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func phoneDigits(s string) (string, bool) {
	var digits strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+' || r == '-' || r == '(' || r == ')' || r == '.' || r == ' ':
		default:
			return "", false
		}
	}
	if digits.Len() < 7 {
		return "", false
	}
	return digits.String(), true
}

// samePhone tolerates a country-code prefix on one side.
func samePhone(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	return len(b)-len(a) <= 3 && strings.HasSuffix(b, a)
}
