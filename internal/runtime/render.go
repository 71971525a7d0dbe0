package runtime

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/template"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

const (
	defaultDoneMessage    = "All done."
	defaultErrorMessage   = "Sorry, I ran into a problem with that. Nothing was changed."
	defaultDeclineMessage = "Okay, I won't go ahead with that."
	defaultConfirmPrompt  = "Shall I go ahead? (yes/no)"
	defaultSelectPrompt   = "Reply with the number of your choice."
)

// renderTemplate interpolates a message template against session data,
// falling back when the template is empty.
func renderTemplate(tmpl string, data map[string]any, fallback string) string {
	if strings.TrimSpace(tmpl) == "" {
		return fallback
	}
	return template.RenderMessage(tmpl, data)
}

// clarificationQuestion asks the user for one named field, using the
// entity's hint when the domain declares one.
func clarificationQuestion(d *domain.Domain, field string) string {
	if ent := d.Entity(field); ent != nil && ent.Hint != "" {
		return fmt.Sprintf("Could you give me the %s? (%s)", field, ent.Hint)
	}
	return fmt.Sprintf("Could you give me the %s?", field)
}

// renderOptions formats a list output as a numbered list, one option per
// line.
func renderOptions(items []any) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, renderOption(item))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderOption renders one list element. Object items print their fields
// in a stable order so repeated presentations look identical.
func renderOption(item any) string {
	fields, ok := item.(map[string]any)
	if !ok {
		return template.Stringify(item)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, template.Stringify(fields[k])))
	}
	return strings.Join(parts, ", ")
}

func joinLines(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}
