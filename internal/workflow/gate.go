package workflow

import (
	"fmt"
	"sort"
	"time"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/template"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/schema"
)

// CheckPlan is the deterministic quality gate every synthesized plan must
// pass before persisting. It returns human-readable findings; an empty
// slice means the plan is sound. Findings are deterministic in content and
// order so a regeneration prompt stays stable.
func CheckPlan(d *domain.Domain, plan *domain.Plan) []string {
	var findings []string

	if len(plan.Steps) == 0 {
		return []string{"plan has no steps"}
	}

	produced := make(map[string]bool)
	confirmed := false

	for i, step := range plan.Steps {
		label := fmt.Sprintf("step %d (%s)", i+1, step.Function)

		fn := d.Function(step.Function)
		virtual := domain.IsVirtualFunction(step.Function) || (fn != nil && fn.Virtual)
		if fn == nil && !domain.IsVirtualFunction(step.Function) {
			findings = append(findings, fmt.Sprintf("%s: function not in domain registry", label))
		}

		if !virtual && d.IsCritical(step.Function) && !confirmed {
			findings = append(findings, fmt.Sprintf("%s: critical operation without a preceding %s step", label, domain.FuncConfirmWithUser))
		}

		for _, param := range sortedKeys(step.InputMapping) {
			value := step.InputMapping[param]
			switch {
			case template.IsToken(value):
				if !domain.IsReservedName(template.TokenName(value)) {
					findings = append(findings, fmt.Sprintf("%s: inputMapping %q uses unknown template token %s", label, param, value))
				}
			case isLiteralDate(value):
				findings = append(findings, fmt.Sprintf("%s: inputMapping %q holds literal date %q; use a reserved token or field reference", label, param, value))
			default:
				if field := template.FieldRef(value); field != "" {
					if !produced[field] && d.Entity(field) == nil {
						findings = append(findings, fmt.Sprintf("%s: inputMapping %q references %q, which no entity, earlier output, or wait step provides", label, param, field))
					}
				}
			}
		}

		if step.WaitForUser != nil && step.WaitForUser.Field != "" {
			produced[step.WaitForUser.Field] = true
		}
		if step.OutputAs != "" {
			produced[step.OutputAs] = true
		}
		if step.Function == domain.FuncConfirmWithUser {
			confirmed = true
		}
	}

	return findings
}

// RegisterPlanEntities returns the domain extended with definitions for
// fields the plan references but the configuration never declares. A
// skipIf predicate can name a field no mapping, output, or wait step
// produces; declaring it lets answer validation and clarification treat
// it like any configured entity. The catalog's domain is shared across
// sessions, so the extension is a copy, never a mutation.
func RegisterPlanEntities(d *domain.Domain, plan *domain.Plan) *domain.Domain {
	produced := make(map[string]bool)
	for _, step := range plan.Steps {
		if step.WaitForUser != nil && step.WaitForUser.Field != "" {
			produced[step.WaitForUser.Field] = true
		}
		if step.OutputAs != "" {
			produced[step.OutputAs] = true
		}
	}

	var extra []domain.EntityDefinition
	for _, field := range template.FieldRefs(plan.Steps) {
		if produced[field] || d.Entity(field) != nil {
			continue
		}
		extra = append(extra, domain.EntityDefinition{Name: field, Type: "string"})
	}
	if len(extra) == 0 {
		return d
	}

	extended := *d
	extended.Entities = append(append([]domain.EntityDefinition{}, d.Entities...), extra...)
	return &extended
}

// isLiteralDate reports whether a mapping value is a hardcoded calendar
// date or timestamp. Plans must stay valid on every future day, so
// generation-time dates are poison.
func isLiteralDate(v string) bool {
	if _, ok := schema.ParseDate(v); ok {
		return true
	}
	if _, err := time.Parse("2006-01-02 15:04", v); err == nil {
		return true
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
