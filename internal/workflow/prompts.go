package workflow

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// planSchema is the structured-output contract for both generation calls
// and the merge call.
func planSchema() map[string]any {
	stepSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"function": map[string]any{
				"type":        "string",
				"description": "A registry function name or one of the virtual functions.",
			},
			"inputMapping": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
				"description":          "Parameter name to ${reservedToken}, field reference, or literal text.",
			},
			"outputAs": map[string]any{
				"type":        "string",
				"description": "Field name the step's result is stored under.",
			},
			"skipIf": map[string]any{
				"type":        "string",
				"description": "Skip predicate: path, !path, path == literal, path != literal.",
			},
			"waitForUser": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"field":  map[string]any{"type": "string"},
					"prompt": map[string]any{"type": "string"},
				},
				"required": []string{"field"},
			},
			"onSuccess": map[string]any{"type": "string"},
			"onError":   map[string]any{"type": "string"},
		},
		"required": []string{"function"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":  map[string]any{"type": "string"},
			"steps": map[string]any{"type": "array", "items": stepSchema},
		},
		"required": []string{"name", "steps"},
	}
}

// registryBlock renders the callable surface a plan may use: the domain's
// functions plus the engine's virtual functions.
func registryBlock(d *domain.Domain) string {
	var b strings.Builder
	b.WriteString("Functions:\n")
	for _, fn := range d.Functions {
		b.WriteString("  - ")
		b.WriteString(fn.Name)
		b.WriteString("(")
		b.WriteString(renderParams(fn))
		b.WriteString(")")
		if fn.Virtual {
			b.WriteString(" [virtual]")
		}
		if fn.Description != "" {
			b.WriteString(" — ")
			b.WriteString(fn.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString(`
Virtual functions (handled by the engine, never dispatched):
  - AskUser — pause and ask; waitForUser carries field + prompt.
  - ConfirmWithUser — render a summary from inputMapping, wait for a yes/no field.
  - PresentOptions — number the items of a prior list output, wait for a 1-based selection field.
  - ExtractEntityId — resolve an id from a prior list output by matching known entity values; store it under outputAs.
`)
	return b.String()
}

func renderParams(fn domain.FunctionDefinition) string {
	names := make([]string, 0, len(fn.Parameters))
	for name := range fn.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		spec := fn.Parameters[name]
		req := "optional"
		if spec.Required {
			req = "required"
		}
		parts = append(parts, fmt.Sprintf("%s: %s, %s", name, spec.Type, req))
	}
	return strings.Join(parts, "; ")
}

func mappingRules() string {
	return `Rules for inputMapping values:
  - Use ${todayISO}, ${safeDateEnd}, ${domainId} or ${apiEndpoint} for runtime values. Never write a literal date: the plan runs on arbitrary future days.
  - Reference a field by its name ("chosenDate") or a dotted path into a prior output ("patient.PatNum"). Every referenced field must be a domain entity or produced by an earlier step's outputAs or waitForUser.
  - Anything with spaces is passed through as literal text.
  - Ask before acting: any operation that creates, changes or cancels something real must be preceded by a ConfirmWithUser step.`
}

// generationSystem has two deliberately different framings so the
// candidates fail independently rather than sharing one blind spot.
func generationSystem(d *domain.Domain, variant int) string {
	var b strings.Builder
	if variant == 0 {
		b.WriteString("You design conversational workflows. Favor the shortest plan that reliably completes the goal: gather what is missing, confirm anything consequential, then act.\n\n")
	} else {
		b.WriteString("You are a workflow compiler. Trace the data dependencies first: every parameter of every call must have a producer (an entity, an earlier output, a wait step, or a reserved token). Emit steps in dependency order.\n\n")
	}
	b.WriteString(registryBlock(d))
	if len(d.Entities) > 0 {
		b.WriteString("\nEntities the user may supply:\n")
		for _, ent := range d.Entities {
			fmt.Fprintf(&b, "  - %s (%s)\n", ent.Name, ent.Type)
		}
	}
	if d.BusinessRules != "" {
		b.WriteString("\nBusiness rules:\n")
		b.WriteString(d.BusinessRules)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mappingRules())
	return b.String()
}

func generationUser(intent string, extracted map[string]any, findings []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Produce the workflow for intent: %q.\n", intent)
	if len(extracted) > 0 {
		keys := make([]string, 0, len(extracted))
		for k := range extracted {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("Already extracted this turn (available as fields): ")
		b.WriteString(strings.Join(keys, ", "))
		b.WriteString("\n")
	}
	if len(findings) > 0 {
		b.WriteString("\nA previous attempt was rejected. Fix every one of these findings:\n")
		for _, f := range findings {
			b.WriteString("  - ")
			b.WriteString(f)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func mergeSystem(d *domain.Domain) string {
	return "You reconcile two candidate workflows for the same goal. Compare their step-ordering intent and data dependencies. When they agree, return the cleaner rendering; when they differ, keep the steps that respect the rules below and drop anything unsupported.\n\n" +
		registryBlock(d) + "\n" + mappingRules()
}

func mergeUser(intent string, candA, candB map[string]any) string {
	rawA, _ := json.Marshal(candA)
	rawB, _ := json.Marshal(candB)
	return fmt.Sprintf("Intent: %q\n\nCandidate A:\n%s\n\nCandidate B:\n%s\n\nReturn the single agreed workflow.", intent, rawA, rawB)
}
