// Package graph renders plans as Mermaid flowcharts for the CLI and for
// embedding in review tooling.
package graph

import (
	"fmt"
	"strings"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// Overlay contains dynamic session state to visualize on the plan graph.
type Overlay struct {
	CompletedSteps int
	CurrentStep    int
	Paused         bool
}

// GenerateMermaid produces a Mermaid flowchart for a plan's step sequence.
// Semantic shapes:
//   - plan entry: ((circle))
//   - virtual user interaction (AskUser, ConfirmWithUser, ...): [/parallelogram/]
//   - external call: [[subroutine]]
//
// Steps with a WaitForUser directive gain a pause edge back to themselves,
// SkipIf predicates label a bypass edge, and OnError responses end in a
// terminal node.
func GenerateMermaid(plan *domain.Plan, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	entry := sanitizeMermaidID(plan.ID)
	if entry == "" {
		entry = "plan"
	}
	sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", entry, escapeLabel(planLabel(plan))))

	prev := entry
	for i, step := range plan.Steps {
		id := stepID(i)

		opener, closer := "[[", "]]"
		if domain.IsVirtualFunction(step.Function) {
			opener, closer = "[/", "/]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", id, opener, escapeLabel(stepLabel(i, step)), closer))

		arrow := "-->"
		if step.SkipIf != "" {
			arrow = fmt.Sprintf("-- \"unless %s\" -->", escapeLabel(step.SkipIf))
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", prev, arrow, id))

		if step.WaitForUser != nil {
			sb.WriteString(fmt.Sprintf("    %s -. \"wait for %s\" .-> %s\n", id, escapeLabel(step.WaitForUser.Field), id))
		}
		if step.OnError != "" {
			failID := id + "_fail"
			sb.WriteString(fmt.Sprintf("    %s([\"%s\"])\n", failID, escapeLabel(truncate(step.OnError, 40))))
			sb.WriteString(fmt.Sprintf("    %s -. error .-> %s\n", id, failID))
		}

		prev = id
	}

	sb.WriteString(fmt.Sprintf("    done((\"done\"))\n    %s --> done\n", prev))

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef completed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		for i := 0; i < overlay.CompletedSteps && i < len(plan.Steps); i++ {
			sb.WriteString(fmt.Sprintf("    class %s completed;\n", stepID(i)))
		}
		if overlay.CurrentStep >= 0 && overlay.CurrentStep < len(plan.Steps) {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", stepID(overlay.CurrentStep)))
		}
	}

	return sb.String()
}

func planLabel(plan *domain.Plan) string {
	if plan.Name != "" {
		return plan.Name
	}
	return plan.ID
}

func stepLabel(i int, step domain.PlanStep) string {
	label := fmt.Sprintf("%d. %s", i+1, step.Function)
	if step.OutputAs != "" {
		label += " → " + step.OutputAs
	}
	return label
}

func stepID(i int) string {
	return fmt.Sprintf("step%d", i)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_")
	return r.Replace(id)
}
