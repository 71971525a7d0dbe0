package intent

import (
	"fmt"
	"strings"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// IntentUnknown is the label both extractions use when the utterance maps
// to none of the domain's intents.
const IntentUnknown = "unknown"

// extractionSchema is the structured-output contract both extraction calls
// must fill. Pinning intent to an enum keeps the models inside the domain's
// vocabulary instead of inventing labels.
func extractionSchema(d *domain.Domain) map[string]any {
	intents := append(d.Intents(), IntentUnknown)
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"intent": map[string]any{
				"type":        "string",
				"enum":        intents,
				"description": "The user's goal, or \"unknown\" when none of the listed intents fit.",
			},
			"confidence": map[string]any{
				"type":        "number",
				"minimum":     0,
				"maximum":     1,
				"description": "How certain you are about the chosen intent.",
			},
			"entities": map[string]any{
				"type":        "object",
				"description": "Values the user explicitly stated, keyed by entity name. Omit anything not said.",
			},
		},
		"required": []string{"intent", "confidence"},
	}
}

// personaSystem frames the extraction from inside the domain: the model
// reads the utterance the way the domain's own assistant would.
func personaSystem(d *domain.Domain) string {
	var b strings.Builder
	if d.Persona != "" {
		b.WriteString(d.Persona)
		b.WriteString("\n\n")
	} else {
		fmt.Fprintf(&b, "You are the assistant for %s.\n\n", d.Name)
	}
	b.WriteString("A user just said something. Decide which of your intents they want and capture any details they stated.\n")
	writeVocabulary(&b, d)
	if d.BusinessRules != "" {
		b.WriteString("\nHouse rules:\n")
		b.WriteString(d.BusinessRules)
		b.WriteString("\n")
	}
	b.WriteString("\nRespond with JSON only, matching the response schema. Never invent entity values the user did not say.")
	return b.String()
}

// neutralSystem frames the same task as detached classification. The two
// framings must stay independent: a shared wording bias would defeat the
// cross-check.
func neutralSystem(d *domain.Domain) string {
	var b strings.Builder
	b.WriteString("You are a precise intent classification system. Classify the utterance against a fixed vocabulary and extract explicitly stated entity values. Do not role-play and do not address the user.\n")
	writeVocabulary(&b, d)
	b.WriteString("\nRespond with JSON only, matching the response schema. When no intent fits, classify as \"unknown\". Extract only literal statements, never inferences.")
	return b.String()
}

func writeVocabulary(b *strings.Builder, d *domain.Domain) {
	b.WriteString("\nIntents:\n")
	for _, intent := range d.Intents() {
		fmt.Fprintf(b, "  - %s\n", intent)
	}
	if len(d.Entities) > 0 {
		b.WriteString("\nEntities:\n")
		for _, ent := range d.Entities {
			if ent.Hint != "" {
				fmt.Fprintf(b, "  - %s (%s): %s\n", ent.Name, ent.Type, ent.Hint)
			} else {
				fmt.Fprintf(b, "  - %s (%s)\n", ent.Name, ent.Type)
			}
		}
	}
}
