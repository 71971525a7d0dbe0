package providers

import (
	"strings"
	"testing"
)

func TestDecodeStructuredPlain(t *testing.T) {
	out, err := decodeStructured(`{"intent":"book appointment","confidence":0.9}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["intent"] != "book appointment" {
		t.Errorf("intent = %v", out["intent"])
	}
}

func TestDecodeStructuredFenced(t *testing.T) {
	reply := "```json\n{\"intent\":\"cancel appointment\",\"confidence\":0.8}\n```"
	out, err := decodeStructured(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["intent"] != "cancel appointment" {
		t.Errorf("intent = %v", out["intent"])
	}
}

func TestDecodeStructuredWithProse(t *testing.T) {
	reply := "Here is the classification you asked for:\n{\"intent\":\"unknown\",\"confidence\":0.2}\nLet me know if you need anything else."
	out, err := decodeStructured(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["intent"] != "unknown" {
		t.Errorf("intent = %v", out["intent"])
	}
}

func TestDecodeStructuredNested(t *testing.T) {
	reply := `{"entities":{"patient":{"name":"Ann"}},"note":"braces } in { strings stay intact"}`
	out, err := decodeStructured(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entities, ok := out["entities"].(map[string]any)
	if !ok {
		t.Fatalf("entities = %T", out["entities"])
	}
	if _, ok := entities["patient"]; !ok {
		t.Error("nested object lost")
	}
}

func TestDecodeStructuredNoObject(t *testing.T) {
	if _, err := decodeStructured("I cannot answer that."); err == nil {
		t.Error("expected error for reply without JSON")
	}
	if _, err := decodeStructured(""); err == nil {
		t.Error("expected error for empty reply")
	}
	if _, err := decodeStructured("{ unterminated"); err == nil {
		t.Error("expected error for unbalanced braces")
	}
}

func TestStructuredInstruction(t *testing.T) {
	schema := map[string]any{"type": "object", "required": []string{"intent"}}
	got := structuredInstruction(schema)
	if !strings.Contains(got, `"required":["intent"]`) {
		t.Errorf("instruction missing schema: %q", got)
	}
	if !strings.Contains(got, "single JSON object") {
		t.Errorf("instruction missing contract wording: %q", got)
	}
}
