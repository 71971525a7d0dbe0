package providers

import (
	"encoding/json"
	"fmt"
	"strings"
)

// structuredInstruction turns a response schema into an instruction block
// appended to the system prompt. Neither backend is asked for free-form
// prose on this path, so the instruction doubles as the output contract.
func structuredInstruction(schema map[string]any) string {
	raw, err := json.Marshal(schema)
	if err != nil {
		raw = []byte("{}")
	}
	return "Respond with a single JSON object and nothing else. The object must conform to this JSON schema:\n" + string(raw)
}

// decodeStructured parses a model reply into a JSON object, tolerating the
// markdown fences and surrounding prose models wrap JSON in.
func decodeStructured(text string) (map[string]any, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	candidate := extractObject(cleaned)
	if candidate == "" {
		return nil, fmt.Errorf("no JSON object in reply")
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(candidate), &out); err != nil {
		return nil, fmt.Errorf("parse structured reply: %w", err)
	}
	return out, nil
}

// extractObject returns the first brace-balanced object in the text.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
