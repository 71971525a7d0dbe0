package schema

import (
	"testing"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

func bookingFunction() domain.FunctionDefinition {
	return domain.FunctionDefinition{
		Name: "CreateAppointment",
		Parameters: map[string]domain.ParameterSpec{
			"PatNum":   {Type: KindID, Required: true},
			"AptDate":  {Type: KindFutureDate, Required: true},
			"AptTime":  {Type: KindTime, Required: true},
			"Note":     {Type: KindString},
			"Operator": {Type: KindString, Nullable: true},
		},
	}
}

func TestCompile_UnknownKind(t *testing.T) {
	fn := domain.FunctionDefinition{
		Name: "Broken",
		Parameters: map[string]domain.ParameterSpec{
			"x": {Type: "vibes"},
		},
	}
	if _, err := Compile(fn); err == nil {
		t.Fatal("Compile should reject unknown kinds")
	}
}

func TestValidator_Validate_Success(t *testing.T) {
	v, err := Compile(bookingFunction(), WithClock(fixedNow))
	if err != nil {
		t.Fatalf("Compile error = %v", err)
	}

	params := map[string]any{
		"PatNum":  "pat-17",
		"AptDate": "2025-06-20",
		"AptTime": "14:30",
		"Note":    "first visit",
	}
	if err := v.Validate(params); err != nil {
		t.Errorf("Validate error = %v, want nil", err)
	}
}

func TestValidator_Validate_MissingRequired(t *testing.T) {
	v, _ := Compile(bookingFunction(), WithClock(fixedNow))

	err := v.Validate(map[string]any{
		"PatNum":  "pat-17",
		"AptTime": "14:30",
	})
	if err == nil {
		t.Fatal("Validate should fail when a required field is absent")
	}

	missing := MissingRequired(err)
	if len(missing) != 1 || missing[0] != "AptDate" {
		t.Errorf("MissingRequired = %v, want [AptDate]", missing)
	}
}

func TestValidator_Validate_UndeclaredParam(t *testing.T) {
	v, _ := Compile(bookingFunction(), WithClock(fixedNow))

	err := v.Validate(map[string]any{
		"PatNum":  "pat-17",
		"AptDate": "2025-06-20",
		"AptTime": "14:30",
		"Bogus":   "value",
	})
	if err == nil {
		t.Fatal("Validate should reject undeclared parameters")
	}
}

func TestValidator_Validate_Nullable(t *testing.T) {
	v, _ := Compile(bookingFunction(), WithClock(fixedNow))

	params := map[string]any{
		"PatNum":   "pat-17",
		"AptDate":  "2025-06-20",
		"AptTime":  "14:30",
		"Operator": nil,
	}
	if err := v.Validate(params); err != nil {
		t.Errorf("nullable field rejected: %v", err)
	}

	params["Note"] = nil
	if err := v.Validate(params); err == nil {
		t.Error("null on non-nullable field accepted")
	}
}

func TestValidator_ValidateValue(t *testing.T) {
	v, _ := Compile(bookingFunction(), WithClock(fixedNow))

	if err := v.ValidateValue("AptDate", "2025-06-20"); err != nil {
		t.Errorf("ValidateValue error = %v, want nil", err)
	}
	if err := v.ValidateValue("AptDate", "yesterday-ish"); err == nil {
		t.Error("ValidateValue should reject malformed dates")
	}
	if err := v.ValidateValue("NoSuch", "x"); err == nil {
		t.Error("ValidateValue should reject undeclared fields")
	}
}

func TestValidator_Required(t *testing.T) {
	v, _ := Compile(bookingFunction(), WithClock(fixedNow))

	got := v.Required()
	want := []string{"AptDate", "AptTime", "PatNum"}
	if len(got) != len(want) {
		t.Fatalf("Required = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Required = %v, want %v", got, want)
		}
	}
}

func TestNewRegistry(t *testing.T) {
	d := &domain.Domain{
		ID: "dental",
		Functions: []domain.FunctionDefinition{
			bookingFunction(),
			{Name: "GetOpenSlots", Parameters: map[string]domain.ParameterSpec{
				"DateStart": {Type: KindDate, Required: true},
				"DateEnd":   {Type: KindDate, Required: true},
			}},
		},
	}

	r, err := NewRegistry(d, WithClock(fixedNow))
	if err != nil {
		t.Fatalf("NewRegistry error = %v", err)
	}

	if _, ok := r.Validator("GetOpenSlots"); !ok {
		t.Error("registry missing GetOpenSlots")
	}
	if err := r.Validate("NoSuchFunction", nil); err == nil {
		t.Error("Validate should fail for unknown functions")
	}
}

func TestToolSchema(t *testing.T) {
	s := ToolSchema(bookingFunction())

	if s["type"] != "object" {
		t.Errorf("type = %v, want object", s["type"])
	}
	props, ok := s["properties"].(map[string]any)
	if !ok || len(props) != 5 {
		t.Fatalf("properties = %v", s["properties"])
	}
	required, ok := s["required"].([]string)
	if !ok || len(required) != 3 {
		t.Errorf("required = %v", s["required"])
	}
}
