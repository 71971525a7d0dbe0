package schema

import (
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
}

func TestParseKind_AllKindsKnown(t *testing.T) {
	for _, kind := range Kinds() {
		typ, err := ParseKind(kind, fixedNow)
		if err != nil {
			t.Errorf("ParseKind(%q) error = %v", kind, err)
			continue
		}
		if typ.Name() != kind {
			t.Errorf("ParseKind(%q).Name() = %q", kind, typ.Name())
		}
	}
}

func TestParseKind_Unknown(t *testing.T) {
	if _, err := ParseKind("quaternion", nil); err == nil {
		t.Fatal("ParseKind should reject unknown kinds")
	}
}

func TestPhoneType(t *testing.T) {
	typ := &PhoneType{}

	valid := []string{"+1 (555) 123-4567", "555-123-4567", "5551234567"}
	for _, v := range valid {
		if err := typ.Validate(v); err != nil {
			t.Errorf("Validate(%q) error = %v, want nil", v, err)
		}
	}

	invalid := []any{"123", "call me maybe", 5551234567}
	for _, v := range invalid {
		if err := typ.Validate(v); err == nil {
			t.Errorf("Validate(%v) should fail", v)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("+1 (555) 123-4567")
	if err != nil {
		t.Fatalf("NormalizePhone error = %v", err)
	}
	if got != "+15551234567" {
		t.Errorf("NormalizePhone = %q, want +15551234567", got)
	}
}

func TestDateType_Layouts(t *testing.T) {
	typ := &DateType{}

	valid := []string{"2025-06-20", "06/20/2025", "June 20, 2025", "Jun 20, 2025"}
	for _, v := range valid {
		if err := typ.Validate(v); err != nil {
			t.Errorf("Validate(%q) error = %v, want nil", v, err)
		}
	}

	if err := typ.Validate("someday soon"); err == nil {
		t.Error("Validate should reject non-dates")
	}
}

func TestFutureDateType(t *testing.T) {
	typ := &FutureDateType{now: fixedNow}

	if err := typ.Validate("2025-06-20"); err != nil {
		t.Errorf("future date rejected: %v", err)
	}
	// Same calendar day still bookable.
	if err := typ.Validate("2025-06-15"); err != nil {
		t.Errorf("today rejected: %v", err)
	}
	if err := typ.Validate("2025-06-01"); err == nil {
		t.Error("past date accepted")
	}
}

func TestPastDateType(t *testing.T) {
	typ := &PastDateType{now: fixedNow}

	if err := typ.Validate("2025-06-01"); err != nil {
		t.Errorf("past date rejected: %v", err)
	}
	if err := typ.Validate("2025-07-01"); err == nil {
		t.Error("future date accepted")
	}
}

func TestTimeType(t *testing.T) {
	typ := &TimeType{}

	for _, v := range []string{"14:30", "2:30 PM", "09:15:00"} {
		if err := typ.Validate(v); err != nil {
			t.Errorf("Validate(%q) error = %v, want nil", v, err)
		}
	}
	if err := typ.Validate("half past two"); err == nil {
		t.Error("Validate should reject non-times")
	}
}

func TestEmailType(t *testing.T) {
	typ := &EmailType{}

	if err := typ.Validate("sam@example.com"); err != nil {
		t.Errorf("Validate error = %v, want nil", err)
	}
	if err := typ.Validate("not-an-email"); err == nil {
		t.Error("Validate should reject malformed emails")
	}
}

func TestIDType(t *testing.T) {
	typ := &IDType{}

	if err := typ.Validate("appt-42"); err != nil {
		t.Errorf("Validate error = %v, want nil", err)
	}
	if err := typ.Validate(float64(42)); err != nil {
		t.Errorf("numeric id rejected: %v", err)
	}
	if err := typ.Validate("has space"); err == nil {
		t.Error("Validate should reject ids with whitespace")
	}
	if err := typ.Validate(""); err == nil {
		t.Error("Validate should reject empty ids")
	}
}

func TestParseConfirmation(t *testing.T) {
	yes := []any{true, "yes", "Y", "True", "1", "sure"}
	for _, v := range yes {
		got, err := ParseConfirmation(v)
		if err != nil || !got {
			t.Errorf("ParseConfirmation(%v) = %v, %v; want true", v, got, err)
		}
	}

	no := []any{false, "no", "N", "false", "0"}
	for _, v := range no {
		got, err := ParseConfirmation(v)
		if err != nil || got {
			t.Errorf("ParseConfirmation(%v) = %v, %v; want false", v, got, err)
		}
	}

	if _, err := ParseConfirmation("banana"); err == nil {
		t.Error("ParseConfirmation should reject non-answers")
	}
}

func TestParseSelection(t *testing.T) {
	for _, v := range []any{1, float64(3), "2"} {
		if _, err := ParseSelection(v); err != nil {
			t.Errorf("ParseSelection(%v) error = %v, want nil", v, err)
		}
	}

	for _, v := range []any{0, -1, "zeroth", 2.5} {
		if _, err := ParseSelection(v); err == nil {
			t.Errorf("ParseSelection(%v) should fail", v)
		}
	}
}

func TestNameType(t *testing.T) {
	typ := &NameType{}

	if err := typ.Validate("Sam Lateef"); err != nil {
		t.Errorf("Validate error = %v, want nil", err)
	}
	if err := typ.Validate("   "); err == nil {
		t.Error("Validate should reject blank names")
	}
}
