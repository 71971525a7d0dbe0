package schema

import (
	"fmt"
	"net/mail"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Type defines the contract for parameter validation.
// Implementations determine how values are validated against a kind.
type Type interface {
	// Name returns the kind name of the type (e.g. "phone", "date").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// Validator kind names. These form the closed enum a FunctionDefinition or
// EntityDefinition may declare.
const (
	KindString       = "string"
	KindNumber       = "number"
	KindPhone        = "phone"
	KindDate         = "date"
	KindFutureDate   = "futureDate"
	KindPastDate     = "pastDate"
	KindTime         = "time"
	KindDateTime     = "datetime"
	KindName         = "name"
	KindEmail        = "email"
	KindID           = "id"
	KindConfirmation = "confirmation"
	KindSelection    = "selection"
	KindObject       = "object"
	KindArray        = "array"
)

// Kinds lists every validator kind in a stable order.
func Kinds() []string {
	return []string{
		KindString, KindNumber, KindPhone, KindDate, KindFutureDate,
		KindPastDate, KindTime, KindDateTime, KindName, KindEmail,
		KindID, KindConfirmation, KindSelection, KindObject, KindArray,
	}
}

// KnownKind reports whether kind names a validator kind.
func KnownKind(kind string) bool {
	for _, k := range Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// dateLayouts are the accepted textual date forms, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseDate parses a textual date in any accepted layout.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// timeLayouts are the accepted clock-time forms.
var timeLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "3 PM"}

// ParseTimeOfDay parses a clock time in any accepted layout.
func ParseTimeOfDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizePhone strips formatting from a phone number and returns its
// digit form (a leading + is preserved). Fails when the digit count falls
// outside 7..15.
func NormalizePhone(s string) (string, error) {
	s = strings.TrimSpace(s)
	plus := strings.HasPrefix(s, "+")
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 7 || len(digits) > 15 {
		return "", fmt.Errorf("phone number must have 7-15 digits, got %d", len(digits))
	}
	if plus {
		return "+" + digits, nil
	}
	return digits, nil
}

// ParseConfirmation interprets a value as a yes/no answer.
func ParseConfirmation(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "yes", "y", "true", "1", "confirm", "ok", "sure", "yep", "yeah":
			return true, nil
		case "no", "n", "false", "0", "cancel", "nope":
			return false, nil
		}
		return false, fmt.Errorf("not a yes/no answer: %q", v)
	default:
		return false, fmt.Errorf("expected confirmation, got %T", value)
	}
}

// ParseSelection interprets a value as a 1-based option index.
func ParseSelection(value any) (int, error) {
	switch v := value.(type) {
	case int:
		if v >= 1 {
			return v, nil
		}
	case int64:
		if v >= 1 {
			return int(v), nil
		}
	case float64:
		if v >= 1 && v == float64(int64(v)) {
			return int(v), nil
		}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil && n >= 1 {
			return n, nil
		}
	default:
		return 0, fmt.Errorf("expected selection index, got %T", value)
	}
	return 0, fmt.Errorf("selection must be a positive index, got %v", value)
}

// --- Kind Implementations ---

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return KindString }

func (t *StringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// NumberType validates numeric values (JSON decoding yields float64).
type NumberType struct{}

func (t *NumberType) Name() string { return KindNumber }

func (t *NumberType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64:
		return nil
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
}

// PhoneType validates phone numbers by digit normalization.
type PhoneType struct{}

func (t *PhoneType) Name() string { return KindPhone }

func (t *PhoneType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected phone string, got %T", value)
	}
	_, err := NormalizePhone(s)
	return err
}

// DateType validates calendar dates in the accepted layouts.
type DateType struct{}

func (t *DateType) Name() string { return KindDate }

func (t *DateType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected date string, got %T", value)
	}
	if _, ok := ParseDate(s); !ok {
		return fmt.Errorf("unrecognized date: %q", s)
	}
	return nil
}

// FutureDateType validates dates not before the current calendar day.
type FutureDateType struct {
	now func() time.Time
}

func (t *FutureDateType) Name() string { return KindFutureDate }

func (t *FutureDateType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected date string, got %T", value)
	}
	d, ok := ParseDate(s)
	if !ok {
		return fmt.Errorf("unrecognized date: %q", s)
	}
	today := truncateDay(t.now())
	if truncateDay(d).Before(today) {
		return fmt.Errorf("date %q is in the past", s)
	}
	return nil
}

// PastDateType validates dates not after the current calendar day.
type PastDateType struct {
	now func() time.Time
}

func (t *PastDateType) Name() string { return KindPastDate }

func (t *PastDateType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected date string, got %T", value)
	}
	d, ok := ParseDate(s)
	if !ok {
		return fmt.Errorf("unrecognized date: %q", s)
	}
	today := truncateDay(t.now())
	if truncateDay(d).After(today) {
		return fmt.Errorf("date %q is in the future", s)
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TimeType validates clock times.
type TimeType struct{}

func (t *TimeType) Name() string { return KindTime }

func (t *TimeType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected time string, got %T", value)
	}
	if _, ok := ParseTimeOfDay(s); !ok {
		return fmt.Errorf("unrecognized time: %q", s)
	}
	return nil
}

// DateTimeType validates combined date-time values.
type DateTimeType struct{}

func (t *DateTimeType) Name() string { return KindDateTime }

func (t *DateTimeType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected datetime string, got %T", value)
	}
	s = strings.TrimSpace(s)
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return nil
	}
	if _, err := time.Parse("2006-01-02 15:04", s); err == nil {
		return nil
	}
	return fmt.Errorf("unrecognized datetime: %q", s)
}

// NameType validates human-readable names: non-empty printable text.
type NameType struct{}

func (t *NameType) Name() string { return KindName }

func (t *NameType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected name string, got %T", value)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("name is empty")
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return fmt.Errorf("name contains control characters")
		}
	}
	return nil
}

// EmailType validates RFC 5322 address syntax.
type EmailType struct{}

func (t *EmailType) Name() string { return KindEmail }

func (t *EmailType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected email string, got %T", value)
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("invalid email: %q", s)
	}
	return nil
}

// IDType validates opaque identifiers: non-empty tokens without whitespace.
// Numeric identifiers from JSON decoding are accepted.
type IDType struct{}

func (t *IDType) Name() string { return KindID }

func (t *IDType) Validate(value any) error {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("id is empty")
		}
		if strings.ContainsFunc(v, unicode.IsSpace) {
			return fmt.Errorf("id contains whitespace: %q", v)
		}
		return nil
	case int, int64, float64:
		return nil
	default:
		return fmt.Errorf("expected id, got %T", value)
	}
}

// ConfirmationType validates boolean-ish yes/no answers.
type ConfirmationType struct{}

func (t *ConfirmationType) Name() string { return KindConfirmation }

func (t *ConfirmationType) Validate(value any) error {
	_, err := ParseConfirmation(value)
	return err
}

// SelectionType validates 1-based option indexes.
type SelectionType struct{}

func (t *SelectionType) Name() string { return KindSelection }

func (t *SelectionType) Validate(value any) error {
	_, err := ParseSelection(value)
	return err
}

// ObjectType validates map-shaped values.
type ObjectType struct{}

func (t *ObjectType) Name() string { return KindObject }

func (t *ObjectType) Validate(value any) error {
	if _, ok := value.(map[string]any); !ok {
		return fmt.Errorf("expected object, got %T", value)
	}
	return nil
}

// ArrayType validates slice-shaped values.
type ArrayType struct{}

func (t *ArrayType) Name() string { return KindArray }

func (t *ArrayType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected array, got %T", value)
	}
	return nil
}

// ParseKind converts a kind name to a Type. Temporal kinds compare against
// the supplied clock; a nil clock defaults to time.Now.
func ParseKind(kind string, now func() time.Time) (Type, error) {
	if now == nil {
		now = time.Now
	}
	switch kind {
	case KindString:
		return &StringType{}, nil
	case KindNumber:
		return &NumberType{}, nil
	case KindPhone:
		return &PhoneType{}, nil
	case KindDate:
		return &DateType{}, nil
	case KindFutureDate:
		return &FutureDateType{now: now}, nil
	case KindPastDate:
		return &PastDateType{now: now}, nil
	case KindTime:
		return &TimeType{}, nil
	case KindDateTime:
		return &DateTimeType{}, nil
	case KindName:
		return &NameType{}, nil
	case KindEmail:
		return &EmailType{}, nil
	case KindID:
		return &IDType{}, nil
	case KindConfirmation:
		return &ConfirmationType{}, nil
	case KindSelection:
		return &SelectionType{}, nil
	case KindObject:
		return &ObjectType{}, nil
	case KindArray:
		return &ArrayType{}, nil
	default:
		return nil, fmt.Errorf("unsupported validator kind: %s", kind)
	}
}
