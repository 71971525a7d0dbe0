package workflow

import (
	"strings"
	"testing"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

func bookingDomain() *domain.Domain {
	return &domain.Domain{
		ID:       "dental",
		Name:     "Brightsmile Dental",
		Endpoint: "https://api.brightsmile.example",
		Functions: []domain.FunctionDefinition{
			{
				Name:        "GetOpenSlots",
				Description: "List open appointment slots",
				Parameters: map[string]domain.ParameterSpec{
					"dateStart": {Type: "date", Required: true},
					"dateEnd":   {Type: "date", Required: true},
				},
			},
			{
				Name:        "CreateAppointment",
				Description: "Book a slot",
				Parameters: map[string]domain.ParameterSpec{
					"PatNum":  {Type: "id", Required: true},
					"AptDate": {Type: "futureDate", Required: true},
					"AptTime": {Type: "time", Required: true},
					"Note":    {Type: "string"},
				},
			},
		},
		Entities: []domain.EntityDefinition{
			{Name: "patientId", Type: "id"},
			{Name: "patientName", Type: "name"},
			{Name: "chosenDate", Type: "futureDate"},
		},
		Triggers: []domain.TriggerPhrase{
			{Phrase: "book an appointment", Intent: "book appointment"},
		},
		CriticalOperations: []string{"Create*"},
	}
}

func validPlan() *domain.Plan {
	return &domain.Plan{
		ID:       "plan-valid",
		DomainID: "dental",
		Name:     "Book appointment",
		Intents:  []string{"book appointment"},
		Steps: []domain.PlanStep{
			{
				Function: "GetOpenSlots",
				InputMapping: map[string]string{
					"dateStart": "${todayISO}",
					"dateEnd":   "${safeDateEnd}",
				},
				OutputAs: "slots",
			},
			{
				Function:     "PresentOptions",
				InputMapping: map[string]string{"options": "slots"},
				WaitForUser:  &domain.WaitDirective{Field: "slotChoice", Prompt: "Which slot works for you?"},
				OutputAs:     "chosenSlot",
			},
			{
				Function:     "ConfirmWithUser",
				InputMapping: map[string]string{"summary": "Book the slot at {chosenSlot.start}?"},
				WaitForUser:  &domain.WaitDirective{Field: "bookingConfirmed", Prompt: "Shall I book it?"},
			},
			{
				Function: "CreateAppointment",
				InputMapping: map[string]string{
					"PatNum":  "patientId",
					"AptDate": "chosenSlot.date",
					"AptTime": "chosenSlot.start",
				},
				OutputAs:  "appointment",
				OnSuccess: "Booked! Reference {appointment.AptNum}.",
				OnError:   "I couldn't book that slot.",
			},
		},
	}
}

func TestCheckPlanValid(t *testing.T) {
	if findings := CheckPlan(bookingDomain(), validPlan()); len(findings) != 0 {
		t.Errorf("valid plan rejected: %v", findings)
	}
}

func TestCheckPlanEmpty(t *testing.T) {
	findings := CheckPlan(bookingDomain(), &domain.Plan{})
	if len(findings) != 1 || !strings.Contains(findings[0], "no steps") {
		t.Errorf("findings = %v", findings)
	}
}

func TestCheckPlanFindings(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *domain.Plan)
		want   string
	}{
		{
			name: "literal date",
			mutate: func(p *domain.Plan) {
				p.Steps[0].InputMapping["dateStart"] = "2025-06-20"
			},
			want: "literal date",
		},
		{
			name: "literal us-layout date",
			mutate: func(p *domain.Plan) {
				p.Steps[0].InputMapping["dateEnd"] = "06/20/2025"
			},
			want: "literal date",
		},
		{
			name: "unknown template token",
			mutate: func(p *domain.Plan) {
				p.Steps[0].InputMapping["dateStart"] = "${tomorrowISO}"
			},
			want: "unknown template token",
		},
		{
			name: "unknown function",
			mutate: func(p *domain.Plan) {
				p.Steps[0].Function = "DeleteEverything"
			},
			want: "not in domain registry",
		},
		{
			name: "unproduced field reference",
			mutate: func(p *domain.Plan) {
				p.Steps[3].InputMapping["AptDate"] = "ghostField"
			},
			want: "no entity, earlier output, or wait step",
		},
		{
			name: "critical without confirmation",
			mutate: func(p *domain.Plan) {
				p.Steps = append(p.Steps[:2], p.Steps[3])
			},
			want: "critical operation without a preceding ConfirmWithUser",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			plan := validPlan()
			c.mutate(plan)
			findings := CheckPlan(bookingDomain(), plan)
			if len(findings) == 0 {
				t.Fatal("expected findings, got none")
			}
			found := false
			for _, f := range findings {
				if strings.Contains(f, c.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("findings %v do not mention %q", findings, c.want)
			}
		})
	}
}

func TestCheckPlanFieldProducedByLaterStepRejected(t *testing.T) {
	plan := validPlan()
	// Reference chosenSlot before the step that produces it.
	plan.Steps[0].InputMapping["dateStart"] = "chosenSlot.date"

	findings := CheckPlan(bookingDomain(), plan)
	if len(findings) == 0 {
		t.Fatal("forward reference must be rejected")
	}
}

func TestIsLiteralDate(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"2025-06-20", true},
		{"06/20/2025", true},
		{"2025-06-20T10:00:00Z", true},
		{"2025-06-20 10:00", true},
		{"chosenDate", false},
		{"${todayISO}", false},
		{"slots.0.date", false},
	}
	for _, c := range cases {
		if got := isLiteralDate(c.value); got != c.want {
			t.Errorf("isLiteralDate(%q) = %v, want %v", c.value, got, c.want)
		}
	}
}

func TestRegisterPlanEntitiesDeclaresPredicateFields(t *testing.T) {
	d := bookingDomain()
	plan := validPlan()
	plan.Steps[3].SkipIf = "!vipMember"

	extended := RegisterPlanEntities(d, plan)
	if extended == d {
		t.Fatal("expected an extended copy, got the original domain")
	}

	ent := extended.Entity("vipMember")
	if ent == nil {
		t.Fatal("vipMember not declared on the extended domain")
	}
	if ent.Type != "string" {
		t.Errorf("vipMember type = %q, want string", ent.Type)
	}

	// The shared domain must stay untouched.
	if d.Entity("vipMember") != nil {
		t.Error("original domain mutated")
	}
	if len(d.Entities) != 3 {
		t.Errorf("original domain has %d entities, want 3", len(d.Entities))
	}
}

func TestRegisterPlanEntitiesSkipsProducedAndDeclared(t *testing.T) {
	d := bookingDomain()
	extended := RegisterPlanEntities(d, validPlan())

	// slotChoice comes from a wait step, chosenSlot from an output, and
	// patientId is already configured: nothing is missing.
	if extended != d {
		t.Errorf("fully covered plan extended the domain: %v", extended.Entities)
	}
}
