package catalog

import (
	"strings"
	"testing"
)

func validExternalProfile() BookingProfile {
	return BookingProfile{
		Key:         "barber",
		DefaultMode: ModeExternal,
		AppointmentTypes: []AppointmentType{
			{ID: "haircut", Mode: ModeExternal},
			{ID: "callback", Mode: ModeInternal, IntakeFields: []IntakeField{{Key: "name", Required: true, Type: FieldText}}},
		},
		CTAs:     []CTA{{ID: "book", AppointmentTypeID: "haircut"}},
		Failsafe: FailsafeConfig{PivotAppointmentTypeID: "callback", ValidateBeforeRedirect: true},
	}
}

func TestValidateAcceptsWellFormedProfile(t *testing.T) {
	res := Validate(validExternalProfile())
	if !res.Valid || len(res.Errors) != 0 {
		t.Fatalf("expected valid profile, got %v", res.Errors)
	}
}

func TestValidateReportsEachInvariant(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *BookingProfile)
		want   string
	}{
		{
			name:   "dangling cta",
			mutate: func(p *BookingProfile) { p.CTAs[0].AppointmentTypeID = "missing" },
			want:   `cta "book": appointmentTypeId "missing" does not resolve`,
		},
		{
			name:   "pivot missing",
			mutate: func(p *BookingProfile) { p.Failsafe.PivotAppointmentTypeID = "nowhere" },
			want:   `pivotAppointmentTypeId "nowhere" does not resolve`,
		},
		{
			name:   "pivot external",
			mutate: func(p *BookingProfile) { p.Failsafe.PivotAppointmentTypeID = "haircut" },
			want:   `pivot target "haircut" must be internal`,
		},
		{
			name: "payment field on external",
			mutate: func(p *BookingProfile) {
				p.AppointmentTypes[0].IntakeFields = []IntakeField{{Key: "Credit_Card_Number", Type: FieldText}}
			},
			want: "must not collect payment data",
		},
		{
			name: "internal intake without contact",
			mutate: func(p *BookingProfile) {
				p.AppointmentTypes[1].IntakeFields = []IntakeField{{Key: "notes", Required: true, Type: FieldTextarea}}
			},
			want: "must require at least one of name, phone",
		},
		{
			name: "optional contact does not count",
			mutate: func(p *BookingProfile) {
				p.AppointmentTypes[1].IntakeFields = []IntakeField{{Key: "phone", Required: false, Type: FieldPhone}}
			},
			want: "must require at least one of name, phone",
		},
		{
			name:   "duplicate appointment type",
			mutate: func(p *BookingProfile) { p.AppointmentTypes = append(p.AppointmentTypes, AppointmentType{ID: "haircut", Mode: ModeExternal}) },
			want:   `appointment type "haircut" is declared more than once`,
		},
		{
			name:   "unknown mode",
			mutate: func(p *BookingProfile) { p.DefaultMode = "hybrid" },
			want:   `defaultMode "hybrid"`,
		},
		{
			name:   "unnormalized key",
			mutate: func(p *BookingProfile) { p.Key = " Barber" },
			want:   "must be lower-case",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := validExternalProfile()
			tc.mutate(&p)
			res := Validate(p)
			if res.Valid {
				t.Fatalf("expected profile to be invalid")
			}
			if !containsError(res.Errors, tc.want) {
				t.Fatalf("expected an error containing %q, got %v", tc.want, res.Errors)
			}
		})
	}
}

func TestValidatePaymentFieldsAllowedOnInternalProfiles(t *testing.T) {
	p := validExternalProfile()
	p.DefaultMode = ModeInternal
	p.AppointmentTypes[0].IntakeFields = []IntakeField{{Key: "card_last_four", Type: FieldText}}
	if res := Validate(p); !res.Valid {
		t.Fatalf("payment rule only applies to external profiles, got %v", res.Errors)
	}
}

func TestValidateDoesNotShortCircuit(t *testing.T) {
	p := validExternalProfile()
	p.CTAs[0].AppointmentTypeID = "missing"
	p.Failsafe.PivotAppointmentTypeID = "haircut"
	p.AppointmentTypes[0].IntakeFields = []IntakeField{{Key: "payment_method", Type: FieldSelect}}
	p.AppointmentTypes[1].IntakeFields = []IntakeField{{Key: "notes", Type: FieldTextarea}}

	res := Validate(p)
	if len(res.Errors) != 4 {
		t.Fatalf("expected 4 violations, got %d: %v", len(res.Errors), res.Errors)
	}
}

func TestValidateWarnsWhenRedirectCheckIsOff(t *testing.T) {
	p := validExternalProfile()
	p.Failsafe.ValidateBeforeRedirect = false

	res := Validate(p)
	if !res.Valid {
		t.Fatalf("the flag must not invalidate a profile, got %v", res.Errors)
	}
	if !containsError(res.Warnings, "validateBeforeRedirect is off") {
		t.Fatalf("expected a redirect check warning, got %v", res.Warnings)
	}

	p.DefaultMode = ModeInternal
	p.AppointmentTypes[0].Mode = ModeInternal
	p.CTAs = nil
	p.Failsafe = FailsafeConfig{}
	if res := Validate(p); len(res.Warnings) != 0 {
		t.Fatalf("internal-only profiles never redirect, got %v", res.Warnings)
	}
	if res := Validate(validExternalProfile()); len(res.Warnings) != 0 {
		t.Fatalf("expected no warnings with the check on, got %v", res.Warnings)
	}
}

func TestValidateEmptyProfile(t *testing.T) {
	res := Validate(BookingProfile{})
	if res.Valid {
		t.Fatalf("empty profile must be invalid")
	}
	for _, want := range []string{"profile key is required", "at least one appointment type", "defaultMode"} {
		if !containsError(res.Errors, want) {
			t.Errorf("missing %q in %v", want, res.Errors)
		}
	}
}

func containsError(errs []string, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}
