package catalog

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestEncodeThenLoadYAMLPreservesLookups(t *testing.T) {
	var buf bytes.Buffer
	if err := Default().EncodeYAML(&buf); err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}

	loaded, err := LoadYAML(&buf)
	if err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}
	if got := loaded.ProfileFor("barbershop"); got.Key != "barber" || got.DefaultMode != ModeExternal {
		t.Fatalf("unexpected barber profile after reload: %+v", got)
	}
	if len(loaded.Keys()) != len(Default().Keys()) {
		t.Fatalf("expected %d profiles, got %d", len(Default().Keys()), len(loaded.Keys()))
	}
}

func TestLoadYAMLRejectsInvalidProfile(t *testing.T) {
	doc := `
profiles:
  - key: generic
    displayName: General
    defaultMode: internal
    appointmentTypes:
      - id: consultation
        mode: internal
        intakeFields:
          - {key: name, required: true, type: text}
    ctas: []
    failsafe: {pivotAppointmentTypeId: consultation, validateBeforeRedirect: true}
  - key: kiosk
    defaultMode: external
    appointmentTypes:
      - id: slot
        mode: external
        intakeFields:
          - {key: card_number, required: true, type: text}
    ctas:
      - {id: book, label: Book, appointmentTypeId: slot, messageTemplate: hi}
    failsafe: {pivotAppointmentTypeId: slot}
aliases:
  kiosks: kiosk
`
	_, err := LoadYAML(strings.NewReader(doc))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	res := vErr.Report.Profiles["kiosk"]
	if len(res.Errors) != 2 {
		t.Fatalf("expected payment and pivot violations, got %v", res.Errors)
	}
}

func TestLoadYAMLRejectsUnknownFields(t *testing.T) {
	doc := "profiles:\n  - key: generic\n    colour: blue\n"
	if _, err := LoadYAML(strings.NewReader(doc)); err == nil {
		t.Fatalf("expected unknown field to be rejected")
	}
}
