package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// paymentMarkers are substrings that identify payment data in an intake field key.
// Payment is never captured inside the chat for externally booked services.
var paymentMarkers = []string{"payment", "card", "credit"}

// contactKeys are the intake keys that make a captured lead contactable.
var contactKeys = []string{"name", "phone"}

// ValidationResult is the outcome of validating a single profile.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings,omitempty"`
}

// Validate checks every profile invariant and returns all violations.
// Checks never short-circuit so that operators see every problem in one pass.
func Validate(p BookingProfile) ValidationResult {
	v := &violations{}

	checkStructure(p, v)
	checkCTATargets(p, v)
	checkPivotTarget(p, v)
	checkExternalPaymentFields(p, v)
	checkInternalContactFields(p, v)

	res := ValidationResult{Valid: len(v.errs) == 0, Errors: v.list()}
	if w, ok := redirectCheckWarning(p); ok {
		res.Warnings = []string{w}
	}
	return res
}

// redirectCheckWarning flags a profile that books externally with
// validateBeforeRedirect off. The URL check runs regardless, so this never
// invalidates the profile.
func redirectCheckWarning(p BookingProfile) (string, bool) {
	if p.Failsafe.ValidateBeforeRedirect {
		return "", false
	}
	external := p.DefaultMode == ModeExternal
	for _, t := range p.AppointmentTypes {
		if t.Mode == ModeExternal {
			external = true
		}
	}
	if !external {
		return "", false
	}
	return "failsafe: validateBeforeRedirect is off; external targets are still checked before every redirect", true
}

type violations struct {
	errs []string
}

func (v *violations) add(format string, args ...any) {
	v.errs = append(v.errs, fmt.Sprintf(format, args...))
}

func (v *violations) list() []string {
	if v.errs == nil {
		return []string{}
	}
	return v.errs
}

func checkStructure(p BookingProfile, v *violations) {
	if strings.TrimSpace(p.Key) == "" {
		v.add("profile key is required")
	} else if Normalize(p.Key) != p.Key {
		v.add("profile key %q must be lower-case without surrounding whitespace", p.Key)
	}
	if !p.DefaultMode.Valid() {
		v.add("defaultMode %q is not one of internal, external", p.DefaultMode)
	}
	if len(p.AppointmentTypes) == 0 {
		v.add("at least one appointment type is required")
	}

	seenTypes := make(map[string]bool, len(p.AppointmentTypes))
	for i, t := range p.AppointmentTypes {
		if strings.TrimSpace(t.ID) == "" {
			v.add("appointmentTypes[%d]: id is required", i)
			continue
		}
		if seenTypes[t.ID] {
			v.add("appointment type %q is declared more than once", t.ID)
		}
		seenTypes[t.ID] = true
		if !t.Mode.Valid() {
			v.add("appointment type %q: mode %q is not one of internal, external", t.ID, t.Mode)
		}
		seenFields := make(map[string]bool, len(t.IntakeFields))
		for _, f := range t.IntakeFields {
			key := strings.ToLower(strings.TrimSpace(f.Key))
			if key == "" {
				v.add("appointment type %q: intake field key is required", t.ID)
				continue
			}
			if seenFields[key] {
				v.add("appointment type %q: intake field %q is declared more than once", t.ID, f.Key)
			}
			seenFields[key] = true
		}
	}

	seenCTAs := make(map[string]bool, len(p.CTAs))
	for i, cta := range p.CTAs {
		if strings.TrimSpace(cta.ID) == "" {
			v.add("ctas[%d]: id is required", i)
			continue
		}
		if seenCTAs[cta.ID] {
			v.add("cta %q is declared more than once", cta.ID)
		}
		seenCTAs[cta.ID] = true
	}
}

// checkCTATargets: a CTA pointing at a missing appointment type is a dead control.
func checkCTATargets(p BookingProfile, v *violations) {
	for _, cta := range p.CTAs {
		if _, ok := p.AppointmentType(cta.AppointmentTypeID); !ok {
			v.add("cta %q: appointmentTypeId %q does not resolve to an appointment type", cta.ID, cta.AppointmentTypeID)
		}
	}
}

// checkPivotTarget: an external pivot target would loop the fallback forever.
func checkPivotTarget(p BookingProfile, v *violations) {
	if !p.Failsafe.HasPivot() {
		return
	}
	target, ok := p.AppointmentType(p.Failsafe.PivotAppointmentTypeID)
	if !ok {
		v.add("failsafe: pivotAppointmentTypeId %q does not resolve to an appointment type", p.Failsafe.PivotAppointmentTypeID)
		return
	}
	if target.Mode != ModeInternal {
		v.add("failsafe: pivot target %q must be internal mode, got %q", target.ID, target.Mode)
	}
}

func checkExternalPaymentFields(p BookingProfile, v *violations) {
	if p.DefaultMode != ModeExternal {
		return
	}
	for _, t := range p.AppointmentTypes {
		if t.Mode != ModeExternal {
			continue
		}
		for _, f := range t.IntakeFields {
			if marker, ok := paymentMarker(f.Key); ok {
				v.add("appointment type %q: external booking must not collect payment data (field %q contains %q)", t.ID, f.Key, marker)
			}
		}
	}
}

func checkInternalContactFields(p BookingProfile, v *violations) {
	for _, t := range p.AppointmentTypes {
		if t.Mode != ModeInternal || len(t.IntakeFields) == 0 {
			continue
		}
		contactable := false
		for _, key := range contactKeys {
			if t.RequiresField(key) {
				contactable = true
				break
			}
		}
		if !contactable {
			v.add("appointment type %q: internal intake must require at least one of %s", t.ID, strings.Join(contactKeys, ", "))
		}
	}
}

func paymentMarker(key string) (string, bool) {
	lower := strings.ToLower(key)
	for _, marker := range paymentMarkers {
		if strings.Contains(lower, marker) {
			return marker, true
		}
	}
	return "", false
}

// Report is the outcome of validating a whole catalog.
type Report struct {
	Valid    bool                        `json:"valid"`
	Profiles map[string]ValidationResult `json:"profiles"`
	Errors   []string                    `json:"errors"`
}

// InvalidKeys returns the keys of invalid profiles in sorted order.
func (r Report) InvalidKeys() []string {
	keys := make([]string, 0)
	for key, res := range r.Profiles {
		if !res.Valid {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// ValidateSet validates a set of profiles together with the alias table that points at them.
func ValidateSet(profiles []BookingProfile, aliases map[string]string) Report {
	report := Report{Valid: true, Profiles: make(map[string]ValidationResult, len(profiles)), Errors: []string{}}

	known := make(map[string]bool, len(profiles))
	for i, p := range profiles {
		key := p.Key
		if key == "" {
			key = fmt.Sprintf("profiles[%d]", i)
		}
		if known[key] {
			report.Errors = append(report.Errors, fmt.Sprintf("profile %q is declared more than once", key))
		}
		known[key] = true

		res := Validate(p)
		report.Profiles[key] = res
		if !res.Valid {
			report.Valid = false
		}
	}

	if !known[GenericKey] {
		report.Errors = append(report.Errors, fmt.Sprintf("fallback profile %q is missing", GenericKey))
	} else if generic := findProfile(profiles, GenericKey); generic.DefaultMode != ModeInternal {
		report.Errors = append(report.Errors, fmt.Sprintf("fallback profile %q must have defaultMode internal", GenericKey))
	}

	aliasKeys := make([]string, 0, len(aliases))
	for alias := range aliases {
		aliasKeys = append(aliasKeys, alias)
	}
	sort.Strings(aliasKeys)
	for _, alias := range aliasKeys {
		target := aliases[alias]
		if Normalize(alias) != alias {
			report.Errors = append(report.Errors, fmt.Sprintf("alias %q must be normalized", alias))
		}
		if !known[target] {
			report.Errors = append(report.Errors, fmt.Sprintf("alias %q points at unknown profile %q", alias, target))
		}
		if known[alias] {
			report.Errors = append(report.Errors, fmt.Sprintf("alias %q shadows a profile key", alias))
		}
	}

	if len(report.Errors) > 0 {
		report.Valid = false
	}
	return report
}

func findProfile(profiles []BookingProfile, key string) BookingProfile {
	for _, p := range profiles {
		if p.Key == key {
			return p
		}
	}
	return BookingProfile{}
}
