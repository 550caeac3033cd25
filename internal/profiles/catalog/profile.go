// Package catalog provides the industry booking profiles and the rules that
// every profile must satisfy before it may be served.
package catalog

import "strings"

// Mode decides where an appointment is booked.
type Mode string

const (
	// ModeInternal captures the appointment as a lead inside the conversation.
	ModeInternal Mode = "internal"
	// ModeExternal defers the appointment to a third-party provider via redirect.
	ModeExternal Mode = "external"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeInternal || m == ModeExternal
}

// Intake field types.
const (
	FieldText     = "text"
	FieldPhone    = "phone"
	FieldEmail    = "email"
	FieldDate     = "date"
	FieldSelect   = "select"
	FieldTextarea = "textarea"
	FieldNumber   = "number"
)

// IntakeField is a single piece of information collected before booking.
type IntakeField struct {
	Key      string `json:"key" yaml:"key"`
	Required bool   `json:"required" yaml:"required"`
	Type     string `json:"type" yaml:"type"`
}

// AppointmentType is a bookable offering within a profile.
type AppointmentType struct {
	ID           string        `json:"id" yaml:"id"`
	Label        string        `json:"label" yaml:"label"`
	Mode         Mode          `json:"mode" yaml:"mode"`
	IntakeFields []IntakeField `json:"intakeFields" yaml:"intakeFields"`
	PriceCents   *int64        `json:"priceCents,omitempty" yaml:"priceCents,omitempty"`
	DurationMins *int          `json:"durationMins,omitempty" yaml:"durationMins,omitempty"`
	ExternalURL  *string       `json:"externalUrl,omitempty" yaml:"externalUrl,omitempty"`
}

// RequiresField reports whether the type declares key as a required intake field.
func (t AppointmentType) RequiresField(key string) bool {
	for _, f := range t.IntakeFields {
		if f.Required && strings.EqualFold(f.Key, key) {
			return true
		}
	}
	return false
}

// CTA is a call-to-action control offered in the conversation.
type CTA struct {
	ID                string `json:"id" yaml:"id"`
	Label             string `json:"label" yaml:"label"`
	AppointmentTypeID string `json:"appointmentTypeId" yaml:"appointmentTypeId"`
	MessageTemplate   string `json:"messageTemplate" yaml:"messageTemplate"`
}

// FailsafeConfig controls the fallback used when an external redirect cannot be served.
// ValidateBeforeRedirect is informational: external targets are always checked
// before a redirect, and Validate warns when a profile turns it off.
type FailsafeConfig struct {
	PivotAppointmentTypeID string `json:"pivotAppointmentTypeId,omitempty" yaml:"pivotAppointmentTypeId,omitempty"`
	ValidateBeforeRedirect bool   `json:"validateBeforeRedirect" yaml:"validateBeforeRedirect"`
}

// HasPivot reports whether a pivot target is configured.
func (f FailsafeConfig) HasPivot() bool {
	return strings.TrimSpace(f.PivotAppointmentTypeID) != ""
}

// BookingProfile is the booking ruleset for one business type.
// Profiles served from a Catalog are copies of the stored ones.
type BookingProfile struct {
	Key              string            `json:"key" yaml:"key"`
	DisplayName      string            `json:"displayName" yaml:"displayName"`
	DefaultMode      Mode              `json:"defaultMode" yaml:"defaultMode"`
	AppointmentTypes []AppointmentType `json:"appointmentTypes" yaml:"appointmentTypes"`
	CTAs             []CTA             `json:"ctas" yaml:"ctas"`
	Failsafe         FailsafeConfig    `json:"failsafe" yaml:"failsafe"`
}

// AppointmentType returns the appointment type with the given id.
func (p BookingProfile) AppointmentType(id string) (AppointmentType, bool) {
	for _, t := range p.AppointmentTypes {
		if t.ID == id {
			return t, true
		}
	}
	return AppointmentType{}, false
}

// PivotTarget returns the failsafe pivot appointment type, if one is configured and resolves.
func (p BookingProfile) PivotTarget() (AppointmentType, bool) {
	if !p.Failsafe.HasPivot() {
		return AppointmentType{}, false
	}
	return p.AppointmentType(p.Failsafe.PivotAppointmentTypeID)
}

// Clone returns a deep copy of the profile.
func (p BookingProfile) Clone() BookingProfile {
	out := p
	out.AppointmentTypes = make([]AppointmentType, len(p.AppointmentTypes))
	for i, t := range p.AppointmentTypes {
		out.AppointmentTypes[i] = t.clone()
	}
	out.CTAs = append([]CTA(nil), p.CTAs...)
	return out
}

func (t AppointmentType) clone() AppointmentType {
	out := t
	out.IntakeFields = append([]IntakeField(nil), t.IntakeFields...)
	if t.PriceCents != nil {
		v := *t.PriceCents
		out.PriceCents = &v
	}
	if t.DurationMins != nil {
		v := *t.DurationMins
		out.DurationMins = &v
	}
	if t.ExternalURL != nil {
		v := *t.ExternalURL
		out.ExternalURL = &v
	}
	return out
}
