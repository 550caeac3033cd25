package transport

import (
	"time"

	"booking_engine/internal/profiles/catalog"
)

// ProfileResponse is a resolved booking profile.
type ProfileResponse struct {
	BusinessType string                 `json:"businessType"`
	Key          string                 `json:"key"`
	Fallback     bool                   `json:"fallback"`
	Aliases      []string               `json:"aliases"`
	Profile      catalog.BookingProfile `json:"profile"`
}

// ProfileSummary is one entry of the catalog listing.
type ProfileSummary struct {
	Key                  string       `json:"key"`
	DisplayName          string       `json:"displayName"`
	DefaultMode          catalog.Mode `json:"defaultMode"`
	AppointmentTypeCount int          `json:"appointmentTypeCount"`
	Aliases              []string     `json:"aliases"`
	Overridden           bool         `json:"overridden"`
	UpdatedAt            *time.Time   `json:"updatedAt,omitempty"`
}

// ProfileRequest carries a profile to validate or store.
type ProfileRequest struct {
	Profile catalog.BookingProfile `json:"profile"`
	Aliases []string               `json:"aliases" validate:"omitempty,max=50,dive,required,max=64"`
}

// ValidationResponse reports the checks run on a submitted profile.
type ValidationResponse struct {
	Valid         bool                     `json:"valid"`
	Profile       catalog.ValidationResult `json:"profile"`
	CatalogErrors []string                 `json:"catalogErrors"`
}

// UpsertResponse returns the stored profile.
type UpsertResponse struct {
	Profile     ProfileResponse `json:"profile"`
	SnapshotKey string          `json:"snapshotKey,omitempty"`
}
