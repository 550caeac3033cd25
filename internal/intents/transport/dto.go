package transport

import "github.com/google/uuid"

// ServiceResponse is a bookable service in a bot configuration.
type ServiceResponse struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	AppointmentTypeID string  `json:"appointmentTypeId,omitempty"`
	PriceCents        *int64  `json:"priceCents,omitempty"`
	DurationMins      *int    `json:"durationMins,omitempty"`
	ExternalURL       *string `json:"externalUrl,omitempty"`
}

// CTAResponse is a call-to-action the chat surface may render.
type CTAResponse struct {
	ID                string `json:"id"`
	Label             string `json:"label"`
	AppointmentTypeID string `json:"appointmentTypeId"`
	MessageTemplate   string `json:"messageTemplate"`
}

// ConfigResponse is the booking configuration of a bot.
type ConfigResponse struct {
	Enabled            bool              `json:"enabled"`
	DemoMode           bool              `json:"demoMode"`
	BusinessType       string            `json:"businessType"`
	ProfileKey         string            `json:"profileKey"`
	ExternalBookingURL *string           `json:"externalBookingUrl,omitempty"`
	Services           []ServiceResponse `json:"services"`
	CTAs               []CTAResponse     `json:"ctas"`
}

// StartIntentRequest starts a booking intent for a selected service.
type StartIntentRequest struct {
	ServiceID    string `json:"serviceId" validate:"required,max=128"`
	ServiceName  string `json:"serviceName" validate:"required,max=200"`
	PriceCents   *int64 `json:"priceCents,omitempty" validate:"omitempty,min=0"`
	DurationMins *int   `json:"durationMins,omitempty" validate:"omitempty,min=1,max=1440"`
	SessionID    string `json:"sessionId" validate:"required,max=128"`
}

// StartIntentResponse returns the created intent.
type StartIntentResponse struct {
	IntentID uuid.UUID `json:"intentId"`
}

// AttachLeadRequest attaches contact details to an intent.
type AttachLeadRequest struct {
	Name  string  `json:"name" validate:"required,max=200"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
}

// AttachLeadResponse returns the attached lead.
type AttachLeadResponse struct {
	LeadID uuid.UUID `json:"leadId"`
}

// CommitResponse tells the client where to send the user after "book now".
type CommitResponse struct {
	RedirectType string `json:"redirectType"`
	URL          string `json:"url"`
	IsDemoMode   bool   `json:"isDemoMode"`
	Pivoted      bool   `json:"pivoted,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// AckResponse acknowledges a best-effort request.
type AckResponse struct {
	Status string `json:"status"`
}
