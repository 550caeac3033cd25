package transport

import (
	"time"

	"github.com/google/uuid"

	"booking_engine/internal/bookingsession/session"
)

// SelectServiceRequest selects a service from the bot configuration.
type SelectServiceRequest struct {
	ServiceID   string `json:"serviceId" validate:"required,max=128"`
	ServiceName string `json:"serviceName" validate:"omitempty,max=200"`
}

// SubmitContactRequest carries the contact details typed in the chat.
type SubmitContactRequest struct {
	Name  string  `json:"name" validate:"required,max=200"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
}

// SessionResponse is the read-only view of a booking session.
type SessionResponse struct {
	SessionID       string               `json:"sessionId"`
	State           session.State        `json:"state"`
	Config          *session.Config      `json:"config,omitempty"`
	SelectedService *session.Service     `json:"selectedService,omitempty"`
	IntentID        *uuid.UUID           `json:"intentId,omitempty"`
	LeadID          *uuid.UUID           `json:"leadId,omitempty"`
	Error           *session.ActionError `json:"error,omitempty"`
	Warning         *session.ActionError `json:"warning,omitempty"`
	Resolution      *session.Resolution  `json:"resolution,omitempty"`
	UpdatedAt       *time.Time           `json:"updatedAt,omitempty"`
}

// BookResponse returns the redirect and the finished session.
type BookResponse struct {
	Resolution session.Resolution `json:"resolution"`
	Session    SessionResponse    `json:"session"`
}

// AckResponse acknowledges a best-effort request.
type AckResponse struct {
	Status string `json:"status"`
}

// ToSessionResponse builds the view of s.
func ToSessionResponse(s session.Session) SessionResponse {
	resp := SessionResponse{
		SessionID:       s.SessionID,
		State:           s.State,
		Config:          s.Config,
		SelectedService: s.SelectedService,
		IntentID:        s.IntentID,
		LeadID:          s.LeadID,
		Error:           s.Error,
		Warning:         s.Warning,
		Resolution:      s.Resolution,
	}
	if !s.UpdatedAt.IsZero() {
		updated := s.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}
