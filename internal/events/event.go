// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"booking_engine/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Booking Domain Events
// =============================================================================

// Event names, also used as the analytics event type.
const (
	NameIntentStarted    = "booking.intent.started"
	NameLeadCaptured     = "booking.lead.captured"
	NameBookingCommitted = "booking.committed"
	NameBookingPivoted   = "booking.pivoted"
	NameIntentAbandoned  = "booking.intent.abandoned"
	NameCatalogUpdated   = "booking.catalog.updated"
)

// IntentStarted is published when a session selects a service.
type IntentStarted struct {
	BaseEvent
	IntentID    uuid.UUID `json:"intentId"`
	TenantID    uuid.UUID `json:"tenantId"`
	BotID       string    `json:"botId"`
	SessionID   string    `json:"sessionId"`
	ServiceID   string    `json:"serviceId"`
	ServiceName string    `json:"serviceName"`
}

func (e IntentStarted) EventName() string { return NameIntentStarted }

// LeadCaptured is published when contact details are attached to an intent.
type LeadCaptured struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	IntentID    uuid.UUID `json:"intentId"`
	TenantID    uuid.UUID `json:"tenantId"`
	BotID       string    `json:"botId"`
	ServiceName string    `json:"serviceName"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	// NotifyEmail is the tenant address that receives lead notifications.
	NotifyEmail string `json:"-"`
}

func (e LeadCaptured) EventName() string { return NameLeadCaptured }

// BookingCommitted is published when a user clicks "book now".
type BookingCommitted struct {
	BaseEvent
	IntentID     uuid.UUID `json:"intentId"`
	TenantID     uuid.UUID `json:"tenantId"`
	BotID        string    `json:"botId"`
	ProfileKey   string    `json:"profileKey"`
	RedirectType string    `json:"redirectType"`
	Pivoted      bool      `json:"pivoted"`
	DemoMode     bool      `json:"demoMode"`
}

func (e BookingCommitted) EventName() string { return NameBookingCommitted }

// BookingPivoted is published when an external booking fell back to internal capture.
type BookingPivoted struct {
	BaseEvent
	IntentID          uuid.UUID `json:"intentId"`
	TenantID          uuid.UUID `json:"tenantId"`
	ProfileKey        string    `json:"profileKey"`
	AppointmentTypeID string    `json:"appointmentTypeId"`
	PivotTargetID     string    `json:"pivotTargetId,omitempty"`
	Reason            string    `json:"reason"`
}

func (e BookingPivoted) EventName() string { return NameBookingPivoted }

// Abandon sources.
const (
	AbandonSourceClient = "client"
	AbandonSourceSweep  = "sweep"
)

// IntentAbandoned is published when an open intent is given up.
type IntentAbandoned struct {
	BaseEvent
	IntentID uuid.UUID `json:"intentId"`
	TenantID uuid.UUID `json:"tenantId"`
	BotID    string    `json:"botId"`
	Source   string    `json:"source"`
}

func (e IntentAbandoned) EventName() string { return NameIntentAbandoned }

// CatalogUpdated is published after an administrator replaces a booking profile.
type CatalogUpdated struct {
	BaseEvent
	ProfileKey  string     `json:"profileKey"`
	UpdatedBy   *uuid.UUID `json:"updatedBy,omitempty"`
	TenantID    *uuid.UUID `json:"tenantId,omitempty"`
	SnapshotKey string     `json:"snapshotKey,omitempty"`
}

func (e CatalogUpdated) EventName() string { return NameCatalogUpdated }
