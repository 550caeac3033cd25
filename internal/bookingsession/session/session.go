// Package session implements the per-conversation booking state machine.
//
// A session moves IDLE → SELECT_SERVICE → COLLECT_CONTACT → READY_TO_BOOK →
// DONE. The Machine's action methods are the only way to change a session;
// conversational components may read a session but never set its state.
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// State is a step of the booking funnel.
type State string

const (
	StateIdle           State = "IDLE"
	StateSelectService  State = "SELECT_SERVICE"
	StateCollectContact State = "COLLECT_CONTACT"
	StateReadyToBook    State = "READY_TO_BOOK"
	StateDone           State = "DONE"
)

var stateOrder = map[State]int{
	StateIdle:           0,
	StateSelectService:  1,
	StateCollectContact: 2,
	StateReadyToBook:    3,
	StateDone:           4,
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	_, ok := stateOrder[s]
	return ok
}

// Before reports whether s comes earlier in the funnel than other.
func (s State) Before(other State) bool {
	return stateOrder[s] < stateOrder[other]
}

// Key identifies one conversation of one tenant's assistant.
type Key struct {
	TenantID  uuid.UUID
	BotID     string
	SessionID string
}

// String is the storage form of the key.
func (k Key) String() string {
	return k.TenantID.String() + ":" + k.BotID + ":" + k.SessionID
}

// Valid reports whether every part of the key is set.
func (k Key) Valid() bool {
	return k.TenantID != uuid.Nil && strings.TrimSpace(k.BotID) != "" && strings.TrimSpace(k.SessionID) != ""
}

// Service is a bookable service from the bot configuration.
type Service struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	AppointmentTypeID string `json:"appointmentTypeId,omitempty"`
	PriceCents        *int64 `json:"priceCents,omitempty"`
	DurationMins      *int   `json:"durationMins,omitempty"`
}

// Config is the booking configuration looked up for a bot.
type Config struct {
	Enabled            bool      `json:"enabled"`
	DemoMode           bool      `json:"demoMode"`
	ExternalBookingURL *string   `json:"externalBookingUrl,omitempty"`
	Services           []Service `json:"services"`
}

// Bookable reports whether the configuration allows a service selection.
func (c Config) Bookable() bool {
	return c.Enabled && len(c.Services) > 0
}

// FindService returns the configured service with the given id.
func (c Config) FindService(id string) (Service, bool) {
	for _, s := range c.Services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// SafeDefaultConfig is used when the configuration cannot be loaded.
func SafeDefaultConfig() Config {
	return Config{Enabled: false, DemoMode: true, Services: []Service{}}
}

// Contact is the lead data captured in the conversation.
type Contact struct {
	Name  string  `json:"name"`
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty"`
}

// Resolution is where the user goes after "book now".
type Resolution struct {
	RedirectType string `json:"redirectType"`
	URL          string `json:"url"`
	IsDemoMode   bool   `json:"isDemoMode"`
}

// ActionError is the last failure shown to the user.
type ActionError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Session is the state of one booking conversation.
type Session struct {
	TenantID        uuid.UUID    `json:"tenantId"`
	BotID           string       `json:"botId"`
	SessionID       string       `json:"sessionId"`
	State           State        `json:"state"`
	Config          *Config      `json:"config,omitempty"`
	SelectedService *Service     `json:"selectedService,omitempty"`
	IntentID        *uuid.UUID   `json:"intentId,omitempty"`
	LeadID          *uuid.UUID   `json:"leadId,omitempty"`
	Contact         *Contact     `json:"contact,omitempty"`
	Error           *ActionError `json:"error,omitempty"`
	Warning         *ActionError `json:"warning,omitempty"`
	Resolution      *Resolution  `json:"resolution,omitempty"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// New returns an IDLE session for key.
func New(key Key) Session {
	return Session{
		TenantID:  key.TenantID,
		BotID:     key.BotID,
		SessionID: key.SessionID,
		State:     StateIdle,
	}
}

// Key returns the identity of the session.
func (s Session) Key() Key {
	return Key{TenantID: s.TenantID, BotID: s.BotID, SessionID: s.SessionID}
}
