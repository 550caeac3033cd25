package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Intent statuses.
const (
	StatusPending      = "pending"
	StatusLeadCaptured = "lead_captured"
	StatusCommitted    = "committed"
	StatusAbandoned    = "abandoned"
)

// Config is the booking configuration of one bot.
type Config struct {
	TenantID           uuid.UUID
	BotID              string
	Enabled            bool
	DemoMode           bool
	BusinessType       string
	ExternalBookingURL *string
	NotifyEmail        *string
	Services           []Service
}

// Service is a bookable service offered by a bot.
type Service struct {
	ID                string
	Name              string
	AppointmentTypeID string
	PriceCents        *int64
	DurationMins      *int
	ExternalURL       *string
}

// FindService returns the active service with the given id.
func (c Config) FindService(id string) (Service, bool) {
	for _, s := range c.Services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// Intent is a provisional booking created at service selection.
type Intent struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	BotID        string
	SessionID    string
	ServiceID    string
	ServiceName  string
	PriceCents   *int64
	DurationMins *int
	Status       string
	RedirectType *string
	RedirectURL  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsOpen reports whether the intent can still be committed or abandoned.
func (i Intent) IsOpen() bool {
	return i.Status == StatusPending || i.Status == StatusLeadCaptured
}

// Lead is the contact captured for an intent. There is at most one per intent.
type Lead struct {
	ID        uuid.UUID
	IntentID  uuid.UUID
	TenantID  uuid.UUID
	Name      string
	Phone     *string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateIntentParams contains parameters for starting an intent.
type CreateIntentParams struct {
	TenantID     uuid.UUID
	BotID        string
	SessionID    string
	ServiceID    string
	ServiceName  string
	PriceCents   *int64
	DurationMins *int
}

// UpsertLeadParams contains parameters for attaching a lead to an intent.
type UpsertLeadParams struct {
	TenantID uuid.UUID
	IntentID uuid.UUID
	Name     string
	Phone    *string
	Email    *string
}

// ConfigReader provides read access to bot booking configuration.
type ConfigReader interface {
	GetConfig(ctx context.Context, tenantID uuid.UUID, botID string) (Config, error)
}

// IntentStore provides intent lifecycle operations.
type IntentStore interface {
	// CreateIntent returns the open intent for the same session and service
	// when one exists; created reports whether a new row was inserted.
	CreateIntent(ctx context.Context, params CreateIntentParams) (intent Intent, created bool, err error)
	GetIntent(ctx context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID) (Intent, error)
	// MarkCommitted stores the redirect once. When the intent is already
	// committed the stored row is returned unchanged and committed is false.
	MarkCommitted(ctx context.Context, tenantID, intentID uuid.UUID, redirectType, redirectURL string) (intent Intent, committed bool, err error)
	// MarkAbandoned abandons an open intent. With staleBefore set, only an
	// intent untouched since that time is abandoned.
	MarkAbandoned(ctx context.Context, tenantID, intentID uuid.UUID, staleBefore *time.Time) (bool, error)
}

// LeadStore provides lead capture.
type LeadStore interface {
	UpsertLead(ctx context.Context, params UpsertLeadParams) (Lead, error)
}

// Repository combines all intent repository operations.
type Repository interface {
	ConfigReader
	IntentStore
	LeadStore
}
