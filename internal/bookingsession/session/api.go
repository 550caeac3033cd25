package session

import (
	"context"

	"github.com/google/uuid"
)

// StartIntentInput describes the service selection that opens an intent.
type StartIntentInput struct {
	TenantID     uuid.UUID
	BotID        string
	SessionID    string
	ServiceID    string
	ServiceName  string
	PriceCents   *int64
	DurationMins *int
}

// BookingAPI is the intent service as seen by the state machine. Every call
// is one request/response round trip.
type BookingAPI interface {
	GetConfig(ctx context.Context, tenantID uuid.UUID, botID string) (Config, error)
	StartIntent(ctx context.Context, in StartIntentInput) (uuid.UUID, error)
	AttachLead(ctx context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID, contact Contact) (uuid.UUID, error)
	CommitClick(ctx context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID) (Resolution, error)
	Abandon(ctx context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID) error
}
