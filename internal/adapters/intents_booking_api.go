package adapters

import (
	"context"

	"github.com/google/uuid"

	"booking_engine/internal/bookingsession/session"
	"booking_engine/internal/intents/service"
	"booking_engine/internal/intents/transport"
)

// IntentsBookingAPI adapts the intents service for use by the booking
// session machine when both run in the same process.
// It implements the session.BookingAPI interface.
type IntentsBookingAPI struct {
	svc *service.Service
}

var _ session.BookingAPI = (*IntentsBookingAPI)(nil)

// NewIntentsBookingAPI creates a new adapter that wraps the intents service.
func NewIntentsBookingAPI(svc *service.Service) *IntentsBookingAPI {
	return &IntentsBookingAPI{svc: svc}
}

func (a *IntentsBookingAPI) GetConfig(ctx context.Context, tenantID uuid.UUID, botID string) (session.Config, error) {
	cfg, err := a.svc.GetConfig(ctx, tenantID, botID)
	if err != nil {
		return session.Config{}, err
	}

	services := make([]session.Service, 0, len(cfg.Services))
	for _, s := range cfg.Services {
		services = append(services, session.Service{
			ID:                s.ID,
			Name:              s.Name,
			AppointmentTypeID: s.AppointmentTypeID,
			PriceCents:        s.PriceCents,
			DurationMins:      s.DurationMins,
		})
	}
	return session.Config{
		Enabled:            cfg.Enabled,
		DemoMode:           cfg.DemoMode,
		ExternalBookingURL: cfg.ExternalBookingURL,
		Services:           services,
	}, nil
}

func (a *IntentsBookingAPI) StartIntent(ctx context.Context, in session.StartIntentInput) (uuid.UUID, error) {
	resp, err := a.svc.StartIntent(ctx, in.TenantID, in.BotID, transport.StartIntentRequest{
		ServiceID:    in.ServiceID,
		ServiceName:  in.ServiceName,
		PriceCents:   in.PriceCents,
		DurationMins: in.DurationMins,
		SessionID:    in.SessionID,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return resp.IntentID, nil
}

func (a *IntentsBookingAPI) AttachLead(ctx context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID, contact session.Contact) (uuid.UUID, error) {
	resp, err := a.svc.AttachLead(ctx, tenantID, botID, intentID, transport.AttachLeadRequest{
		Name:  contact.Name,
		Phone: contact.Phone,
		Email: contact.Email,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return resp.LeadID, nil
}

func (a *IntentsBookingAPI) CommitClick(ctx context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID) (session.Resolution, error) {
	resp, err := a.svc.CommitClick(ctx, tenantID, botID, intentID)
	if err != nil {
		return session.Resolution{}, err
	}
	return session.Resolution{RedirectType: resp.RedirectType, URL: resp.URL, IsDemoMode: resp.IsDemoMode}, nil
}

func (a *IntentsBookingAPI) Abandon(ctx context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID) error {
	return a.svc.Abandon(ctx, tenantID, botID, intentID)
}
