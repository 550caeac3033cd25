// Package notification provides event handlers for sending notifications
// in response to booking events.
// This module subscribes to events and inverts the dependency: the intent
// service never needs to know about email providers or templates.
package notification

import (
	"context"
	"strings"

	"booking_engine/internal/email"
	"booking_engine/internal/events"
	"booking_engine/platform/logger"
)

// Config provides the settings notification links are built from.
type Config interface {
	GetAppBaseURL() string
}

// Module handles notification-related domain events.
type Module struct {
	sender email.Sender
	cfg    Config
	log    *logger.Logger
}

// New creates a new notification module.
func New(sender email.Sender, cfg Config, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{sender: sender, cfg: cfg, log: log}
}

// RegisterHandlers subscribes to the events that trigger notifications.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadCaptured{}.EventName(), m)
}

// Handle implements events.Handler.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadCaptured:
		return m.handleLeadCaptured(ctx, e)
	default:
		m.log.Warn("unhandled event type in notification module", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleLeadCaptured(ctx context.Context, e events.LeadCaptured) error {
	to := strings.TrimSpace(e.NotifyEmail)
	if to == "" {
		return nil
	}

	lead := email.LeadEmail{
		ServiceName:  e.ServiceName,
		Name:         e.Name,
		Phone:        e.Phone,
		Email:        e.Email,
		Source:       e.BotID,
		DashboardURL: m.buildURL("/bookings/" + e.IntentID.String()),
	}
	if err := m.sender.SendLeadCapturedEmail(ctx, to, lead); err != nil {
		m.log.Error("failed to send lead notification email",
			"leadId", e.LeadID,
			"tenantId", e.TenantID,
			"error", err,
		)
		return err
	}
	m.log.Info("lead notification email sent", "leadId", e.LeadID, "tenantId", e.TenantID)
	return nil
}

func (m *Module) buildURL(path string) string {
	if m.cfg == nil {
		return ""
	}
	base := strings.TrimRight(m.cfg.GetAppBaseURL(), "/")
	if base == "" {
		return ""
	}
	return base + path
}
