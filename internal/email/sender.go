// Package email sends booking notifications to tenants.
package email

import "context"

// LeadEmail describes a lead captured by a booking conversation.
type LeadEmail struct {
	BusinessName string
	ServiceName  string
	Name         string
	Phone        string
	Email        string
	Source       string
	DashboardURL string
}

type Sender interface {
	SendLeadCapturedEmail(ctx context.Context, toEmail string, lead LeadEmail) error
}

// NoopSender drops every message. It is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendLeadCapturedEmail(ctx context.Context, toEmail string, lead LeadEmail) error {
	return nil
}
