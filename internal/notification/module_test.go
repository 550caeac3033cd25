package notification

import (
	"context"
	"errors"
	"testing"

	"booking_engine/internal/email"
	"booking_engine/internal/events"
	"booking_engine/platform/logger"

	"github.com/google/uuid"
)

type testNotificationConfig struct{}

func (testNotificationConfig) GetAppBaseURL() string { return "https://app.example.com/" }

type testSender struct {
	calls int
	to    string
	lead  email.LeadEmail
	err   error
}

func (s *testSender) SendLeadCapturedEmail(_ context.Context, to string, lead email.LeadEmail) error {
	s.calls++
	s.to = to
	s.lead = lead
	return s.err
}

func leadCaptured(notify string) events.LeadCaptured {
	return events.LeadCaptured{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      uuid.New(),
		IntentID:    uuid.MustParse("7b1c1c8e-2f4b-4d0c-9f2e-4a6d8e2f1a11"),
		TenantID:    uuid.New(),
		BotID:       "web",
		ServiceName: "Haircut",
		Name:        "Jane Doe",
		Phone:       "+14155552671",
		NotifyEmail: notify,
	}
}

func TestLeadCapturedSendsEmail(t *testing.T) {
	sender := &testSender{}
	m := New(sender, testNotificationConfig{}, logger.Nop())

	if err := m.Handle(context.Background(), leadCaptured("owner@example.com")); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if sender.calls != 1 || sender.to != "owner@example.com" {
		t.Fatalf("expected one email to the tenant, got %d to %q", sender.calls, sender.to)
	}
	want := "https://app.example.com/bookings/7b1c1c8e-2f4b-4d0c-9f2e-4a6d8e2f1a11"
	if sender.lead.DashboardURL != want || sender.lead.ServiceName != "Haircut" {
		t.Fatalf("unexpected lead email %+v", sender.lead)
	}
}

func TestLeadCapturedWithoutAddressIsSkipped(t *testing.T) {
	sender := &testSender{}
	m := New(sender, testNotificationConfig{}, logger.Nop())

	if err := m.Handle(context.Background(), leadCaptured("  ")); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if sender.calls != 0 {
		t.Fatalf("expected no email without a notify address")
	}
}

func TestLeadCapturedSendFailureIsReported(t *testing.T) {
	sender := &testSender{err: errors.New("smtp down")}
	m := New(sender, testNotificationConfig{}, logger.Nop())

	if err := m.Handle(context.Background(), leadCaptured("owner@example.com")); err == nil {
		t.Fatalf("expected send error to be returned to the bus")
	}
}
