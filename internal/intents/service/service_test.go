package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"booking_engine/internal/events"
	"booking_engine/internal/intents/repository"
	"booking_engine/internal/intents/transport"
	"booking_engine/internal/pivot"
	"booking_engine/internal/profiles/catalog"
	"booking_engine/platform/apperr"
	"booking_engine/platform/logger"
	"booking_engine/platform/metrics"
)

type testConfig struct{}

func (testConfig) GetAppBaseURL() string             { return "https://app.example.com/" }
func (testConfig) GetIntentTTL() time.Duration       { return 2 * time.Hour }
func (testConfig) GetUpstreamTimeout() time.Duration { return 5 * time.Second }
func (testConfig) GetPhoneRegion() string            { return "US" }

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) named(name string) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.Event
	for _, e := range b.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

type sweepCall struct {
	intentID uuid.UUID
	after    time.Duration
}

type fakeScheduler struct {
	mu    sync.Mutex
	calls []sweepCall
}

func (s *fakeScheduler) ScheduleAbandonSweep(_ context.Context, _ uuid.UUID, _ string, intentID uuid.UUID, after time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sweepCall{intentID: intentID, after: after})
	return nil
}

type fixture struct {
	svc      *Service
	repo     *fakeRepo
	bus      *recordingBus
	sched    *fakeScheduler
	tenantID uuid.UUID
	botID    string
}

func strPtr(s string) *string { return &s }

func newFixture(t *testing.T, cfg repository.Config) fixture {
	t.Helper()
	repo := newFakeRepo()
	bus := &recordingBus{}
	sched := &fakeScheduler{}

	cfg.TenantID = uuid.New()
	cfg.BotID = "web-widget"
	repo.putConfig(cfg)

	store := catalog.NewStore(catalog.Default())
	svc := New(repo, store, pivot.New(nil, nil), bus, metrics.MustNewBooking(), testConfig{}, logger.Nop())
	svc.SetAbandonScheduler(sched)

	return fixture{svc: svc, repo: repo, bus: bus, sched: sched, tenantID: cfg.TenantID, botID: cfg.BotID}
}

func barberConfig(externalURL *string) repository.Config {
	return repository.Config{
		Enabled:      true,
		BusinessType: "Barbershop",
		Services: []repository.Service{
			{ID: "svc-haircut", Name: "Haircut", AppointmentTypeID: "haircut", PriceCents: int64Ptr(2500), ExternalURL: externalURL},
		},
	}
}

func int64Ptr(v int64) *int64 { return &v }

func (f fixture) start(t *testing.T, serviceID string) uuid.UUID {
	t.Helper()
	resp, err := f.svc.StartIntent(context.Background(), f.tenantID, f.botID, transport.StartIntentRequest{
		ServiceID:   serviceID,
		ServiceName: "client supplied name",
		SessionID:   "session-1",
	})
	if err != nil {
		t.Fatalf("StartIntent: %v", err)
	}
	return resp.IntentID
}

func TestStartIntentUsesConfiguredServiceAndDeduplicates(t *testing.T) {
	f := newFixture(t, barberConfig(nil))

	first := f.start(t, "svc-haircut")
	second := f.start(t, "svc-haircut")
	if first != second {
		t.Fatalf("expected repeated selection to return the open intent")
	}

	it := f.repo.intent(first)
	if it.ServiceName != "Haircut" || it.PriceCents == nil || *it.PriceCents != 2500 {
		t.Fatalf("expected configured service data, got %+v", it)
	}
	if got := len(f.bus.named(events.NameIntentStarted)); got != 1 {
		t.Fatalf("expected 1 IntentStarted event, got %d", got)
	}
	if len(f.sched.calls) != 1 || f.sched.calls[0].after != 2*time.Hour {
		t.Fatalf("expected one abandon sweep after the intent TTL, got %+v", f.sched.calls)
	}
}

func TestStartIntentRejectsUnknownServiceAndDisabledConfig(t *testing.T) {
	f := newFixture(t, barberConfig(nil))
	_, err := f.svc.StartIntent(context.Background(), f.tenantID, f.botID, transport.StartIntentRequest{
		ServiceID: "svc-massage", ServiceName: "Massage", SessionID: "s",
	})
	if apperr.GetCode(err) != CodeUnknownService {
		t.Fatalf("expected %s, got %v", CodeUnknownService, err)
	}

	disabled := barberConfig(nil)
	disabled.Enabled = false
	f = newFixture(t, disabled)
	_, err = f.svc.StartIntent(context.Background(), f.tenantID, f.botID, transport.StartIntentRequest{
		ServiceID: "svc-haircut", ServiceName: "Haircut", SessionID: "s",
	})
	if apperr.GetCode(err) != CodeBookingDisabled {
		t.Fatalf("expected %s, got %v", CodeBookingDisabled, err)
	}
}

func TestAttachLeadNormalizesAndUpdatesSingleLead(t *testing.T) {
	f := newFixture(t, barberConfig(nil))
	intentID := f.start(t, "svc-haircut")
	ctx := context.Background()

	first, err := f.svc.AttachLead(ctx, f.tenantID, f.botID, intentID, transport.AttachLeadRequest{
		Name:  "  Jane   <b>Doe</b> ",
		Phone: strPtr("(415) 555-2671"),
		Email: strPtr(" Jane@Example.COM "),
	})
	if err != nil {
		t.Fatalf("AttachLead: %v", err)
	}
	second, err := f.svc.AttachLead(ctx, f.tenantID, f.botID, intentID, transport.AttachLeadRequest{Name: "Jane Doe"})
	if err != nil {
		t.Fatalf("AttachLead (update): %v", err)
	}
	if first.LeadID != second.LeadID {
		t.Fatalf("expected at most one lead per intent")
	}

	captured := f.bus.named(events.NameLeadCaptured)
	if len(captured) != 2 {
		t.Fatalf("expected 2 LeadCaptured events, got %d", len(captured))
	}
	lead := captured[0].(events.LeadCaptured)
	if lead.Name != "Jane Doe" || lead.Phone != "+14155552671" || lead.Email != "jane@example.com" {
		t.Fatalf("unexpected normalized lead %+v", lead)
	}
	if f.repo.intent(intentID).Status != repository.StatusLeadCaptured {
		t.Fatalf("expected intent to be lead_captured")
	}
}

func TestAttachLeadRejectsInvalidPhone(t *testing.T) {
	f := newFixture(t, barberConfig(nil))
	intentID := f.start(t, "svc-haircut")

	_, err := f.svc.AttachLead(context.Background(), f.tenantID, f.botID, intentID, transport.AttachLeadRequest{
		Name: "Jane", Phone: strPtr("not a number"),
	})
	if !apperr.Is(err, apperr.KindValidation) || apperr.GetCode(err) != CodeInvalidPhone {
		t.Fatalf("expected invalid phone validation error, got %v", err)
	}
}

func TestCommitClickExternalRedirect(t *testing.T) {
	f := newFixture(t, barberConfig(strPtr("https://booking.example.com/schedule")))
	intentID := f.start(t, "svc-haircut")

	resp, err := f.svc.CommitClick(context.Background(), f.tenantID, f.botID, intentID)
	if err != nil {
		t.Fatalf("CommitClick: %v", err)
	}
	if resp.RedirectType != "external" || resp.URL != "https://booking.example.com/schedule" || resp.IsDemoMode {
		t.Fatalf("unexpected response %+v", resp)
	}
	if got := len(f.bus.named(events.NameBookingPivoted)); got != 0 {
		t.Fatalf("expected no pivot event, got %d", got)
	}
}

func TestCommitClickPivotsAwayFromUnsafeOrMissingURL(t *testing.T) {
	tests := []struct {
		name       string
		url        *string
		wantReason string
	}{
		{name: "missing", url: nil, wantReason: pivot.ReasonMissingURL},
		{name: "script", url: strPtr("javascript:alert(1)"), wantReason: pivot.ReasonUnsafeURL},
		{name: "plain http", url: strPtr("http://booking.example.com"), wantReason: pivot.ReasonUnsafeURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, barberConfig(tt.url))
			intentID := f.start(t, "svc-haircut")

			resp, err := f.svc.CommitClick(context.Background(), f.tenantID, f.botID, intentID)
			if err != nil {
				t.Fatalf("CommitClick: %v", err)
			}
			if resp.RedirectType != "demo" || !resp.IsDemoMode || !resp.Pivoted || resp.Reason != tt.wantReason {
				t.Fatalf("unexpected response %+v", resp)
			}
			if !strings.HasPrefix(resp.URL, "https://app.example.com/booking/") || !strings.Contains(resp.URL, "type=callback_request") {
				t.Fatalf("expected internal confirmation for the pivot target, got %q", resp.URL)
			}
			if tt.url != nil && strings.Contains(resp.URL, *tt.url) {
				t.Fatalf("invalid URL leaked to the caller: %q", resp.URL)
			}

			pivoted := f.bus.named(events.NameBookingPivoted)
			if len(pivoted) != 1 || pivoted[0].(events.BookingPivoted).PivotTargetID != "callback_request" {
				t.Fatalf("expected one pivot event to callback_request, got %+v", pivoted)
			}
		})
	}
}

func TestCommitClickIsIdempotent(t *testing.T) {
	f := newFixture(t, barberConfig(strPtr("https://booking.example.com/schedule")))
	intentID := f.start(t, "svc-haircut")
	ctx := context.Background()

	first, err := f.svc.CommitClick(ctx, f.tenantID, f.botID, intentID)
	if err != nil {
		t.Fatalf("CommitClick: %v", err)
	}
	second, err := f.svc.CommitClick(ctx, f.tenantID, f.botID, intentID)
	if err != nil {
		t.Fatalf("second CommitClick: %v", err)
	}
	if first.URL != second.URL || first.RedirectType != second.RedirectType {
		t.Fatalf("expected the stored redirect, got %+v then %+v", first, second)
	}
	if f.repo.commits != 1 {
		t.Fatalf("expected one commit write, got %d", f.repo.commits)
	}
	if got := len(f.bus.named(events.NameBookingCommitted)); got != 1 {
		t.Fatalf("expected one BookingCommitted event, got %d", got)
	}
}

// staleReadRepo serves the intent as it was before another click committed it.
type staleReadRepo struct {
	*fakeRepo
	snapshot repository.Intent
}

func (r staleReadRepo) GetIntent(context.Context, uuid.UUID, string, uuid.UUID) (repository.Intent, error) {
	return r.snapshot, nil
}

func TestCommitClickLosingRaceReturnsStoredRedirect(t *testing.T) {
	f := newFixture(t, barberConfig(nil))
	intentID := f.start(t, "svc-haircut")
	pending := f.repo.intent(intentID)
	ctx := context.Background()

	first, err := f.svc.CommitClick(ctx, f.tenantID, f.botID, intentID)
	if err != nil {
		t.Fatalf("CommitClick: %v", err)
	}

	racing := New(staleReadRepo{fakeRepo: f.repo, snapshot: pending}, catalog.NewStore(catalog.Default()),
		pivot.New(nil, nil), f.bus, metrics.MustNewBooking(), testConfig{}, logger.Nop())
	second, err := racing.CommitClick(ctx, f.tenantID, f.botID, intentID)
	if err != nil {
		t.Fatalf("racing CommitClick: %v", err)
	}
	if second.URL != first.URL || second.RedirectType != first.RedirectType {
		t.Fatalf("expected the stored redirect, got %+v then %+v", first, second)
	}
	if f.repo.commits != 1 {
		t.Fatalf("expected one commit write, got %d", f.repo.commits)
	}
	if got := len(f.bus.named(events.NameBookingCommitted)); got != 1 {
		t.Fatalf("expected one BookingCommitted event, got %d", got)
	}
	if got := len(f.bus.named(events.NameBookingPivoted)); got != 1 {
		t.Fatalf("expected one BookingPivoted event, got %d", got)
	}
}

func TestCommitClickDemoModeStaysInternal(t *testing.T) {
	cfg := barberConfig(strPtr("https://booking.example.com/schedule"))
	cfg.DemoMode = true
	f := newFixture(t, cfg)
	intentID := f.start(t, "svc-haircut")

	resp, err := f.svc.CommitClick(context.Background(), f.tenantID, f.botID, intentID)
	if err != nil {
		t.Fatalf("CommitClick: %v", err)
	}
	if !resp.IsDemoMode || resp.Pivoted || strings.Contains(resp.URL, "booking.example.com") {
		t.Fatalf("expected demo without pivot, got %+v", resp)
	}
}

func TestCommitClickInternalProfile(t *testing.T) {
	f := newFixture(t, repository.Config{
		Enabled:      true,
		BusinessType: "dentist",
		Services:     []repository.Service{{ID: "clean", Name: "Cleaning", AppointmentTypeID: "cleaning"}},
	})
	intentID := f.start(t, "clean")

	resp, err := f.svc.CommitClick(context.Background(), f.tenantID, f.botID, intentID)
	if err != nil {
		t.Fatalf("CommitClick: %v", err)
	}
	if resp.RedirectType != "demo" || resp.Pivoted || !strings.Contains(resp.URL, "type=cleaning") {
		t.Fatalf("unexpected internal resolution %+v", resp)
	}
}

func TestAbandonAndSweep(t *testing.T) {
	f := newFixture(t, barberConfig(nil))
	ctx := context.Background()

	clientIntent := f.start(t, "svc-haircut")
	if err := f.svc.Abandon(ctx, f.tenantID, f.botID, clientIntent); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if f.repo.intent(clientIntent).Status != repository.StatusAbandoned {
		t.Fatalf("expected abandoned intent")
	}

	sweepIntent := f.start(t, "svc-haircut")
	f.sched.calls = nil

	// Recent activity reschedules instead of abandoning.
	if err := f.svc.SweepAbandoned(ctx, f.tenantID, f.botID, sweepIntent); err != nil {
		t.Fatalf("SweepAbandoned: %v", err)
	}
	if f.repo.intent(sweepIntent).Status != repository.StatusPending || len(f.sched.calls) != 1 {
		t.Fatalf("expected reschedule of an active intent, calls=%+v", f.sched.calls)
	}

	f.repo.setUpdatedAt(sweepIntent, time.Now().Add(-3*time.Hour))
	if err := f.svc.SweepAbandoned(ctx, f.tenantID, f.botID, sweepIntent); err != nil {
		t.Fatalf("SweepAbandoned: %v", err)
	}
	if f.repo.intent(sweepIntent).Status != repository.StatusAbandoned {
		t.Fatalf("expected stale intent to be abandoned")
	}

	abandoned := f.bus.named(events.NameIntentAbandoned)
	if len(abandoned) != 2 || abandoned[1].(events.IntentAbandoned).Source != events.AbandonSourceSweep {
		t.Fatalf("unexpected abandon events %+v", abandoned)
	}
}
