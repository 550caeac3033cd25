// Package service implements the server side of the booking collaborator
// contracts: config lookup, start intent, attach lead, commit click and abandon.
package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"booking_engine/internal/events"
	"booking_engine/internal/intents/repository"
	"booking_engine/internal/intents/transport"
	"booking_engine/internal/pivot"
	"booking_engine/internal/profiles/catalog"
	"booking_engine/platform/apperr"
	"booking_engine/platform/config"
	"booking_engine/platform/logger"
	"booking_engine/platform/metrics"
	"booking_engine/platform/phone"
	"booking_engine/platform/sanitize"
)

// Error codes reported to callers.
const (
	CodeBookingDisabled = "booking_disabled"
	CodeUnknownService  = "unknown_service"
	CodeInvalidPhone    = "invalid_phone"
	CodeIntentCommitted = "intent_committed"
)

// ProfileSource resolves the booking profile for a business type.
// *catalog.Store satisfies it.
type ProfileSource interface {
	ProfileFor(businessType string) catalog.BookingProfile
}

// AbandonScheduler schedules the delayed abandon sweep of an intent.
type AbandonScheduler interface {
	ScheduleAbandonSweep(ctx context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID, after time.Duration) error
}

// Service provides the booking intent business logic.
type Service struct {
	repo      repository.Repository
	profiles  ProfileSource
	resolver  *pivot.Resolver
	bus       events.Bus
	scheduler AbandonScheduler
	metrics   *metrics.Booking
	cfg       config.BookingConfig
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new intents service.
func New(
	repo repository.Repository,
	profiles ProfileSource,
	resolver *pivot.Resolver,
	bus events.Bus,
	m *metrics.Booking,
	cfg config.BookingConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		resolver: resolver,
		bus:      bus,
		metrics:  m,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// SetAbandonScheduler enables the delayed abandon sweep for new intents.
func (s *Service) SetAbandonScheduler(scheduler AbandonScheduler) {
	s.scheduler = scheduler
}

// GetConfig returns the booking configuration of a bot.
func (s *Service) GetConfig(ctx context.Context, tenantID uuid.UUID, botID string) (transport.ConfigResponse, error) {
	cfg, err := s.repo.GetConfig(ctx, tenantID, botID)
	if err != nil {
		return transport.ConfigResponse{}, err
	}
	profile := s.profiles.ProfileFor(cfg.BusinessType)
	return toConfigResponse(cfg, profile), nil
}

// StartIntent creates the booking intent for a service selection. Repeating
// the same selection in the same session returns the open intent.
func (s *Service) StartIntent(ctx context.Context, tenantID uuid.UUID, botID string, req transport.StartIntentRequest) (transport.StartIntentResponse, error) {
	cfg, err := s.repo.GetConfig(ctx, tenantID, botID)
	if err != nil {
		return transport.StartIntentResponse{}, err
	}
	if !cfg.Enabled {
		return transport.StartIntentResponse{}, apperr.Conflict("booking is not enabled for this assistant").WithCode(CodeBookingDisabled)
	}

	params := repository.CreateIntentParams{
		TenantID:     tenantID,
		BotID:        botID,
		SessionID:    strings.TrimSpace(req.SessionID),
		ServiceID:    strings.TrimSpace(req.ServiceID),
		ServiceName:  sanitize.Line(req.ServiceName),
		PriceCents:   req.PriceCents,
		DurationMins: req.DurationMins,
	}
	if len(cfg.Services) > 0 {
		svc, ok := cfg.FindService(params.ServiceID)
		if !ok {
			return transport.StartIntentResponse{}, apperr.Validation("selected service is not offered").WithCode(CodeUnknownService)
		}
		// The configuration is authoritative for what the intent records.
		params.ServiceName = svc.Name
		params.PriceCents = svc.PriceCents
		params.DurationMins = svc.DurationMins
	}

	intent, created, err := s.repo.CreateIntent(ctx, params)
	if err != nil {
		return transport.StartIntentResponse{}, err
	}

	if created {
		metrics.Inc(ctx, s.metrics.IntentCount, "bot", botID)
		s.bus.Publish(ctx, events.IntentStarted{
			BaseEvent:   events.NewBaseEvent(),
			IntentID:    intent.ID,
			TenantID:    tenantID,
			BotID:       botID,
			SessionID:   intent.SessionID,
			ServiceID:   intent.ServiceID,
			ServiceName: intent.ServiceName,
		})
		s.scheduleSweep(ctx, tenantID, botID, intent.ID, s.cfg.GetIntentTTL())
	}

	return transport.StartIntentResponse{IntentID: intent.ID}, nil
}

// AttachLead creates or updates the lead of an intent.
func (s *Service) AttachLead(ctx context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID, req transport.AttachLeadRequest) (transport.AttachLeadResponse, error) {
	intent, err := s.repo.GetIntent(ctx, tenantID, botID, intentID)
	if err != nil {
		return transport.AttachLeadResponse{}, err
	}
	if intent.Status == repository.StatusCommitted {
		return transport.AttachLeadResponse{}, apperr.Conflict("booking was already completed").WithCode(CodeIntentCommitted)
	}

	name := sanitize.Line(req.Name)
	if name == "" {
		return transport.AttachLeadResponse{}, apperr.Validation("name is required")
	}

	var phoneNumber *string
	if p := sanitize.LinePtr(req.Phone); p != nil {
		formatted, err := phone.Parse(*p, s.cfg.GetPhoneRegion())
		if err != nil {
			return transport.AttachLeadResponse{}, apperr.Validation("please enter a valid phone number").WithCode(CodeInvalidPhone)
		}
		phoneNumber = &formatted
	}

	var email *string
	if e := sanitize.LinePtr(req.Email); e != nil {
		lowered := strings.ToLower(*e)
		email = &lowered
	}

	lead, err := s.repo.UpsertLead(ctx, repository.UpsertLeadParams{
		TenantID: tenantID,
		IntentID: intent.ID,
		Name:     name,
		Phone:    phoneNumber,
		Email:    email,
	})
	if err != nil {
		return transport.AttachLeadResponse{}, err
	}

	metrics.Inc(ctx, s.metrics.LeadCount, "bot", botID)
	event := events.LeadCaptured{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		IntentID:    intent.ID,
		TenantID:    tenantID,
		BotID:       botID,
		ServiceName: intent.ServiceName,
		Name:        lead.Name,
		Phone:       deref(lead.Phone),
		Email:       deref(lead.Email),
	}
	if cfg, err := s.repo.GetConfig(ctx, tenantID, botID); err == nil {
		event.NotifyEmail = deref(cfg.NotifyEmail)
	}
	s.bus.Publish(ctx, event)

	// Contact activity restarts the abandon window.
	s.scheduleSweep(ctx, tenantID, botID, intent.ID, s.cfg.GetIntentTTL())

	return transport.AttachLeadResponse{LeadID: lead.ID}, nil
}

// CommitClick resolves where the booking goes and records it on the intent.
// A second commit of the same intent returns the stored redirect.
func (s *Service) CommitClick(ctx context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID) (transport.CommitResponse, error) {
	intent, err := s.repo.GetIntent(ctx, tenantID, botID, intentID)
	if err != nil {
		return transport.CommitResponse{}, err
	}
	if stored, ok := storedCommit(intent); ok {
		return stored, nil
	}

	cfg, err := s.repo.GetConfig(ctx, tenantID, botID)
	if err != nil {
		return transport.CommitResponse{}, err
	}

	profile := s.profiles.ProfileFor(cfg.BusinessType)
	svc, _ := cfg.FindService(intent.ServiceID)
	selected := selectedAppointmentType(profile, svc)

	res := s.resolver.Resolve(ctx, pivot.Request{
		Profile:     profile,
		Selected:    selected,
		ExternalURL: firstNonEmpty(svc.ExternalURL, cfg.ExternalBookingURL),
	})
	if cfg.DemoMode && res.RedirectType == pivot.RedirectExternal {
		res = pivot.Resolution{RedirectType: pivot.RedirectDemo}
		if target, ok := profile.PivotTarget(); ok {
			res.Target = &target
		}
	}

	redirectURL := res.URL
	if res.IsDemo() {
		redirectURL = s.confirmationURL(tenantID, botID, intent.ID, res.Target)
	}

	stored, committed, err := s.repo.MarkCommitted(ctx, tenantID, intent.ID, string(res.RedirectType), redirectURL)
	if err != nil {
		return transport.CommitResponse{}, err
	}
	if !committed {
		// A concurrent click committed first; its redirect stands.
		if resp, ok := storedCommit(stored); ok {
			return resp, nil
		}
		return transport.CommitResponse{}, apperr.Conflict("booking was already completed").WithCode(CodeIntentCommitted)
	}

	metrics.Inc(ctx, s.metrics.CommitCount, "redirect_type", string(res.RedirectType), "profile", profile.Key)
	s.bus.Publish(ctx, events.BookingCommitted{
		BaseEvent:    events.NewBaseEvent(),
		IntentID:     intent.ID,
		TenantID:     tenantID,
		BotID:        botID,
		ProfileKey:   profile.Key,
		RedirectType: string(res.RedirectType),
		Pivoted:      res.Pivoted,
		DemoMode:     cfg.DemoMode,
	})
	if res.Pivoted {
		pivotTargetID := ""
		if res.Target != nil {
			pivotTargetID = res.Target.ID
		}
		s.bus.Publish(ctx, events.BookingPivoted{
			BaseEvent:         events.NewBaseEvent(),
			IntentID:          intent.ID,
			TenantID:          tenantID,
			ProfileKey:        profile.Key,
			AppointmentTypeID: selected.ID,
			PivotTargetID:     pivotTargetID,
			Reason:            res.Reason,
		})
	}

	return transport.CommitResponse{
		RedirectType: string(res.RedirectType),
		URL:          redirectURL,
		IsDemoMode:   res.IsDemo(),
		Pivoted:      res.Pivoted,
		Reason:       res.Reason,
	}, nil
}

// Abandon marks an open intent as abandoned. Closed intents are left alone.
func (s *Service) Abandon(ctx context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID) error {
	intent, err := s.repo.GetIntent(ctx, tenantID, botID, intentID)
	if err != nil {
		return err
	}
	changed, err := s.repo.MarkAbandoned(ctx, tenantID, intent.ID, nil)
	if err != nil {
		return err
	}
	if changed {
		s.publishAbandoned(ctx, intent, events.AbandonSourceClient)
	}
	return nil
}

// SweepAbandoned abandons an intent that saw no activity for the intent TTL.
// An intent that is still active is rescheduled for the rest of its window.
func (s *Service) SweepAbandoned(ctx context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID) error {
	intent, err := s.repo.GetIntent(ctx, tenantID, botID, intentID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil
		}
		return err
	}
	if !intent.IsOpen() {
		return nil
	}

	ttl := s.cfg.GetIntentTTL()
	deadline := intent.UpdatedAt.Add(ttl)
	if remaining := deadline.Sub(s.now()); remaining > 0 {
		s.scheduleSweep(ctx, tenantID, botID, intent.ID, remaining)
		return nil
	}

	staleBefore := s.now().Add(-ttl)
	changed, err := s.repo.MarkAbandoned(ctx, tenantID, intent.ID, &staleBefore)
	if err != nil {
		return err
	}
	if changed {
		s.publishAbandoned(ctx, intent, events.AbandonSourceSweep)
	}
	return nil
}

func (s *Service) publishAbandoned(ctx context.Context, intent repository.Intent, source string) {
	metrics.Inc(ctx, s.metrics.AbandonCount, "source", source)
	s.bus.Publish(ctx, events.IntentAbandoned{
		BaseEvent: events.NewBaseEvent(),
		IntentID:  intent.ID,
		TenantID:  intent.TenantID,
		BotID:     intent.BotID,
		Source:    source,
	})
}

func (s *Service) scheduleSweep(ctx context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID, after time.Duration) {
	if s.scheduler == nil || after <= 0 {
		return
	}
	if err := s.scheduler.ScheduleAbandonSweep(ctx, tenantID, botID, intentID, after); err != nil {
		s.log.WithContext(ctx).Warn("failed to schedule abandon sweep", "intentId", intentID, "error", err)
	}
}

// confirmationURL is the internal page that finishes a demo booking.
func (s *Service) confirmationURL(tenantID uuid.UUID, botID string, intentID uuid.UUID, target *catalog.AppointmentType) string {
	base := strings.TrimRight(s.cfg.GetAppBaseURL(), "/")
	q := url.Values{}
	q.Set("intent", intentID.String())
	if target != nil {
		q.Set("type", target.ID)
	}
	return base + "/booking/" + url.PathEscape(tenantID.String()) + "/" + url.PathEscape(botID) + "/confirmation?" + q.Encode()
}

func storedCommit(intent repository.Intent) (transport.CommitResponse, bool) {
	if intent.Status != repository.StatusCommitted || intent.RedirectType == nil || intent.RedirectURL == nil {
		return transport.CommitResponse{}, false
	}
	redirectType := *intent.RedirectType
	return transport.CommitResponse{
		RedirectType: redirectType,
		URL:          *intent.RedirectURL,
		IsDemoMode:   redirectType == string(pivot.RedirectDemo),
	}, true
}

// selectedAppointmentType maps a configured service onto the profile. A
// service without a known appointment type books as the profile's default mode.
func selectedAppointmentType(profile catalog.BookingProfile, svc repository.Service) catalog.AppointmentType {
	if t, ok := profile.AppointmentType(svc.AppointmentTypeID); ok {
		return t
	}
	for _, t := range profile.AppointmentTypes {
		if t.Mode == profile.DefaultMode {
			return t
		}
	}
	return catalog.AppointmentType{ID: svc.ID, Label: svc.Name, Mode: profile.DefaultMode}
}

func toConfigResponse(cfg repository.Config, profile catalog.BookingProfile) transport.ConfigResponse {
	services := make([]transport.ServiceResponse, 0, len(cfg.Services))
	for _, s := range cfg.Services {
		services = append(services, transport.ServiceResponse{
			ID:                s.ID,
			Name:              s.Name,
			AppointmentTypeID: s.AppointmentTypeID,
			PriceCents:        s.PriceCents,
			DurationMins:      s.DurationMins,
			ExternalURL:       s.ExternalURL,
		})
	}
	ctas := make([]transport.CTAResponse, 0, len(profile.CTAs))
	for _, c := range profile.CTAs {
		ctas = append(ctas, transport.CTAResponse{
			ID:                c.ID,
			Label:             c.Label,
			AppointmentTypeID: c.AppointmentTypeID,
			MessageTemplate:   c.MessageTemplate,
		})
	}
	return transport.ConfigResponse{
		Enabled:            cfg.Enabled,
		DemoMode:           cfg.DemoMode,
		BusinessType:       cfg.BusinessType,
		ProfileKey:         profile.Key,
		ExternalBookingURL: cfg.ExternalBookingURL,
		Services:           services,
		CTAs:               ctas,
	}
}

func firstNonEmpty(values ...*string) *string {
	for _, v := range values {
		if v != nil && strings.TrimSpace(*v) != "" {
			return v
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
