package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"booking_engine/platform/apperr"
	"booking_engine/platform/logger"
	"booking_engine/platform/metrics"
)

// Action names, used for logging, metrics and reentrancy keys.
const (
	ActionLoadConfig    = "load_config"
	ActionSelectService = "select_service"
	ActionSubmitContact = "submit_contact"
	ActionClickBookNow  = "click_book_now"
	ActionAbandon       = "abandon"
	ActionReset         = "reset"
)

const defaultAbandonTimeout = 5 * time.Second

// Machine drives booking sessions. It is safe for concurrent use; calls for
// different sessions never block each other.
type Machine struct {
	api     BookingAPI
	store   Store
	log     *logger.Logger
	metrics *metrics.Booking

	flight         singleflight.Group
	background     sync.WaitGroup
	abandonTimeout time.Duration
	now            func() time.Time
}

// NewMachine creates a machine over the intent service api and a session store.
func NewMachine(api BookingAPI, store Store, log *logger.Logger, m *metrics.Booking) *Machine {
	if log == nil {
		log = logger.Nop()
	}
	return &Machine{
		api:            api,
		store:          store,
		log:            log,
		metrics:        m,
		abandonTimeout: defaultAbandonTimeout,
		now:            time.Now,
	}
}

// SetAbandonTimeout bounds the background abandon notification.
func (m *Machine) SetAbandonTimeout(d time.Duration) {
	if d > 0 {
		m.abandonTimeout = d
	}
}

// Wait blocks until background abandon notifications have finished.
func (m *Machine) Wait() {
	m.background.Wait()
}

// Get returns the session for key, or a fresh IDLE session when none exists.
func (m *Machine) Get(ctx context.Context, key Key) (Session, error) {
	if !key.Valid() {
		return Session{}, apperr.BadRequest("tenant, bot and session are required")
	}
	s, ok, err := m.store.Load(ctx, key)
	if err != nil {
		return Session{}, apperr.Wrap(apperr.KindUnavailable, "session storage unavailable", err)
	}
	if !ok {
		return New(key), nil
	}
	return s, nil
}

// LoadConfig fetches the bot configuration. A failure substitutes the safe
// default configuration with a soft warning and leaves the state unchanged.
func (m *Machine) LoadConfig(ctx context.Context, key Key) (Session, error) {
	return m.run(ctx, key, ActionLoadConfig, m.loadConfig)
}

func (m *Machine) loadConfig(ctx context.Context, s Session) (Session, error) {
	cfg, err := m.api.GetConfig(ctx, s.TenantID, s.BotID)
	if err != nil {
		if isCanceled(ctx, err) {
			return s, context.Canceled
		}
		m.log.WithContext(ctx).Warn("booking configuration unavailable, using safe default",
			"session", s.Key().String(), "error", err)
		fallback := SafeDefaultConfig()
		s.Config = &fallback
		s.Warning = &ActionError{Code: CodeConfigurationUnavailable, Message: msgConfigurationUnavailable, Retryable: true}
		return s, nil
	}

	if cfg.Services == nil {
		cfg.Services = []Service{}
	}
	s.Config = &cfg
	s.Warning = nil
	if s.State == StateIdle && cfg.Bookable() {
		m.advance(ctx, &s, ActionLoadConfig, StateSelectService)
	}
	return s, nil
}

// SelectService opens a booking intent for svc. It is allowed from IDLE and
// SELECT_SERVICE only. When the configuration lists services, svc must be
// one of them and the configured entry is used.
func (m *Machine) SelectService(ctx context.Context, key Key, svc Service) (Session, error) {
	return m.run(ctx, key, ActionSelectService, func(ctx context.Context, s Session) (Session, error) {
		if s.State != StateIdle && s.State != StateSelectService {
			return s, m.reject(ctx, ActionSelectService, errInvalidState(ActionSelectService, s.State))
		}
		if s.Config != nil && len(s.Config.Services) > 0 {
			configured, ok := s.Config.FindService(svc.ID)
			if !ok {
				return s, m.reject(ctx, ActionSelectService, errUnknownService())
			}
			svc = configured
		}
		if strings.TrimSpace(svc.ID) == "" || strings.TrimSpace(svc.Name) == "" {
			return s, m.reject(ctx, ActionSelectService, errUnknownService())
		}

		intentID, err := m.api.StartIntent(ctx, StartIntentInput{
			TenantID:     s.TenantID,
			BotID:        s.BotID,
			SessionID:    s.SessionID,
			ServiceID:    svc.ID,
			ServiceName:  svc.Name,
			PriceCents:   svc.PriceCents,
			DurationMins: svc.DurationMins,
		})
		if err != nil {
			if isCanceled(ctx, err) {
				return s, context.Canceled
			}
			return s, remoteFailure(CodeStartBookingFailed, msgStartBookingFailed, false, err)
		}

		s.SelectedService = &svc
		s.IntentID = &intentID
		m.advance(ctx, &s, ActionSelectService, StateCollectContact)
		return s, nil
	})
}

// SubmitContact attaches the contact to the active intent. Without an
// intent it fails fast and makes no call.
func (m *Machine) SubmitContact(ctx context.Context, key Key, contact Contact) (Session, error) {
	return m.run(ctx, key, ActionSubmitContact, func(ctx context.Context, s Session) (Session, error) {
		if s.IntentID == nil {
			return s, m.reject(ctx, ActionSubmitContact, errMissingActiveBooking())
		}
		if s.State != StateCollectContact && s.State != StateReadyToBook {
			return s, m.reject(ctx, ActionSubmitContact, errInvalidState(ActionSubmitContact, s.State))
		}

		leadID, err := m.api.AttachLead(ctx, s.TenantID, s.BotID, *s.IntentID, contact)
		if err != nil {
			if isCanceled(ctx, err) {
				return s, context.Canceled
			}
			return s, remoteFailure(CodeSaveContactFailed, msgSaveContactFailed, true, err)
		}

		s.LeadID = &leadID
		s.Contact = &contact
		m.advance(ctx, &s, ActionSubmitContact, StateReadyToBook)
		return s, nil
	})
}

// ClickBookNow commits the booking. Every successful response moves the
// session to DONE, whether the outcome was an external redirect or an
// internal pivot. After DONE the stored resolution is returned without a call.
func (m *Machine) ClickBookNow(ctx context.Context, key Key) (Resolution, Session, error) {
	s, err := m.run(ctx, key, ActionClickBookNow, func(ctx context.Context, s Session) (Session, error) {
		if s.State == StateDone && s.Resolution != nil {
			return s, nil
		}
		if s.IntentID == nil {
			return s, m.reject(ctx, ActionClickBookNow, errMissingActiveBooking())
		}

		res, err := m.api.CommitClick(ctx, s.TenantID, s.BotID, *s.IntentID)
		if err != nil {
			if isCanceled(ctx, err) {
				return s, context.Canceled
			}
			return s, remoteFailure(CodeBookingProcessingFailed, msgBookingProcessingFailed, false, err)
		}

		s.Resolution = &res
		m.advance(ctx, &s, ActionClickBookNow, StateDone)
		return s, nil
	})
	if err != nil || s.Resolution == nil {
		return Resolution{}, s, err
	}
	return *s.Resolution, s, nil
}

// AbandonBooking notifies the intent service in the background. It never
// changes the session and never reports failure.
func (m *Machine) AbandonBooking(ctx context.Context, key Key) {
	s, err := m.Get(ctx, key)
	if err != nil || s.IntentID == nil || s.State == StateDone {
		return
	}

	intentID := *s.IntentID
	detached := context.WithoutCancel(ctx)
	m.background.Add(1)
	go func() {
		defer m.background.Done()
		callCtx, cancel := context.WithTimeout(detached, m.abandonTimeout)
		defer cancel()
		if err := m.api.Abandon(callCtx, s.TenantID, s.BotID, intentID); err != nil {
			m.log.WithContext(detached).Debug("abandon notification failed",
				"session", key.String(), "intentId", intentID, "error", err)
		}
	}()
}

// Reset clears the selection, intent, lead and error, returns the session
// to IDLE and loads the configuration again.
func (m *Machine) Reset(ctx context.Context, key Key) (Session, error) {
	return m.run(ctx, key, ActionReset, func(ctx context.Context, s Session) (Session, error) {
		from := s.State
		fresh := New(key)
		fresh.Config = s.Config
		m.log.WithContext(ctx).BookingTransition(key.String(), ActionReset, string(from), string(fresh.State))

		// The reset holds even when the reload is canceled.
		if err := m.save(ctx, fresh); err != nil {
			return s, err
		}
		reloaded, err := m.loadConfig(ctx, fresh)
		if err != nil {
			return fresh, err
		}
		return reloaded, nil
	})
}

// run executes one action for one session. Concurrent calls of the same
// action on the same session share a single execution; a duplicate running
// on another instance is rejected through the store lock.
func (m *Machine) run(ctx context.Context, key Key, action string, fn func(context.Context, Session) (Session, error)) (Session, error) {
	if !key.Valid() {
		return Session{}, apperr.BadRequest("tenant, bot and session are required")
	}
	if err := ctx.Err(); err != nil {
		return Session{}, context.Canceled
	}

	flightKey := key.String() + "|" + action
	ch := m.flight.DoChan(flightKey, func() (interface{}, error) {
		return m.execute(ctx, key, action, fn)
	})

	select {
	case res := <-ch:
		s, _ := res.Val.(Session)
		if res.Shared {
			m.log.WithContext(ctx).Debug("joined in-flight booking action", "session", key.String(), "action", action)
		}
		return s, res.Err
	case <-ctx.Done():
		return Session{}, context.Canceled
	}
}

func (m *Machine) execute(ctx context.Context, key Key, action string, fn func(context.Context, Session) (Session, error)) (Session, error) {
	release, ok, err := m.store.Acquire(ctx, "lock:"+key.String()+":"+action)
	if err != nil {
		if isCanceled(ctx, err) {
			return Session{}, context.Canceled
		}
		return Session{}, apperr.Wrap(apperr.KindUnavailable, "session storage unavailable", err)
	}
	if !ok {
		metrics.Inc(ctx, m.guardCounter(), "action", action, "code", CodeActionInFlight)
		return Session{}, errActionInFlight()
	}
	defer release()

	current, err := m.Get(ctx, key)
	if err != nil {
		return Session{}, err
	}

	next, err := fn(ctx, current)
	if err != nil {
		if isCanceled(ctx, err) {
			// Nothing happened as far as the session is concerned.
			return current, context.Canceled
		}
		m.log.WithContext(ctx).BookingActionFailed(key.String(), action, apperr.GetCode(err), err)
		failed := current
		failed.Error = toActionError(err)
		if saveErr := m.save(ctx, failed); saveErr != nil {
			return current, saveErr
		}
		return failed, err
	}

	// A caller that left during the round trip sees no change. Reset has
	// already stored the cleared session and keeps it.
	if ctx.Err() != nil && action != ActionReset {
		return current, context.Canceled
	}

	next.Error = nil
	if err := m.save(ctx, next); err != nil {
		return current, err
	}
	return next, nil
}

func (m *Machine) save(ctx context.Context, s Session) error {
	s.UpdatedAt = m.now().UTC()
	if err := m.store.Save(context.WithoutCancel(ctx), s); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "session storage unavailable", err)
	}
	return nil
}

// advance moves s forward. Moving backwards is a programming error; only
// Reset returns a session to IDLE.
func (m *Machine) advance(ctx context.Context, s *Session, action string, to State) {
	if to.Before(s.State) {
		panic(fmt.Sprintf("booking session %s: %s cannot move from %s back to %s", s.Key(), action, s.State, to))
	}
	if s.State != to {
		m.log.WithContext(ctx).BookingTransition(s.Key().String(), action, string(s.State), string(to))
	}
	s.State = to
}

func (m *Machine) reject(ctx context.Context, action string, err *apperr.Error) error {
	metrics.Inc(ctx, m.guardCounter(), "action", action, "code", err.Code)
	return err
}

func (m *Machine) guardCounter() metric.Int64Counter {
	if m.metrics == nil {
		return nil
	}
	return m.metrics.GuardRejected
}
