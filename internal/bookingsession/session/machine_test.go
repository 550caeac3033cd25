package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"booking_engine/platform/apperr"
	"booking_engine/platform/logger"
)

type fakeAPI struct {
	mu sync.Mutex

	config    Config
	configErr error

	startErr   error
	attachErr  error
	commitErr  error
	abandonErr error
	resolution Resolution

	// block, when set, holds the call for blockOn (SelectService by default)
	// until it is closed or ctx ends. ignoreCancel keeps holding past ctx.
	block        chan struct{}
	entered      chan struct{}
	blockOn      string
	ignoreCancel bool

	configCalls  atomic.Int32
	startCalls   atomic.Int32
	attachCalls  atomic.Int32
	commitCalls  atomic.Int32
	abandonCalls atomic.Int32
}

func (f *fakeAPI) GetConfig(ctx context.Context, _ uuid.UUID, _ string) (Config, error) {
	f.configCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.config, f.configErr
}

func (f *fakeAPI) hold(ctx context.Context, action string) error {
	on := f.blockOn
	if on == "" {
		on = ActionSelectService
	}
	if f.block == nil || on != action {
		return nil
	}
	if f.entered != nil {
		close(f.entered)
	}
	if f.ignoreCancel {
		<-f.block
		return nil
	}
	select {
	case <-f.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeAPI) StartIntent(ctx context.Context, _ StartIntentInput) (uuid.UUID, error) {
	f.startCalls.Add(1)
	if err := f.hold(ctx, ActionSelectService); err != nil {
		return uuid.Nil, err
	}
	if f.startErr != nil {
		return uuid.Nil, f.startErr
	}
	return uuid.New(), nil
}

func (f *fakeAPI) AttachLead(ctx context.Context, _ uuid.UUID, _ string, _ uuid.UUID, _ Contact) (uuid.UUID, error) {
	f.attachCalls.Add(1)
	if err := f.hold(ctx, ActionSubmitContact); err != nil {
		return uuid.Nil, err
	}
	if f.attachErr != nil {
		return uuid.Nil, f.attachErr
	}
	return uuid.New(), nil
}

func (f *fakeAPI) CommitClick(ctx context.Context, _ uuid.UUID, _ string, _ uuid.UUID) (Resolution, error) {
	f.commitCalls.Add(1)
	if err := f.hold(ctx, ActionClickBookNow); err != nil {
		return Resolution{}, err
	}
	if f.commitErr != nil {
		return Resolution{}, f.commitErr
	}
	return f.resolution, nil
}

func (f *fakeAPI) Abandon(_ context.Context, _ uuid.UUID, _ string, _ uuid.UUID) error {
	f.abandonCalls.Add(1)
	return f.abandonErr
}

func bookableConfig() Config {
	price := int64(2500)
	return Config{
		Enabled: true,
		Services: []Service{
			{ID: "haircut", Name: "Haircut", AppointmentTypeID: "haircut", PriceCents: &price},
			{ID: "beard", Name: "Beard trim", AppointmentTypeID: "beard_trim"},
		},
	}
}

func newTestMachine(api *fakeAPI) (*Machine, *MemoryStore, Key) {
	store := NewMemoryStore()
	m := NewMachine(api, store, logger.Nop(), nil)
	key := Key{TenantID: uuid.New(), BotID: "web", SessionID: uuid.NewString()}
	return m, store, key
}

func stored(t *testing.T, store *MemoryStore, key Key) Session {
	t.Helper()
	s, ok, err := store.Load(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("expected stored session, ok=%v err=%v", ok, err)
	}
	return s
}

func TestHappyPathReachesDone(t *testing.T) {
	api := &fakeAPI{config: bookableConfig(), resolution: Resolution{RedirectType: "external", URL: "https://booking.example.com/schedule"}}
	m, _, key := newTestMachine(api)
	ctx := context.Background()

	s, err := m.LoadConfig(ctx, key)
	if err != nil || s.State != StateSelectService {
		t.Fatalf("LoadConfig: state=%s err=%v", s.State, err)
	}

	s, err = m.SelectService(ctx, key, Service{ID: "haircut"})
	if err != nil || s.State != StateCollectContact || s.IntentID == nil {
		t.Fatalf("SelectService: state=%s intent=%v err=%v", s.State, s.IntentID, err)
	}
	if s.SelectedService == nil || s.SelectedService.Name != "Haircut" {
		t.Fatalf("expected configured service to be selected, got %+v", s.SelectedService)
	}

	s, err = m.SubmitContact(ctx, key, Contact{Name: "Jane"})
	if err != nil || s.State != StateReadyToBook || s.LeadID == nil {
		t.Fatalf("SubmitContact: state=%s lead=%v err=%v", s.State, s.LeadID, err)
	}

	res, s, err := m.ClickBookNow(ctx, key)
	if err != nil || s.State != StateDone {
		t.Fatalf("ClickBookNow: state=%s err=%v", s.State, err)
	}
	if res.URL != "https://booking.example.com/schedule" || res.IsDemoMode {
		t.Fatalf("unexpected resolution %+v", res)
	}
}

func TestClickBookNowReachesDoneOnPivot(t *testing.T) {
	api := &fakeAPI{config: bookableConfig(), resolution: Resolution{RedirectType: "demo", URL: "https://app.example.com/booking/confirmation", IsDemoMode: true}}
	m, _, key := newTestMachine(api)
	ctx := context.Background()

	if _, err := m.LoadConfig(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, err := m.SelectService(ctx, key, Service{ID: "haircut"}); err != nil {
		t.Fatal(err)
	}

	// Committing straight from COLLECT_CONTACT is allowed once an intent exists.
	res, s, err := m.ClickBookNow(ctx, key)
	if err != nil || s.State != StateDone || !res.IsDemoMode {
		t.Fatalf("expected DONE with demo resolution, got state=%s res=%+v err=%v", s.State, res, err)
	}
}

func TestClickBookNowAfterDoneIsIdempotent(t *testing.T) {
	api := &fakeAPI{config: bookableConfig(), resolution: Resolution{RedirectType: "external", URL: "https://booking.example.com/a"}}
	m, _, key := newTestMachine(api)
	ctx := context.Background()

	_, _ = m.LoadConfig(ctx, key)
	_, _ = m.SelectService(ctx, key, Service{ID: "haircut"})
	first, _, err := m.ClickBookNow(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	second, s, err := m.ClickBookNow(ctx, key)
	if err != nil || s.State != StateDone {
		t.Fatalf("second click: state=%s err=%v", s.State, err)
	}
	if first != second {
		t.Fatalf("expected stored resolution, got %+v then %+v", first, second)
	}
	if got := api.commitCalls.Load(); got != 1 {
		t.Fatalf("expected one commit call, got %d", got)
	}
}

func TestLoadConfigFailureUsesSafeDefault(t *testing.T) {
	api := &fakeAPI{configErr: errors.New("upstream down")}
	m, _, key := newTestMachine(api)

	s, err := m.LoadConfig(context.Background(), key)
	if err != nil {
		t.Fatalf("configuration failure must not be fatal: %v", err)
	}
	if s.State != StateIdle {
		t.Fatalf("expected IDLE, got %s", s.State)
	}
	if s.Config == nil || s.Config.Enabled || !s.Config.DemoMode || len(s.Config.Services) != 0 {
		t.Fatalf("expected safe default config, got %+v", s.Config)
	}
	if s.Warning == nil || s.Warning.Code != CodeConfigurationUnavailable || s.Error != nil {
		t.Fatalf("expected soft warning only, got warning=%+v error=%+v", s.Warning, s.Error)
	}
}

func TestLoadConfigWithoutServicesStaysIdle(t *testing.T) {
	api := &fakeAPI{config: Config{Enabled: true}}
	m, _, key := newTestMachine(api)

	s, err := m.LoadConfig(context.Background(), key)
	if err != nil || s.State != StateIdle {
		t.Fatalf("expected IDLE, got state=%s err=%v", s.State, err)
	}
}

func TestSubmitContactWithoutIntentIsGuarded(t *testing.T) {
	api := &fakeAPI{config: bookableConfig()}
	m, store, key := newTestMachine(api)
	ctx := context.Background()
	_, _ = m.LoadConfig(ctx, key)

	_, err := m.SubmitContact(ctx, key, Contact{Name: "Jane"})
	if apperr.GetCode(err) != CodeMissingActiveBooking {
		t.Fatalf("expected %s, got %v", CodeMissingActiveBooking, err)
	}
	if api.attachCalls.Load() != 0 {
		t.Fatalf("guard must not make a network call")
	}
	s := stored(t, store, key)
	if s.State != StateSelectService || s.Error == nil || s.Error.Code != CodeMissingActiveBooking {
		t.Fatalf("expected unchanged state with guard error, got state=%s error=%+v", s.State, s.Error)
	}
}

func TestClickBookNowWithoutIntentIsGuarded(t *testing.T) {
	api := &fakeAPI{}
	m, _, key := newTestMachine(api)

	_, _, err := m.ClickBookNow(context.Background(), key)
	if apperr.GetCode(err) != CodeMissingActiveBooking || api.commitCalls.Load() != 0 {
		t.Fatalf("expected guard error without a call, got %v", err)
	}
}

func TestSelectServiceFailureLeavesStateUntouched(t *testing.T) {
	api := &fakeAPI{config: bookableConfig(), startErr: errors.New("timeout")}
	m, _, key := newTestMachine(api)
	ctx := context.Background()
	_, _ = m.LoadConfig(ctx, key)

	s, err := m.SelectService(ctx, key, Service{ID: "haircut"})
	if apperr.GetCode(err) != CodeStartBookingFailed {
		t.Fatalf("expected %s, got %v", CodeStartBookingFailed, err)
	}
	if s.State != StateSelectService || s.IntentID != nil || s.SelectedService != nil {
		t.Fatalf("expected no partial mutation, got %+v", s)
	}
	if s.Error == nil || !s.Error.Retryable {
		t.Fatalf("expected retryable error, got %+v", s.Error)
	}

	api.startErr = nil
	s, err = m.SelectService(ctx, key, Service{ID: "haircut"})
	if err != nil || s.State != StateCollectContact || s.Error != nil {
		t.Fatalf("retry should succeed and clear the error: state=%s err=%v", s.State, err)
	}
}

func TestSelectServiceRejectsUnknownService(t *testing.T) {
	api := &fakeAPI{config: bookableConfig()}
	m, _, key := newTestMachine(api)
	ctx := context.Background()
	_, _ = m.LoadConfig(ctx, key)

	_, err := m.SelectService(ctx, key, Service{ID: "massage", Name: "Massage"})
	if apperr.GetCode(err) != CodeUnknownService || api.startCalls.Load() != 0 {
		t.Fatalf("expected unknown service without a call, got %v", err)
	}
}

func TestSelectServiceAfterIntentIsInvalid(t *testing.T) {
	api := &fakeAPI{config: bookableConfig()}
	m, _, key := newTestMachine(api)
	ctx := context.Background()
	_, _ = m.LoadConfig(ctx, key)
	_, _ = m.SelectService(ctx, key, Service{ID: "haircut"})

	_, err := m.SelectService(ctx, key, Service{ID: "beard"})
	if apperr.GetCode(err) != CodeInvalidState || api.startCalls.Load() != 1 {
		t.Fatalf("expected one intent per selection, got %v", err)
	}
}

func TestSubmitContactKeepsServerMessage(t *testing.T) {
	api := &fakeAPI{config: bookableConfig(), attachErr: apperr.Validation("please enter a valid phone number")}
	m, _, key := newTestMachine(api)
	ctx := context.Background()
	_, _ = m.LoadConfig(ctx, key)
	_, _ = m.SelectService(ctx, key, Service{ID: "haircut"})

	s, err := m.SubmitContact(ctx, key, Contact{Name: "Jane"})
	if apperr.GetCode(err) != CodeSaveContactFailed {
		t.Fatalf("expected %s, got %v", CodeSaveContactFailed, err)
	}
	if s.Error == nil || s.Error.Message != "please enter a valid phone number" {
		t.Fatalf("expected server message verbatim, got %+v", s.Error)
	}
	if s.State != StateCollectContact || s.LeadID != nil {
		t.Fatalf("expected unchanged state, got %s", s.State)
	}
}

func TestResetClearsAndReloads(t *testing.T) {
	api := &fakeAPI{config: bookableConfig(), resolution: Resolution{RedirectType: "external", URL: "https://booking.example.com/a"}}
	m, _, key := newTestMachine(api)
	ctx := context.Background()
	_, _ = m.LoadConfig(ctx, key)
	_, _ = m.SelectService(ctx, key, Service{ID: "haircut"})
	_, _ = m.SubmitContact(ctx, key, Contact{Name: "Jane"})
	_, _, _ = m.ClickBookNow(ctx, key)

	api.mu.Lock()
	api.config = Config{Enabled: false}
	api.mu.Unlock()

	s, err := m.Reset(ctx, key)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if s.State != StateIdle || s.SelectedService != nil || s.IntentID != nil || s.LeadID != nil || s.Error != nil || s.Resolution != nil {
		t.Fatalf("expected cleared IDLE session, got %+v", s)
	}
	if got := api.configCalls.Load(); got != 2 {
		t.Fatalf("expected a fresh config load, got %d loads", got)
	}
}

func TestResetReloadsIntoServiceSelection(t *testing.T) {
	api := &fakeAPI{config: bookableConfig()}
	m, _, key := newTestMachine(api)
	ctx := context.Background()
	_, _ = m.LoadConfig(ctx, key)
	_, _ = m.SelectService(ctx, key, Service{ID: "haircut"})

	s, err := m.Reset(ctx, key)
	if err != nil || s.State != StateSelectService || s.IntentID != nil {
		t.Fatalf("expected reload to offer services again, got state=%s intent=%v err=%v", s.State, s.IntentID, err)
	}
}

func TestDuplicateSelectServiceRunsOnce(t *testing.T) {
	api := &fakeAPI{config: bookableConfig(), block: make(chan struct{}), entered: make(chan struct{})}
	m, store, key := newTestMachine(api)
	ctx := context.Background()
	_, _ = m.LoadConfig(ctx, key)

	var wg sync.WaitGroup
	results := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, results[0] = m.SelectService(ctx, key, Service{ID: "haircut"})
	}()
	<-api.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, results[1] = m.SelectService(ctx, key, Service{ID: "haircut"})
	}()
	time.Sleep(20 * time.Millisecond)
	close(api.block)
	wg.Wait()

	if got := api.startCalls.Load(); got != 1 {
		t.Fatalf("expected one StartIntent call, got %d", got)
	}
	if results[0] != nil {
		t.Fatalf("first call failed: %v", results[0])
	}
	if s := stored(t, store, key); s.State != StateCollectContact || s.IntentID == nil {
		t.Fatalf("expected a single committed selection, got %+v", s)
	}
}

func TestDuplicateInFlightActionsRunOnce(t *testing.T) {
	tests := []struct {
		name   string
		action string
		call   func(ctx context.Context, m *Machine, key Key) error
		calls  func(api *fakeAPI) int32
		want   State
	}{
		{
			name:   "submit contact",
			action: ActionSubmitContact,
			call: func(ctx context.Context, m *Machine, key Key) error {
				_, err := m.SubmitContact(ctx, key, Contact{Name: "Jane"})
				return err
			},
			calls: func(api *fakeAPI) int32 { return api.attachCalls.Load() },
			want:  StateReadyToBook,
		},
		{
			name:   "click book now",
			action: ActionClickBookNow,
			call: func(ctx context.Context, m *Machine, key Key) error {
				_, _, err := m.ClickBookNow(ctx, key)
				return err
			},
			calls: func(api *fakeAPI) int32 { return api.commitCalls.Load() },
			want:  StateDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{
				config:     bookableConfig(),
				resolution: Resolution{RedirectType: "external", URL: "https://booking.example.com/a"},
				block:      make(chan struct{}),
				entered:    make(chan struct{}),
				blockOn:    tt.action,
			}
			m, store, key := newTestMachine(api)
			ctx := context.Background()
			_, _ = m.LoadConfig(ctx, key)
			if _, err := m.SelectService(ctx, key, Service{ID: "haircut"}); err != nil {
				t.Fatalf("SelectService: %v", err)
			}

			var wg sync.WaitGroup
			results := make([]error, 2)
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[0] = tt.call(ctx, m, key)
			}()
			<-api.entered

			wg.Add(1)
			go func() {
				defer wg.Done()
				results[1] = tt.call(ctx, m, key)
			}()
			time.Sleep(20 * time.Millisecond)
			close(api.block)
			wg.Wait()

			if got := tt.calls(api); got != 1 {
				t.Fatalf("expected one upstream call, got %d", got)
			}
			for i, err := range results {
				if err != nil {
					t.Fatalf("call %d failed: %v", i, err)
				}
			}
			if s := stored(t, store, key); s.State != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, s.State)
			}
		})
	}
}

func TestActionHeldElsewhereIsRejected(t *testing.T) {
	api := &fakeAPI{config: bookableConfig()}
	m, store, key := newTestMachine(api)
	ctx := context.Background()
	_, _ = m.LoadConfig(ctx, key)

	release, ok, err := store.Acquire(ctx, "lock:"+key.String()+":"+ActionSelectService)
	if err != nil || !ok {
		t.Fatalf("Acquire: ok=%v err=%v", ok, err)
	}
	defer release()

	_, err = m.SelectService(ctx, key, Service{ID: "haircut"})
	if apperr.GetCode(err) != CodeActionInFlight || api.startCalls.Load() != 0 {
		t.Fatalf("expected %s without a call, got %v", CodeActionInFlight, err)
	}
}

func TestCanceledActionIsNoOp(t *testing.T) {
	api := &fakeAPI{config: bookableConfig(), block: make(chan struct{}), entered: make(chan struct{})}
	m, store, key := newTestMachine(api)
	_, _ = m.LoadConfig(context.Background(), key)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.SelectService(ctx, key, Service{ID: "haircut"})
		done <- err
	}()
	<-api.entered
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// Wait for the execution to settle before inspecting the store.
	deadline := time.Now().Add(time.Second)
	for {
		if release, held, _ := store.Acquire(context.Background(), "lock:"+key.String()+":"+ActionSelectService); held {
			release()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("action lock was never released")
		}
		time.Sleep(5 * time.Millisecond)
	}

	s := stored(t, store, key)
	if s.State != StateSelectService || s.IntentID != nil || s.Error != nil {
		t.Fatalf("canceled call must not touch the session, got %+v", s)
	}
}

func TestCancelAfterUpstreamSuccessLeavesSessionUntouched(t *testing.T) {
	api := &fakeAPI{config: bookableConfig(), block: make(chan struct{}), entered: make(chan struct{}), ignoreCancel: true}
	m, store, key := newTestMachine(api)
	_, _ = m.LoadConfig(context.Background(), key)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.SelectService(ctx, key, Service{ID: "haircut"})
		done <- err
	}()
	<-api.entered
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// The upstream call completes after the caller has gone.
	close(api.block)
	deadline := time.Now().Add(time.Second)
	for {
		if release, held, _ := store.Acquire(context.Background(), "lock:"+key.String()+":"+ActionSelectService); held {
			release()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("action lock was never released")
		}
		time.Sleep(5 * time.Millisecond)
	}

	s := stored(t, store, key)
	if s.State != StateSelectService || s.IntentID != nil || s.Error != nil {
		t.Fatalf("canceled call must not advance the session, got %+v", s)
	}
}

func TestAbandonBookingNeverChangesState(t *testing.T) {
	api := &fakeAPI{config: bookableConfig(), abandonErr: errors.New("unreachable")}
	m, store, key := newTestMachine(api)
	ctx := context.Background()
	_, _ = m.LoadConfig(ctx, key)
	before, _ := m.SelectService(ctx, key, Service{ID: "haircut"})

	m.AbandonBooking(ctx, key)
	m.Wait()

	if api.abandonCalls.Load() != 1 {
		t.Fatalf("expected one abandon notification")
	}
	after := stored(t, store, key)
	if after.State != before.State || after.Error != nil {
		t.Fatalf("abandon must not change the session, got %+v", after)
	}
}

func TestAbandonWithoutIntentMakesNoCall(t *testing.T) {
	api := &fakeAPI{}
	m, _, key := newTestMachine(api)

	m.AbandonBooking(context.Background(), key)
	m.Wait()

	if api.abandonCalls.Load() != 0 {
		t.Fatalf("expected no abandon call without an intent")
	}
}

func TestInvalidKeyIsRejected(t *testing.T) {
	m, _, _ := newTestMachine(&fakeAPI{})
	if _, err := m.LoadConfig(context.Background(), Key{BotID: "web"}); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request for incomplete key, got %v", err)
	}
}
