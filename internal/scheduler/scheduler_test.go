package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"booking_engine/platform/logger"
)

type recordingSweeper struct {
	calls    int
	tenantID uuid.UUID
	botID    string
	intentID uuid.UUID
	err      error
}

func (s *recordingSweeper) SweepAbandoned(_ context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID) error {
	s.calls++
	s.tenantID = tenantID
	s.botID = botID
	s.intentID = intentID
	return s.err
}

func TestAbandonSweepTaskRoundTrip(t *testing.T) {
	tenantID := uuid.New()
	intentID := uuid.New()

	task, err := NewIntentAbandonSweepTask(IntentAbandonSweepPayload{
		TenantID: tenantID.String(),
		BotID:    "bot-1",
		IntentID: intentID.String(),
	})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TaskIntentAbandonSweep {
		t.Fatalf("expected task type %q, got %q", TaskIntentAbandonSweep, task.Type())
	}

	payload, err := ParseIntentAbandonSweepPayload(task)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if payload.TenantID != tenantID.String() || payload.IntentID != intentID.String() || payload.BotID != "bot-1" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestWorkerDispatchesSweep(t *testing.T) {
	sweeper := &recordingSweeper{}
	w := &Worker{sweeper: sweeper, log: logger.New("test")}

	tenantID := uuid.New()
	intentID := uuid.New()
	task, err := NewIntentAbandonSweepTask(IntentAbandonSweepPayload{
		TenantID: tenantID.String(),
		BotID:    "bot-1",
		IntentID: intentID.String(),
	})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}

	if err := w.handleIntentAbandonSweep(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sweeper.calls != 1 || sweeper.tenantID != tenantID || sweeper.intentID != intentID || sweeper.botID != "bot-1" {
		t.Fatalf("unexpected sweep call %+v", sweeper)
	}
}

func TestWorkerSkipsRetryOnMalformedPayload(t *testing.T) {
	cases := map[string]*asynq.Task{
		"not json":    asynq.NewTask(TaskIntentAbandonSweep, []byte("{")),
		"missing bot": asynq.NewTask(TaskIntentAbandonSweep, []byte(`{"tenantId":"`+uuid.NewString()+`","intentId":"`+uuid.NewString()+`"}`)),
		"bad tenant":  asynq.NewTask(TaskIntentAbandonSweep, []byte(`{"tenantId":"x","botId":"b","intentId":"`+uuid.NewString()+`"}`)),
		"bad intent":  asynq.NewTask(TaskIntentAbandonSweep, []byte(`{"tenantId":"`+uuid.NewString()+`","botId":"b","intentId":"x"}`)),
	}

	for name, task := range cases {
		t.Run(name, func(t *testing.T) {
			sweeper := &recordingSweeper{}
			w := &Worker{sweeper: sweeper, log: logger.New("test")}

			err := w.handleIntentAbandonSweep(context.Background(), task)
			if !errors.Is(err, asynq.SkipRetry) {
				t.Fatalf("expected SkipRetry, got %v", err)
			}
			if sweeper.calls != 0 {
				t.Fatalf("sweeper must not run for malformed payloads")
			}
		})
	}
}

func TestWorkerPropagatesSweepError(t *testing.T) {
	boom := errors.New("db down")
	sweeper := &recordingSweeper{err: boom}
	w := &Worker{sweeper: sweeper, log: logger.New("test")}

	task, _ := NewIntentAbandonSweepTask(IntentAbandonSweepPayload{
		TenantID: uuid.NewString(),
		BotID:    "bot-1",
		IntentID: uuid.NewString(),
	})
	if err := w.handleIntentAbandonSweep(context.Background(), task); !errors.Is(err, boom) {
		t.Fatalf("expected sweep error, got %v", err)
	}
}
