package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"booking_engine/platform/config"
	"booking_engine/platform/logger"
)

// AbandonSweeper abandons intents whose sweep came due.
// The intents service satisfies it.
type AbandonSweeper interface {
	SweepAbandoned(ctx context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID) error
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	sweeper AbandonSweeper
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sweeper AbandonSweeper, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server:  server,
		mux:     asynq.NewServeMux(),
		sweeper: sweeper,
		log:     log,
	}
	w.mux.HandleFunc(TaskIntentAbandonSweep, w.handleIntentAbandonSweep)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleIntentAbandonSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseIntentAbandonSweepPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return fmt.Errorf("tenant id: %v: %w", err, asynq.SkipRetry)
	}
	intentID, err := uuid.Parse(payload.IntentID)
	if err != nil {
		return fmt.Errorf("intent id: %v: %w", err, asynq.SkipRetry)
	}

	return w.sweeper.SweepAbandoned(ctx, tenantID, payload.BotID, intentID)
}
