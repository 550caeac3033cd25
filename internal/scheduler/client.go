package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"booking_engine/platform/config"
	"booking_engine/platform/redisclient"
)

// Client enqueues delayed tasks. It satisfies the intents AbandonScheduler.
type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleAbandonSweep enqueues the abandon sweep of an intent to run after
// the given delay. Sweeps are idempotent, so overlapping ones are harmless.
func (c *Client) ScheduleAbandonSweep(ctx context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID, after time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewIntentAbandonSweepTask(IntentAbandonSweepPayload{
		TenantID: tenantID.String(),
		BotID:    botID,
		IntentID: intentID.String(),
	})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessIn(after),
		asynq.Queue(c.queue),
		asynq.MaxRetry(3),
	)
	return err
}

func queueName(cfg config.SchedulerConfig) string {
	if queue := cfg.GetAsynqQueueName(); queue != "" {
		return queue
	}
	return "default"
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redisclient.Options(redisURL, tlsInsecure)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
