package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const TaskIntentAbandonSweep = "intents.abandon_sweep"

type IntentAbandonSweepPayload struct {
	TenantID string `json:"tenantId"`
	BotID    string `json:"botId"`
	IntentID string `json:"intentId"`
}

func NewIntentAbandonSweepTask(payload IntentAbandonSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIntentAbandonSweep, data), nil
}

func ParseIntentAbandonSweepPayload(task *asynq.Task) (IntentAbandonSweepPayload, error) {
	var payload IntentAbandonSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return IntentAbandonSweepPayload{}, err
	}
	if payload.BotID == "" {
		return IntentAbandonSweepPayload{}, fmt.Errorf("abandon sweep payload: missing bot id")
	}
	return payload, nil
}
