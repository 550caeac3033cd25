package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"booking_engine/internal/intents/repository"
	"booking_engine/platform/apperr"
)

type fakeRepo struct {
	mu      sync.Mutex
	configs map[string]repository.Config
	intents map[uuid.UUID]repository.Intent
	leads   map[uuid.UUID]repository.Lead
	commits int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		configs: make(map[string]repository.Config),
		intents: make(map[uuid.UUID]repository.Intent),
		leads:   make(map[uuid.UUID]repository.Lead),
	}
}

func configKey(tenantID uuid.UUID, botID string) string {
	return tenantID.String() + "/" + botID
}

func (r *fakeRepo) putConfig(cfg repository.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[configKey(cfg.TenantID, cfg.BotID)] = cfg
}

func (r *fakeRepo) GetConfig(_ context.Context, tenantID uuid.UUID, botID string) (repository.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[configKey(tenantID, botID)]
	if !ok {
		return repository.Config{}, apperr.NotFound("booking configuration not found")
	}
	return cfg, nil
}

func (r *fakeRepo) CreateIntent(_ context.Context, p repository.CreateIntentParams) (repository.Intent, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.intents {
		if it.Status == repository.StatusPending && it.TenantID == p.TenantID && it.BotID == p.BotID &&
			it.SessionID == p.SessionID && it.ServiceID == p.ServiceID {
			return it, false, nil
		}
	}
	now := time.Now()
	it := repository.Intent{
		ID:           uuid.New(),
		TenantID:     p.TenantID,
		BotID:        p.BotID,
		SessionID:    p.SessionID,
		ServiceID:    p.ServiceID,
		ServiceName:  p.ServiceName,
		PriceCents:   p.PriceCents,
		DurationMins: p.DurationMins,
		Status:       repository.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.intents[it.ID] = it
	return it, true, nil
}

func (r *fakeRepo) GetIntent(_ context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID) (repository.Intent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.intents[intentID]
	if !ok || it.TenantID != tenantID || it.BotID != botID {
		return repository.Intent{}, apperr.NotFound("booking intent not found")
	}
	return it, nil
}

func (r *fakeRepo) MarkCommitted(_ context.Context, tenantID, intentID uuid.UUID, redirectType, redirectURL string) (repository.Intent, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.intents[intentID]
	if !ok || it.TenantID != tenantID {
		return repository.Intent{}, false, apperr.NotFound("booking intent not found")
	}
	if it.Status == repository.StatusCommitted {
		return it, false, nil
	}
	r.commits++
	it.Status = repository.StatusCommitted
	it.RedirectType = &redirectType
	it.RedirectURL = &redirectURL
	it.UpdatedAt = time.Now()
	r.intents[intentID] = it
	return it, true, nil
}

func (r *fakeRepo) MarkAbandoned(_ context.Context, tenantID, intentID uuid.UUID, staleBefore *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.intents[intentID]
	if !ok || it.TenantID != tenantID || !it.IsOpen() {
		return false, nil
	}
	if staleBefore != nil && it.UpdatedAt.After(*staleBefore) {
		return false, nil
	}
	it.Status = repository.StatusAbandoned
	r.intents[intentID] = it
	return true, nil
}

func (r *fakeRepo) UpsertLead(_ context.Context, p repository.UpsertLeadParams) (repository.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.leads[p.IntentID]
	if !ok {
		lead = repository.Lead{ID: uuid.New(), IntentID: p.IntentID, TenantID: p.TenantID, CreatedAt: time.Now()}
	}
	lead.Name = p.Name
	lead.Phone = p.Phone
	lead.Email = p.Email
	lead.UpdatedAt = time.Now()
	r.leads[p.IntentID] = lead

	it := r.intents[p.IntentID]
	if it.Status != repository.StatusCommitted {
		it.Status = repository.StatusLeadCaptured
		r.intents[p.IntentID] = it
	}
	return lead, nil
}

func (r *fakeRepo) setUpdatedAt(intentID uuid.UUID, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it := r.intents[intentID]
	it.UpdatedAt = at
	r.intents[intentID] = it
}

func (r *fakeRepo) intent(intentID uuid.UUID) repository.Intent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.intents[intentID]
}
