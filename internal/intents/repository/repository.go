package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"booking_engine/platform/apperr"
)

const (
	configNotFoundMessage = "booking configuration not found"
	intentNotFoundMessage = "booking intent not found"
)

const intentColumns = `id, tenant_id, bot_id, session_id, service_id, service_name, price_cents, duration_mins,
		status, redirect_type, redirect_url, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new intents repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetConfig loads a bot's configuration with its active services.
func (r *Repo) GetConfig(ctx context.Context, tenantID uuid.UUID, botID string) (Config, error) {
	query := `
		SELECT tenant_id, bot_id, enabled, demo_mode, business_type, external_booking_url, notify_email
		FROM booking_configs
		WHERE tenant_id = $1 AND bot_id = $2`

	var cfg Config
	err := r.pool.QueryRow(ctx, query, tenantID, botID).Scan(
		&cfg.TenantID, &cfg.BotID, &cfg.Enabled, &cfg.DemoMode, &cfg.BusinessType,
		&cfg.ExternalBookingURL, &cfg.NotifyEmail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Config{}, apperr.NotFound(configNotFoundMessage)
		}
		return Config{}, fmt.Errorf("get booking config: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, appointment_type_id, price_cents, duration_mins, external_url
		FROM booking_services
		WHERE tenant_id = $1 AND bot_id = $2 AND active = true
		ORDER BY sort_order ASC, name ASC`, tenantID, botID)
	if err != nil {
		return Config{}, fmt.Errorf("list booking services: %w", err)
	}
	defer rows.Close()

	cfg.Services = make([]Service, 0)
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Name, &s.AppointmentTypeID, &s.PriceCents, &s.DurationMins, &s.ExternalURL); err != nil {
			return Config{}, fmt.Errorf("scan booking service: %w", err)
		}
		cfg.Services = append(cfg.Services, s)
	}
	if err := rows.Err(); err != nil {
		return Config{}, fmt.Errorf("iterate booking services: %w", err)
	}

	return cfg, nil
}

// CreateIntent inserts a pending intent or returns the open one for the same selection.
func (r *Repo) CreateIntent(ctx context.Context, params CreateIntentParams) (Intent, bool, error) {
	query := `
		INSERT INTO booking_intents (id, tenant_id, bot_id, session_id, service_id, service_name, price_cents, duration_mins)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tenant_id, bot_id, session_id, service_id) WHERE status = 'pending'
		DO UPDATE SET updated_at = now()
		RETURNING ` + intentColumns + `, (xmax = 0) AS inserted`

	var it Intent
	var inserted bool
	err := r.pool.QueryRow(ctx, query,
		uuid.New(), params.TenantID, params.BotID, params.SessionID, params.ServiceID,
		params.ServiceName, params.PriceCents, params.DurationMins,
	).Scan(
		&it.ID, &it.TenantID, &it.BotID, &it.SessionID, &it.ServiceID, &it.ServiceName,
		&it.PriceCents, &it.DurationMins, &it.Status, &it.RedirectType, &it.RedirectURL,
		&it.CreatedAt, &it.UpdatedAt, &inserted,
	)
	if err != nil {
		return Intent{}, false, fmt.Errorf("create booking intent: %w", err)
	}
	return it, inserted, nil
}

// GetIntent retrieves an intent scoped to its tenant and bot.
func (r *Repo) GetIntent(ctx context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID) (Intent, error) {
	query := `SELECT ` + intentColumns + `
		FROM booking_intents
		WHERE id = $1 AND tenant_id = $2 AND bot_id = $3`

	it, err := scanIntent(r.pool.QueryRow(ctx, query, intentID, tenantID, botID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Intent{}, apperr.NotFound(intentNotFoundMessage)
		}
		return Intent{}, fmt.Errorf("get booking intent: %w", err)
	}
	return it, nil
}

// MarkCommitted records the resolved redirect on the intent.
func (r *Repo) MarkCommitted(ctx context.Context, tenantID, intentID uuid.UUID, redirectType, redirectURL string) (Intent, bool, error) {
	query := `
		UPDATE booking_intents
		SET status = 'committed', redirect_type = $3, redirect_url = $4, updated_at = now()
		WHERE id = $1 AND tenant_id = $2 AND status <> 'committed'
		RETURNING ` + intentColumns

	it, err := scanIntent(r.pool.QueryRow(ctx, query, intentID, tenantID, redirectType, redirectURL))
	if err == nil {
		return it, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Intent{}, false, fmt.Errorf("commit booking intent: %w", err)
	}

	// Already committed by an earlier click, or gone.
	it, err = scanIntent(r.pool.QueryRow(ctx,
		`SELECT `+intentColumns+` FROM booking_intents WHERE id = $1 AND tenant_id = $2`, intentID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Intent{}, false, apperr.NotFound(intentNotFoundMessage)
		}
		return Intent{}, false, fmt.Errorf("reload booking intent: %w", err)
	}
	return it, false, nil
}

// MarkAbandoned moves an open intent to abandoned.
func (r *Repo) MarkAbandoned(ctx context.Context, tenantID, intentID uuid.UUID, staleBefore *time.Time) (bool, error) {
	query := `
		UPDATE booking_intents
		SET status = 'abandoned', updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		  AND status IN ('pending', 'lead_captured')
		  AND ($3::timestamptz IS NULL OR updated_at <= $3)`

	tag, err := r.pool.Exec(ctx, query, intentID, tenantID, staleBefore)
	if err != nil {
		return false, fmt.Errorf("abandon booking intent: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertLead attaches or updates the single lead of an intent.
func (r *Repo) UpsertLead(ctx context.Context, params UpsertLeadParams) (Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, fmt.Errorf("begin lead transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var lead Lead
	err = tx.QueryRow(ctx, `
		INSERT INTO booking_leads (id, intent_id, tenant_id, name, phone, email)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (intent_id) DO UPDATE
		SET name = EXCLUDED.name, phone = EXCLUDED.phone, email = EXCLUDED.email, updated_at = now()
		RETURNING id, intent_id, tenant_id, name, phone, email, created_at, updated_at`,
		uuid.New(), params.IntentID, params.TenantID, params.Name, params.Phone, params.Email,
	).Scan(&lead.ID, &lead.IntentID, &lead.TenantID, &lead.Name, &lead.Phone, &lead.Email, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return Lead{}, fmt.Errorf("upsert booking lead: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE booking_intents
		SET status = 'lead_captured', updated_at = now()
		WHERE id = $1 AND tenant_id = $2 AND status IN ('pending', 'lead_captured', 'abandoned')`,
		params.IntentID, params.TenantID,
	); err != nil {
		return Lead{}, fmt.Errorf("mark intent lead captured: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, fmt.Errorf("commit lead transaction: %w", err)
	}
	return lead, nil
}

func scanIntent(row pgx.Row) (Intent, error) {
	var it Intent
	err := row.Scan(
		&it.ID, &it.TenantID, &it.BotID, &it.SessionID, &it.ServiceID, &it.ServiceName,
		&it.PriceCents, &it.DurationMins, &it.Status, &it.RedirectType, &it.RedirectURL,
		&it.CreatedAt, &it.UpdatedAt,
	)
	return it, err
}
