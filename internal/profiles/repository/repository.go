package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new profiles repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// List returns every stored override ordered by key.
func (r *Repo) List(ctx context.Context) ([]StoredProfile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT key, profile, aliases, updated_by, updated_at
		FROM booking_profiles
		ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list booking profiles: %w", err)
	}
	defer rows.Close()

	out := make([]StoredProfile, 0)
	for rows.Next() {
		var (
			p   StoredProfile
			raw []byte
		)
		if err := rows.Scan(&p.Key, &raw, &p.Aliases, &p.UpdatedBy, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan booking profile: %w", err)
		}
		if err := json.Unmarshal(raw, &p.Profile); err != nil {
			return nil, fmt.Errorf("decode booking profile %s: %w", p.Key, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking profiles: %w", err)
	}
	return out, nil
}

// Upsert stores p, replacing any earlier override with the same key.
func (r *Repo) Upsert(ctx context.Context, p StoredProfile) (StoredProfile, error) {
	raw, err := json.Marshal(p.Profile)
	if err != nil {
		return StoredProfile{}, fmt.Errorf("encode booking profile: %w", err)
	}
	aliases := p.Aliases
	if aliases == nil {
		aliases = []string{}
	}

	query := `
		INSERT INTO booking_profiles (key, profile, aliases, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (key) DO UPDATE
		SET profile = EXCLUDED.profile,
			aliases = EXCLUDED.aliases,
			updated_by = EXCLUDED.updated_by,
			updated_at = now()
		RETURNING updated_at`

	if err := r.pool.QueryRow(ctx, query, p.Key, raw, aliases, p.UpdatedBy).Scan(&p.UpdatedAt); err != nil {
		return StoredProfile{}, fmt.Errorf("upsert booking profile: %w", err)
	}
	p.Aliases = aliases
	return p, nil
}
