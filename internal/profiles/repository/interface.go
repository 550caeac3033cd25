package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"booking_engine/internal/profiles/catalog"
)

// StoredProfile is an administrator override of a built-in profile.
type StoredProfile struct {
	Key       string
	Profile   catalog.BookingProfile
	Aliases   []string
	UpdatedBy *uuid.UUID
	UpdatedAt time.Time
}

// Repository persists profile overrides.
type Repository interface {
	List(ctx context.Context) ([]StoredProfile, error)
	Upsert(ctx context.Context, p StoredProfile) (StoredProfile, error)
}
