package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"booking_engine/internal/events"
	"booking_engine/internal/profiles/catalog"
	"booking_engine/internal/profiles/repository"
	"booking_engine/internal/profiles/transport"
	"booking_engine/platform/apperr"
	"booking_engine/platform/logger"
)

const (
	codeInvalidProfile = "invalid_profile"
	codeKeyMismatch    = "profile_key_mismatch"

	msgForbidden      = "not allowed to manage booking profiles"
	msgInvalidProfile = "booking profile failed validation"
	msgKeyMismatch    = "profile key does not match the request path"
)

// Archiver keeps a copy of every published catalog.
type Archiver interface {
	Archive(ctx context.Context, c *catalog.Catalog, changedKey string) (string, error)
}

// Service serves and updates the live booking profile catalog.
type Service struct {
	repo     repository.Repository
	store    *catalog.Store
	base     *catalog.Catalog
	policy   AccessPolicy
	archiver Archiver
	bus      events.Bus
	log      *logger.Logger

	writeMu    sync.Mutex
	overridden map[string]time.Time
}

// New creates a profile service. base is the catalog that stored overrides
// are applied on top of; store serves the live result.
func New(repo repository.Repository, store *catalog.Store, base *catalog.Catalog, policy AccessPolicy, bus events.Bus, log *logger.Logger) *Service {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Service{
		repo:       repo,
		store:      store,
		base:       base,
		policy:     policy,
		bus:        bus,
		log:        log,
		overridden: make(map[string]time.Time),
	}
}

// SetArchiver enables catalog snapshots. Without one, updates are not archived.
func (s *Service) SetArchiver(a Archiver) {
	s.archiver = a
}

// Reload rebuilds the live catalog from the base catalog and the stored
// overrides. An override that would make the catalog invalid is skipped.
func (s *Service) Reload(ctx context.Context) error {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.base
	overridden := make(map[string]time.Time, len(stored))
	for _, p := range stored {
		next, err := current.WithProfile(p.Profile, p.Aliases...)
		if err != nil {
			s.log.WithContext(ctx).Warn("skipping invalid stored booking profile", "key", p.Key, "error", err)
			continue
		}
		current = next
		overridden[p.Key] = p.UpdatedAt
	}

	s.store.Swap(current)
	s.overridden = overridden
	s.log.WithContext(ctx).Info("booking profile catalog loaded", "profiles", len(current.Keys()), "overrides", len(overridden))
	return nil
}

// Get resolves the profile served for businessType.
func (s *Service) Get(_ context.Context, actor Actor, businessType string) (transport.ProfileResponse, error) {
	if !s.policy.CanRead(actor) {
		return transport.ProfileResponse{}, apperr.Forbidden(msgForbidden)
	}

	c := s.store.Current()
	_, found := c.Resolve(businessType)
	profile := c.ProfileFor(businessType)
	return transport.ProfileResponse{
		BusinessType: businessType,
		Key:          profile.Key,
		Fallback:     !found,
		Aliases:      c.AliasesFor(profile.Key),
		Profile:      profile,
	}, nil
}

// List returns a summary of every live profile.
func (s *Service) List(_ context.Context, actor Actor) ([]transport.ProfileSummary, error) {
	if !s.policy.CanWrite(actor) {
		return nil, apperr.Forbidden(msgForbidden)
	}

	s.writeMu.Lock()
	overridden := make(map[string]time.Time, len(s.overridden))
	for k, v := range s.overridden {
		overridden[k] = v
	}
	s.writeMu.Unlock()

	c := s.store.Current()
	out := make([]transport.ProfileSummary, 0, len(c.Keys()))
	for _, p := range c.Profiles() {
		summary := transport.ProfileSummary{
			Key:                  p.Key,
			DisplayName:          p.DisplayName,
			DefaultMode:          p.DefaultMode,
			AppointmentTypeCount: len(p.AppointmentTypes),
			Aliases:              c.AliasesFor(p.Key),
		}
		if at, ok := overridden[p.Key]; ok {
			updated := at
			summary.Overridden = true
			summary.UpdatedAt = &updated
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Validate runs every profile check on req without storing it, and checks
// that the live catalog would stay valid with it.
func (s *Service) Validate(_ context.Context, actor Actor, req transport.ProfileRequest) (transport.ValidationResponse, error) {
	if !s.policy.CanWrite(actor) {
		return transport.ValidationResponse{}, apperr.Forbidden(msgForbidden)
	}
	profile := normalizeProfile(req.Profile)
	resp, _ := s.check(profile, req.Aliases)
	return resp, nil
}

// Put validates and publishes a profile. A profile that fails any check
// never reaches the live catalog.
func (s *Service) Put(ctx context.Context, actor Actor, key string, req transport.ProfileRequest) (transport.UpsertResponse, error) {
	if !s.policy.CanWrite(actor) {
		return transport.UpsertResponse{}, apperr.Forbidden(msgForbidden)
	}

	key = catalog.Normalize(key)
	profile := normalizeProfile(req.Profile)
	if profile.Key == "" {
		profile.Key = key
	}
	if profile.Key != key {
		return transport.UpsertResponse{}, apperr.Validation(msgKeyMismatch).WithCode(codeKeyMismatch)
	}
	aliases := normalizeAliases(req.Aliases)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	report, next := s.check(profile, aliases)
	if !report.Valid {
		return transport.UpsertResponse{}, apperr.Validation(msgInvalidProfile).
			WithCode(codeInvalidProfile).
			WithDetails(report)
	}

	updatedBy := actor.UserID
	stored, err := s.repo.Upsert(ctx, repository.StoredProfile{
		Key:       profile.Key,
		Profile:   profile,
		Aliases:   aliases,
		UpdatedBy: &updatedBy,
	})
	if err != nil {
		return transport.UpsertResponse{}, err
	}

	s.store.Swap(next)
	s.overridden[profile.Key] = stored.UpdatedAt
	s.log.WithContext(ctx).Info("booking profile published", "key", profile.Key, "updatedBy", updatedBy)

	snapshotKey := s.archive(ctx, next, profile.Key)
	if s.bus != nil {
		s.bus.Publish(ctx, events.CatalogUpdated{
			BaseEvent:   events.NewBaseEvent(),
			ProfileKey:  profile.Key,
			UpdatedBy:   &updatedBy,
			TenantID:    actor.TenantID,
			SnapshotKey: snapshotKey,
		})
	}

	return transport.UpsertResponse{
		Profile: transport.ProfileResponse{
			BusinessType: profile.Key,
			Key:          profile.Key,
			Aliases:      next.AliasesFor(profile.Key),
			Profile:      next.ProfileFor(profile.Key),
		},
		SnapshotKey: snapshotKey,
	}, nil
}

// check validates profile on its own and as part of the live catalog.
func (s *Service) check(profile catalog.BookingProfile, aliases []string) (transport.ValidationResponse, *catalog.Catalog) {
	result := catalog.Validate(profile)
	resp := transport.ValidationResponse{
		Valid:         result.Valid,
		Profile:       result,
		CatalogErrors: []string{},
	}
	if !result.Valid {
		return resp, nil
	}

	next, err := s.store.Current().WithProfile(profile, aliases...)
	if err != nil {
		resp.Valid = false
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			resp.CatalogErrors = append(resp.CatalogErrors, verr.Report.Errors...)
			for _, key := range verr.Report.InvalidKeys() {
				for _, msg := range verr.Report.Profiles[key].Errors {
					resp.CatalogErrors = append(resp.CatalogErrors, key+": "+msg)
				}
			}
		} else {
			resp.CatalogErrors = append(resp.CatalogErrors, err.Error())
		}
		return resp, nil
	}
	return resp, next
}

func (s *Service) archive(ctx context.Context, c *catalog.Catalog, key string) string {
	if s.archiver == nil {
		return ""
	}
	snapshotKey, err := s.archiver.Archive(ctx, c, key)
	if err != nil {
		s.log.WithContext(ctx).Error("booking catalog snapshot failed", "key", key, "error", err)
		return ""
	}
	return snapshotKey
}

func normalizeProfile(p catalog.BookingProfile) catalog.BookingProfile {
	p = p.Clone()
	p.Key = catalog.Normalize(p.Key)
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	return p
}

func normalizeAliases(aliases []string) []string {
	seen := make(map[string]struct{}, len(aliases))
	out := make([]string, 0, len(aliases))
	for _, a := range aliases {
		n := catalog.Normalize(a)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
