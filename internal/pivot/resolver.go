// Package pivot decides where a committed booking actually goes.
//
// The resolver runs once, at the moment a session commits. It never returns
// an unsafe or malformed URL: when an external target cannot be served it
// degrades to the profile's internal pivot target instead of failing.
package pivot

import (
	"context"
	"strings"

	"booking_engine/internal/profiles/catalog"
	"booking_engine/platform/logger"
	"booking_engine/platform/metrics"
	"booking_engine/platform/urlsafe"
)

// RedirectType tells the caller how to finish the booking.
type RedirectType string

const (
	// RedirectExternal sends the user to a third-party booking page.
	RedirectExternal RedirectType = "external"
	// RedirectDemo keeps the user inside the conversation for lead capture.
	RedirectDemo RedirectType = "demo"
)

// Pivot reasons.
const (
	ReasonMissingURL = "missing_url"
	ReasonUnsafeURL  = "unsafe_url"
)

// Request is the input to Resolve.
type Request struct {
	Profile  catalog.BookingProfile
	Selected catalog.AppointmentType
	// ExternalURL overrides Selected.ExternalURL when set (tenant configuration).
	ExternalURL *string
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	RedirectType RedirectType
	// URL is set only for RedirectExternal and is always a validated target.
	URL string
	// Target is the internal appointment type used for RedirectDemo. It is nil
	// only when a pivot was needed and the profile configures no pivot target.
	Target  *catalog.AppointmentType
	Pivoted bool
	Reason  string
}

// IsDemo reports whether the booking is finished inside the conversation.
func (r Resolution) IsDemo() bool {
	return r.RedirectType == RedirectDemo
}

// Resolver implements the failsafe pivot.
type Resolver struct {
	log     *logger.Logger
	metrics *metrics.Booking
}

// New creates a resolver. Both arguments may be nil.
func New(log *logger.Logger, m *metrics.Booking) *Resolver {
	return &Resolver{log: log, metrics: m}
}

// Resolve picks the redirect for req. It performs no network I/O.
func (r *Resolver) Resolve(ctx context.Context, req Request) Resolution {
	selected := req.Selected
	if selected.Mode != catalog.ModeExternal {
		return Resolution{RedirectType: RedirectDemo, Target: &selected}
	}

	target := req.ExternalURL
	if target == nil || *target == "" {
		target = selected.ExternalURL
	}

	if target == nil || *target == "" {
		return r.pivot(ctx, req, ReasonMissingURL)
	}
	// The syntactic check always runs; ValidateBeforeRedirect cannot disable it.
	if !urlsafe.IsValidExternalTargetPtr(target) {
		return r.pivot(ctx, req, ReasonUnsafeURL)
	}

	return Resolution{RedirectType: RedirectExternal, URL: strings.TrimSpace(*target)}
}

func (r *Resolver) pivot(ctx context.Context, req Request, reason string) Resolution {
	res := Resolution{RedirectType: RedirectDemo, Pivoted: true, Reason: reason}

	pivotID := ""
	if t, ok := req.Profile.PivotTarget(); ok && t.Mode == catalog.ModeInternal {
		res.Target = &t
		pivotID = t.ID
	}

	if r.log != nil {
		r.log.WithContext(ctx).PivotTriggered(req.Profile.Key, req.Selected.ID, pivotID, reason)
	}
	if r.metrics != nil {
		metrics.Inc(ctx, r.metrics.PivotCount, "profile", req.Profile.Key, "reason", reason)
	}
	return res
}

