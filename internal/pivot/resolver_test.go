package pivot

import (
	"context"
	"testing"

	"booking_engine/internal/profiles/catalog"
	"booking_engine/platform/logger"
	"booking_engine/platform/metrics"
)

func strPtr(s string) *string { return &s }

func newResolver() *Resolver {
	return New(logger.Nop(), metrics.MustNewBooking())
}

func barberProfile(t *testing.T) catalog.BookingProfile {
	t.Helper()
	p := catalog.ProfileForBusinessType("barber")
	if p.Key != "barber" {
		t.Fatalf("expected barber profile, got %q", p.Key)
	}
	return p
}

func TestResolveInternalAlwaysSucceeds(t *testing.T) {
	p := barberProfile(t)
	callback, _ := p.AppointmentType("callback_request")

	res := newResolver().Resolve(context.Background(), Request{
		Profile:     p,
		Selected:    callback,
		ExternalURL: strPtr("javascript:alert(1)"),
	})
	if res.RedirectType != RedirectDemo || res.Pivoted || res.URL != "" {
		t.Fatalf("unexpected resolution %+v", res)
	}
	if res.Target == nil || res.Target.ID != "callback_request" {
		t.Fatalf("expected internal target to be the selected type, got %+v", res.Target)
	}
}

func TestResolveExternalWithValidURL(t *testing.T) {
	p := barberProfile(t)
	haircut, _ := p.AppointmentType("haircut")

	res := newResolver().Resolve(context.Background(), Request{
		Profile:     p,
		Selected:    haircut,
		ExternalURL: strPtr(" https://booking.example.com/schedule "),
	})
	if res.RedirectType != RedirectExternal || res.Pivoted {
		t.Fatalf("expected external redirect, got %+v", res)
	}
	if res.URL != "https://booking.example.com/schedule" {
		t.Fatalf("unexpected url %q", res.URL)
	}
}

func TestResolveExternalUsesTypeURLWhenNoOverride(t *testing.T) {
	p := barberProfile(t)
	haircut, _ := p.AppointmentType("haircut")
	haircut.ExternalURL = strPtr("https://cuts.example.com/book")

	res := newResolver().Resolve(context.Background(), Request{Profile: p, Selected: haircut})
	if res.RedirectType != RedirectExternal || res.URL != "https://cuts.example.com/book" {
		t.Fatalf("expected type URL to be used, got %+v", res)
	}
}

func TestResolvePivotsOnInvalidOrMissingURL(t *testing.T) {
	p := barberProfile(t)
	haircut, _ := p.AppointmentType("haircut")

	tests := []struct {
		name       string
		url        *string
		wantReason string
	}{
		{"missing", nil, ReasonMissingURL},
		{"empty", strPtr(""), ReasonMissingURL},
		{"http", strPtr("http://booking.example.com"), ReasonUnsafeURL},
		{"javascript", strPtr("javascript:alert(1)"), ReasonUnsafeURL},
		{"data", strPtr("data:text/html,<script>alert(1)</script>"), ReasonUnsafeURL},
		{"degenerate host", strPtr("https://ab"), ReasonUnsafeURL},
		{"whitespace", strPtr("   "), ReasonUnsafeURL},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := newResolver().Resolve(context.Background(), Request{Profile: p, Selected: haircut, ExternalURL: tc.url})
			if res.RedirectType != RedirectDemo || !res.Pivoted {
				t.Fatalf("expected pivot, got %+v", res)
			}
			if res.URL != "" {
				t.Fatalf("pivot must never return a url, got %q", res.URL)
			}
			if res.Reason != tc.wantReason {
				t.Fatalf("reason = %q, want %q", res.Reason, tc.wantReason)
			}
			if res.Target == nil || res.Target.ID != p.Failsafe.PivotAppointmentTypeID {
				t.Fatalf("expected pivot target %q, got %+v", p.Failsafe.PivotAppointmentTypeID, res.Target)
			}
			if res.Target.Mode != catalog.ModeInternal {
				t.Fatalf("pivot target must be internal")
			}
		})
	}
}

func TestResolvePivotWithoutConfiguredTarget(t *testing.T) {
	p := barberProfile(t)
	p.Failsafe = catalog.FailsafeConfig{}
	haircut, _ := p.AppointmentType("haircut")

	res := New(nil, nil).Resolve(context.Background(), Request{Profile: p, Selected: haircut})
	if res.RedirectType != RedirectDemo || !res.Pivoted || res.Target != nil || res.URL != "" {
		t.Fatalf("expected degraded demo resolution without target, got %+v", res)
	}
}
