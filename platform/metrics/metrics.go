// Package metrics provides OpenTelemetry instruments for the booking engine.
// This is part of the platform layer and contains no business logic.
//
// Instruments are created from the global MeterProvider. Until a provider is
// installed they are no-ops, so callers never need to guard against nil.
package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "booking_engine"

// Booking holds the booking funnel instruments.
type Booking struct {
	PivotCount    metric.Int64Counter
	CommitCount   metric.Int64Counter
	IntentCount   metric.Int64Counter
	LeadCount     metric.Int64Counter
	AbandonCount  metric.Int64Counter
	GuardRejected metric.Int64Counter
}

// NewBooking creates the booking instruments on the global meter.
func NewBooking() (*Booking, error) {
	meter := otel.Meter(instrumentationName)

	pivotCount, err := meter.Int64Counter(
		"booking.pivot.count",
		metric.WithDescription("External bookings degraded to internal lead capture"),
	)
	if err != nil {
		return nil, err
	}

	commitCount, err := meter.Int64Counter(
		"booking.commit.count",
		metric.WithDescription("Book-now commits by redirect type"),
	)
	if err != nil {
		return nil, err
	}

	intentCount, err := meter.Int64Counter(
		"booking.intent.count",
		metric.WithDescription("Booking intents started"),
	)
	if err != nil {
		return nil, err
	}

	leadCount, err := meter.Int64Counter(
		"booking.lead.count",
		metric.WithDescription("Leads attached to booking intents"),
	)
	if err != nil {
		return nil, err
	}

	abandonCount, err := meter.Int64Counter(
		"booking.abandon.count",
		metric.WithDescription("Booking intents abandoned"),
	)
	if err != nil {
		return nil, err
	}

	guardRejected, err := meter.Int64Counter(
		"booking.session.guard_rejected",
		metric.WithDescription("Session actions rejected by an ordering or reentrancy guard"),
	)
	if err != nil {
		return nil, err
	}

	return &Booking{
		PivotCount:    pivotCount,
		CommitCount:   commitCount,
		IntentCount:   intentCount,
		LeadCount:     leadCount,
		AbandonCount:  abandonCount,
		GuardRejected: guardRejected,
	}, nil
}

// MustNewBooking is NewBooking for composition roots and tests.
func MustNewBooking() *Booking {
	m, err := NewBooking()
	if err != nil {
		panic("failed to create booking metrics: " + err.Error())
	}
	return m
}

// Inc adds one to counter with the given string attributes (key, value pairs).
func Inc(ctx context.Context, counter metric.Int64Counter, kv ...string) {
	if counter == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs = append(attrs, attribute.String(kv[i], kv[i+1]))
	}
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}
