// Package analytics forwards booking funnel events to an analytics sink.
// Delivery is fire-and-forget: a failing sink is logged and never affects
// the booking flow.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"booking_engine/internal/events"
	"booking_engine/platform/logger"
)

// Record is one analytics event.
type Record struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	TenantID   string          `json:"tenantId,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// Sink delivers records.
type Sink interface {
	Send(ctx context.Context, r Record) error
	Close() error
}

// TrackedEvents are the events forwarded to analytics.
var TrackedEvents = []string{
	events.NameIntentStarted,
	events.NameLeadCaptured,
	events.NameBookingCommitted,
	events.NameBookingPivoted,
	events.NameIntentAbandoned,
	events.NameCatalogUpdated,
}

// Subscribe forwards every tracked event on bus to sink.
func Subscribe(bus events.Bus, sink Sink, log *logger.Logger) {
	handler := events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		record, err := NewRecord(e)
		if err != nil {
			return err
		}
		if err := sink.Send(ctx, record); err != nil {
			log.WithContext(ctx).Warn("analytics delivery failed", "type", record.Type, "error", err)
		}
		return nil
	})
	for _, name := range TrackedEvents {
		bus.Subscribe(name, handler)
	}
}

// NewRecord converts a domain event into a record.
func NewRecord(e events.Event) (Record, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Record{}, fmt.Errorf("encode %s: %w", e.EventName(), err)
	}

	r := Record{
		ID:         uuid.NewString(),
		Type:       e.EventName(),
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	if tenantID := tenantOf(e); tenantID != uuid.Nil {
		r.TenantID = tenantID.String()
	}
	return r, nil
}

func tenantOf(e events.Event) uuid.UUID {
	switch ev := e.(type) {
	case events.IntentStarted:
		return ev.TenantID
	case events.LeadCaptured:
		return ev.TenantID
	case events.BookingCommitted:
		return ev.TenantID
	case events.BookingPivoted:
		return ev.TenantID
	case events.IntentAbandoned:
		return ev.TenantID
	case events.CatalogUpdated:
		if ev.TenantID != nil {
			return *ev.TenantID
		}
		return uuid.Nil
	default:
		return uuid.Nil
	}
}

// LogSink writes records to the structured log. It is used when no broker
// is configured.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink creates a log sink.
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Send(ctx context.Context, r Record) error {
	s.log.WithContext(ctx).Info("analytics event", "type", r.Type, "tenantId", r.TenantID, "id", r.ID)
	return nil
}

func (s *LogSink) Close() error { return nil }
