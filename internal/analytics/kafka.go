package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"booking_engine/platform/config"
	"booking_engine/platform/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes records to a Kafka topic keyed by tenant, so one
// tenant's events stay ordered within a partition.
type KafkaSink struct {
	writer messageWriter
	log    *logger.Logger
}

// NewKafkaSink creates an asynchronous writer for the configured topic.
func NewKafkaSink(cfg config.KafkaConfig, log *logger.Logger) (*KafkaSink, error) {
	brokers := cfg.GetKafkaBrokers()
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.GetKafkaAnalyticsTopic(),
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 200 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Warn("analytics batch delivery failed", "messages", len(messages), "error", err)
			}
		},
	}
	return &KafkaSink{writer: writer, log: log}, nil
}

func (s *KafkaSink) Send(ctx context.Context, r Record) error {
	value, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode analytics record: %w", err)
	}

	key := r.TenantID
	if key == "" {
		key = r.ID
	}
	headers := []kafka.Header{
		{Key: "event_id", Value: []byte(r.ID)},
		{Key: "event_type", Value: []byte(r.Type)},
	}
	headers = injectTraceHeaders(ctx, headers)

	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: headers,
		Time:    r.OccurredAt,
	})
}

// Close flushes pending messages.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

func injectTraceHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := &headerCarrier{headers: headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier.headers
}

type headerCarrier struct {
	headers []kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	for _, h := range c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func (c *headerCarrier) Set(key, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

var _ propagation.TextMapCarrier = (*headerCarrier)(nil)
