package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/booking")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GetIntentTTL() != 2*time.Hour {
		t.Fatalf("unexpected intent ttl %s", cfg.GetIntentTTL())
	}
	if !cfg.IsKafkaEnabled() || len(cfg.GetKafkaBrokers()) != 2 {
		t.Fatalf("unexpected brokers %v", cfg.GetKafkaBrokers())
	}
	if cfg.IsSMTPEnabled() {
		t.Fatalf("smtp should be disabled without host")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	if _, err := Load(); err == nil {
		t.Fatalf("expected missing DATABASE_URL to fail")
	}
}

func TestLoadRejectsWildcardCORSWithCredentials(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/booking")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")
	if _, err := Load(); err == nil {
		t.Fatalf("expected wildcard CORS with credentials to fail")
	}
}

func TestLoadTrimsBookingAPIURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/booking")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("BOOKING_API_URL", "https://intents.internal/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GetBookingAPIURL() != "https://intents.internal" {
		t.Fatalf("unexpected booking api url %q", cfg.GetBookingAPIURL())
	}
}
