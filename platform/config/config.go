// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides Redis connection settings.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the asynq task queue.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// SessionConfig provides settings for booking session storage.
type SessionConfig interface {
	GetSessionTTL() time.Duration
	GetSessionLockTTL() time.Duration
	GetBookingAPIURL() string
}

// BookingConfig provides settings for the intent service.
type BookingConfig interface {
	GetAppBaseURL() string
	GetIntentTTL() time.Duration
	GetUpstreamTimeout() time.Duration
	GetPhoneRegion() string
}

// KafkaConfig provides settings for the analytics sink.
type KafkaConfig interface {
	GetKafkaBrokers() []string
	GetKafkaAnalyticsTopic() string
	IsKafkaEnabled() bool
}

// SMTPConfig provides settings for lead notification email.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsSMTPEnabled() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketCatalogSnapshots() string
	IsMinIOEnabled() bool
}

// CatalogConfig provides settings for the booking profile catalog.
type CatalogConfig interface {
	GetCatalogFile() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                         string
	HTTPAddr                    string
	DatabaseURL                 string
	JWTAccessSecret             string
	CORSAllowAll                bool
	CORSOrigins                 []string
	CORSAllowCreds              bool
	AppBaseURL                  string
	RedisURL                    string
	RedisTLSInsecure            bool
	AsynqQueueName              string
	AsynqConcurrency            int
	SessionTTL                  time.Duration
	SessionLockTTL              time.Duration
	BookingAPIURL               string
	IntentTTL                   time.Duration
	UpstreamTimeout             time.Duration
	PhoneRegion                 string
	KafkaBrokers                []string
	KafkaAnalyticsTopic         string
	SMTPHost                    string
	SMTPPort                    int
	SMTPUsername                string
	SMTPPassword                string
	EmailFromName               string
	EmailFromAddress            string
	MinIOEndpoint               string
	MinIOAccessKey              string
	MinIOSecretKey              string
	MinIOUseSSL                 bool
	MinioBucketCatalogSnapshots string
	CatalogFile                 string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RedisConfig / SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// SessionConfig implementation
func (c *Config) GetSessionTTL() time.Duration     { return c.SessionTTL }
func (c *Config) GetSessionLockTTL() time.Duration { return c.SessionLockTTL }
func (c *Config) GetBookingAPIURL() string         { return c.BookingAPIURL }

// BookingConfig implementation
func (c *Config) GetAppBaseURL() string             { return c.AppBaseURL }
func (c *Config) GetIntentTTL() time.Duration       { return c.IntentTTL }
func (c *Config) GetUpstreamTimeout() time.Duration { return c.UpstreamTimeout }
func (c *Config) GetPhoneRegion() string            { return c.PhoneRegion }

// KafkaConfig implementation
func (c *Config) GetKafkaBrokers() []string      { return c.KafkaBrokers }
func (c *Config) GetKafkaAnalyticsTopic() string { return c.KafkaAnalyticsTopic }
func (c *Config) IsKafkaEnabled() bool           { return len(c.KafkaBrokers) > 0 }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsSMTPEnabled() bool {
	return c.SMTPHost != "" && c.EmailFromAddress != ""
}

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketCatalogSnapshots() string {
	return c.MinioBucketCatalogSnapshots
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// CatalogConfig implementation
func (c *Config) GetCatalogFile() string { return c.CatalogFile }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                         getEnv("APP_ENV", "development"),
		HTTPAddr:                    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                 getEnv("DATABASE_URL", ""),
		JWTAccessSecret:             getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:                corsAllowAll,
		CORSOrigins:                 corsOrigins,
		CORSAllowCreds:              strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		AppBaseURL:                  getEnv("APP_BASE_URL", "http://localhost:4200"),
		RedisURL:                    getEnv("REDIS_URL", ""),
		RedisTLSInsecure:            strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:              getEnv("ASYNQ_QUEUE", "booking"),
		AsynqConcurrency:            mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		SessionTTL:                  mustDuration(getEnv("BOOKING_SESSION_TTL", "24h")),
		SessionLockTTL:              mustDuration(getEnv("BOOKING_SESSION_LOCK_TTL", "30s")),
		BookingAPIURL:               strings.TrimRight(getEnv("BOOKING_API_URL", ""), "/"),
		IntentTTL:                   mustDuration(getEnv("BOOKING_INTENT_TTL", "2h")),
		UpstreamTimeout:             mustDuration(getEnv("BOOKING_UPSTREAM_TIMEOUT", "10s")),
		PhoneRegion:                 strings.ToUpper(getEnv("BOOKING_PHONE_REGION", "US")),
		KafkaBrokers:                splitCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaAnalyticsTopic:         getEnv("KAFKA_ANALYTICS_TOPIC", "booking.analytics"),
		SMTPHost:                    getEnv("SMTP_HOST", ""),
		SMTPPort:                    mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:                getEnv("SMTP_USERNAME", ""),
		SMTPPassword:                getEnv("SMTP_PASSWORD", ""),
		EmailFromName:               getEnv("EMAIL_FROM_NAME", "Booking Assistant"),
		EmailFromAddress:            getEnv("EMAIL_FROM_ADDRESS", ""),
		MinIOEndpoint:               getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:              getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:              getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                 strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketCatalogSnapshots: getEnv("MINIO_BUCKET_CATALOG_SNAPSHOTS", "booking-catalog-snapshots"),
		CatalogFile:                 getEnv("CATALOG_FILE", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTAccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("BOOKING_SESSION_TTL must be a positive duration")
	}
	if c.IntentTTL <= 0 {
		return fmt.Errorf("BOOKING_INTENT_TTL must be a positive duration")
	}
	if c.SMTPHost != "" && c.EmailFromAddress == "" {
		return fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
