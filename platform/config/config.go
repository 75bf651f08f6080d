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
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// SchedulerConfig provides settings for the asynq client, worker and periodic scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetSnapshotCronSpec() string
	GetSnapshotConcurrency() int
}

// SnapshotConfig provides settings for the redis-backed report snapshot store.
type SnapshotConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetSnapshotTTL() time.Duration
	IsSnapshotEnabled() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketReportArchive() string
	IsMinIOEnabled() bool
}

// AnalyticsConfig provides the injected parameters of the pipeline reports.
type AnalyticsConfig interface {
	GetValuePerCloseCents() int64
	GetSpeedToLeadWindow() time.Duration
	GetAnalyticsLocation() *time.Location
	GetSourceSpendFile() string
}

// IntakeConfig provides lead intake policy settings.
type IntakeConfig interface {
	GetPhoneDefaultRegion() string
	GetRescoreOnAttributeUpdate() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                      string
	HTTPAddr                 string
	DatabaseURL              string
	JWTAccessSecret          string
	CORSAllowAll             bool
	CORSOrigins              []string
	CORSAllowCreds           bool
	RateLimitRPS             float64
	RateLimitBurst           int
	RedisURL                 string
	RedisTLSInsecure         bool
	AsynqQueueName           string
	AsynqConcurrency         int
	SnapshotCronSpec         string
	SnapshotConcurrency      int
	SnapshotTTL              time.Duration
	MinIOEndpoint            string
	MinIOAccessKey           string
	MinIOSecretKey           string
	MinIOUseSSL              bool
	MinioBucketReportArchive string
	ValuePerCloseCents       int64
	SpeedToLeadWindow        time.Duration
	AnalyticsTimezone        string
	AnalyticsLocation        *time.Location
	SourceSpendFile          string
	PhoneDefaultRegion       string
	RescoreOnAttributeUpdate bool
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
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string          { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool    { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string    { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int     { return c.AsynqConcurrency }
func (c *Config) GetSnapshotCronSpec() string  { return c.SnapshotCronSpec }
func (c *Config) GetSnapshotConcurrency() int  { return c.SnapshotConcurrency }

// SnapshotConfig implementation
func (c *Config) GetSnapshotTTL() time.Duration { return c.SnapshotTTL }
func (c *Config) IsSnapshotEnabled() bool       { return c.RedisURL != "" }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketReportArchive() string {
	return c.MinioBucketReportArchive
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// AnalyticsConfig implementation
func (c *Config) GetValuePerCloseCents() int64         { return c.ValuePerCloseCents }
func (c *Config) GetSpeedToLeadWindow() time.Duration  { return c.SpeedToLeadWindow }
func (c *Config) GetAnalyticsLocation() *time.Location { return c.AnalyticsLocation }
func (c *Config) GetSourceSpendFile() string           { return c.SourceSpendFile }

// IntakeConfig implementation
func (c *Config) GetPhoneDefaultRegion() string     { return c.PhoneDefaultRegion }
func (c *Config) GetRescoreOnAttributeUpdate() bool { return c.RescoreOnAttributeUpdate }

// Load reads configuration from environment variables (and a .env file when present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                      getEnv("APP_ENV", "development"),
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		JWTAccessSecret:          getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:             corsAllowAll,
		CORSOrigins:              corsOrigins,
		CORSAllowCreds:           strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RateLimitRPS:             mustFloat(getEnv("RATE_LIMIT_RPS", "20")),
		RateLimitBurst:           mustInt(getEnv("RATE_LIMIT_BURST", "40")),
		RedisURL:                 getEnv("REDIS_URL", ""),
		RedisTLSInsecure:         strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:           getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:         mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		SnapshotCronSpec:         getEnv("PIPELINE_SNAPSHOT_CRON", "@every 15m"),
		SnapshotConcurrency:      mustInt(getEnv("PIPELINE_SNAPSHOT_CONCURRENCY", "4")),
		SnapshotTTL:              mustDuration(getEnv("PIPELINE_SNAPSHOT_TTL", "24h")),
		MinIOEndpoint:            getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:           getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:           getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:              strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketReportArchive: getEnv("MINIO_BUCKET_REPORT_ARCHIVE", "pipeline-reports"),
		ValuePerCloseCents:       mustInt64(getEnv("ANALYTICS_VALUE_PER_CLOSE_CENTS", "850000")),
		SpeedToLeadWindow:        mustDuration(getEnv("ANALYTICS_SPEED_TO_LEAD_WINDOW", "720h")),
		AnalyticsTimezone:        getEnv("ANALYTICS_TIMEZONE", "UTC"),
		SourceSpendFile:          getEnv("ANALYTICS_SOURCE_SPEND_FILE", ""),
		PhoneDefaultRegion:       strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "US")),
		RescoreOnAttributeUpdate: strings.EqualFold(getEnv("RESCORE_ON_ATTRIBUTE_UPDATE", "false"), "true"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.SpeedToLeadWindow <= 0 {
		return nil, fmt.Errorf("ANALYTICS_SPEED_TO_LEAD_WINDOW must be a positive duration")
	}
	if cfg.ValuePerCloseCents < 0 {
		return nil, fmt.Errorf("ANALYTICS_VALUE_PER_CLOSE_CENTS cannot be negative")
	}

	loc, err := time.LoadLocation(cfg.AnalyticsTimezone)
	if err != nil {
		return nil, fmt.Errorf("ANALYTICS_TIMEZONE %q: %w", cfg.AnalyticsTimezone, err)
	}
	cfg.AnalyticsLocation = loc

	return cfg, nil
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

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
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
