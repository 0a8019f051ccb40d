// Package config loads the CLI configuration from ONBOARD_-prefixed
// environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	pkgconfig "github.com/utafrali/salesonboard/pkg/config"
)

// Prefix is prepended to every variable name.
const Prefix = "ONBOARD_"

// Session backends.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all configuration for the onboarding CLI.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"warn"`

	// Backend API
	APIBaseURL     string        `env:"API_BASE_URL" envDefault:"http://98.92.75.163:3000/api/v1"`
	APITimeout     time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	LoginRole      string        `env:"LOGIN_ROLE" envDefault:"salesman"`
	BreakerEnabled bool          `env:"BREAKER_ENABLED" envDefault:"false"`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS" envDefault:"0"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" envDefault:"1"`
	UploadParallel int           `env:"UPLOAD_CONCURRENCY" envDefault:"1"`
	APIMaxBody     int64         `env:"API_MAX_BODY_BYTES" envDefault:"33554432"`

	// Session storage
	SessionBackend string        `env:"SESSION_BACKEND" envDefault:"file"`
	SessionFile    string        `env:"SESSION_FILE"`
	SessionProfile string        `env:"SESSION_PROFILE" envDefault:"default"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"0s"`

	// Redis
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// PostgreSQL
	PostgresDSN string `env:"POSTGRES_DSN"`

	// Kafka audit events; empty disables publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Debug server
	NetlogCapacity int `env:"NETLOG_CAPACITY" envDefault:"200"`
	DebugHTTPPort  int `env:"DEBUG_HTTP_PORT" envDefault:"8099"`

	// Tracing
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadWithPrefix(cfg, Prefix); err != nil {
		return nil, fmt.Errorf("load onboard config: %w", err)
	}
	cfg.SessionBackend = strings.ToLower(strings.TrimSpace(cfg.SessionBackend))
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	var errs []error

	if u, err := url.Parse(c.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid API base URL: %q", c.APIBaseURL))
	}
	if c.APITimeout <= 0 {
		errs = append(errs, fmt.Errorf("API timeout must be positive: %s", c.APITimeout))
	}
	if !slices.Contains([]string{BackendFile, BackendMemory, BackendRedis, BackendPostgres}, c.SessionBackend) {
		errs = append(errs, fmt.Errorf("unknown session backend: %q", c.SessionBackend))
	}
	if c.SessionBackend == BackendPostgres && c.PostgresDSN == "" {
		errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres session backend"))
	}
	if c.SessionTTL < 0 {
		errs = append(errs, fmt.Errorf("session TTL must not be negative: %s", c.SessionTTL))
	}
	if c.APIMaxBody < 0 {
		errs = append(errs, fmt.Errorf("API max body size must not be negative: %d", c.APIMaxBody))
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("rate limit must not be negative: %v", c.RateLimitRPS))
	}
	if c.UploadParallel < 1 || c.UploadParallel > 16 {
		errs = append(errs, fmt.Errorf("upload concurrency must be between 1 and 16: %d", c.UploadParallel))
	}
	if c.NetlogCapacity < 1 {
		errs = append(errs, fmt.Errorf("network log capacity must be positive: %d", c.NetlogCapacity))
	}
	if c.DebugHTTPPort < 1 || c.DebugHTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid debug HTTP port: %d", c.DebugHTTPPort))
	}
	if c.OTelSampleRate < 0 || c.OTelSampleRate > 1 {
		errs = append(errs, fmt.Errorf("OTel sample rate must be within [0, 1]: %v", c.OTelSampleRate))
	}
	return errors.Join(errs...)
}

// EventsEnabled reports whether audit events are published.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
