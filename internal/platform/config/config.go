// Package config provides configuration loading and management using koanf.
// Values are layered from defaults, YAML files and APP_ environment variables,
// then validated once at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Defaults referenced outside the defaults map.
const (
	DefaultServerPort     = 8080
	DefaultMaxRequestSize = 1 << 20

	DefaultClientRetryMaxAttempts     = 3
	DefaultClientRetryMultiplier      = 2.0
	DefaultClientCircuitMaxFailures   = 5
	DefaultClientCircuitHalfOpenLimit = 3

	DefaultLogFileMaxSizeMB  = 100
	DefaultLogFileMaxBackups = 3
	DefaultLogFileMaxAgeDays = 28

	// DefaultRateLimitRPS and DefaultRateLimitBurst apply per client IP.
	DefaultRateLimitRPS   = 20.0
	DefaultRateLimitBurst = 40
)

// Config is the root configuration structure.
type Config struct {
	App       AppConfig       `koanf:"app"       validate:"required"`
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Client    ClientConfig    `koanf:"client"    validate:"required"`
	Services  ServicesConfig  `koanf:"services"  validate:"required"`
	Storage   StorageConfig   `koanf:"storage"   validate:"required"`
	Broker    BrokerConfig    `koanf:"broker"`
	Features  FeaturesConfig  `koanf:"features"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int             `koanf:"port"             validate:"required,min=1,max=65535"`
	Host            string          `koanf:"host"             validate:"required"`
	ReadTimeout     time.Duration   `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration   `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration   `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration   `koanf:"shutdown_timeout" validate:"required,min=1s"`
	MaxRequestSize  int64           `koanf:"max_request_size" validate:"required,min=1"`
	RateLimit       RateLimitConfig `koanf:"rate_limit"`
}

// RateLimitConfig contains API request rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool    `koanf:"enabled"`
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"required_if=Enabled true,omitempty,gt=0"`
	Burst             int     `koanf:"burst"               validate:"required_if=Enabled true,omitempty,min=1"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"       validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"   validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"    validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true,omitempty,url"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
}

// ClientConfig contains HTTP client settings for downstream services.
type ClientConfig struct {
	// Timeout bounds one attempt. Zero, the default, waits as long as the
	// downstream takes.
	Timeout        time.Duration        `koanf:"timeout"         validate:"min=0"`
	Retry          RetryConfig          `koanf:"retry"           validate:"required"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker" validate:"required"`
	Transport      TransportConfig      `koanf:"transport"       validate:"required"`
}

// RetryConfig contains retry settings for HTTP clients.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"     validate:"required,min=1,max=10"`
	InitialInterval time.Duration `koanf:"initial_interval" validate:"required,min=10ms"`
	MaxInterval     time.Duration `koanf:"max_interval"     validate:"required,min=100ms"`
	Multiplier      float64       `koanf:"multiplier"       validate:"required,min=1.1,max=10"`
	JitterFactor    float64       `koanf:"jitter_factor"    validate:"min=0,max=1"`
}

// CircuitBreakerConfig contains circuit breaker settings for HTTP clients.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"    validate:"required,min=1"`
	Timeout       time.Duration `koanf:"timeout"         validate:"required,min=1s"`
	HalfOpenLimit int           `koanf:"half_open_limit" validate:"required,min=1"`
}

// TransportConfig contains HTTP transport pool settings.
type TransportConfig struct {
	MaxIdleConns        int           `koanf:"max_idle_conns"         validate:"required,min=1"`
	MaxIdleConnsPerHost int           `koanf:"max_idle_conns_per_host" validate:"required,min=1"`
	IdleConnTimeout     time.Duration `koanf:"idle_conn_timeout"      validate:"required,min=1s"`
}

// ServicesConfig contains configuration for downstream services.
type ServicesConfig struct {
	Quote QuoteSourceConfig `koanf:"quote" validate:"required"`
}

// QuoteSourceConfig contains configuration for the remote quote collection.
type QuoteSourceConfig struct {
	BaseURL string `koanf:"base_url" validate:"required,url"`
	Name    string `koanf:"name"     validate:"required"`
	Path    string `koanf:"path"     validate:"required,startswith=/"`
}

// StorageConfig selects where favorites are persisted.
type StorageConfig struct {
	Driver string `koanf:"driver" validate:"required,oneof=sqlite memory"`
	Path   string `koanf:"path"   validate:"required_if=Driver sqlite"`
	Key    string `koanf:"key"    validate:"required"`
}

// BrokerConfig contains NATS settings for favorites change events.
type BrokerConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"     validate:"required_if=Enabled true,omitempty,url"`
	Subject string `koanf:"subject" validate:"required_if=Enabled true"`
}

// FeaturesConfig contains static feature flags.
type FeaturesConfig struct {
	ClearResetsSearchMarks bool `koanf:"clear_resets_search_marks"`
}

// defaults returns the default configuration values.
func defaults() map[string]any {
	return map[string]any{
		"app.name":        "quotebook",
		"app.version":     "dev",
		"app.environment": "local",

		"server.port":             DefaultServerPort,
		"server.host":             "0.0.0.0",
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",
		"server.max_request_size": DefaultMaxRequestSize,

		"server.rate_limit.enabled":             true,
		"server.rate_limit.requests_per_second": DefaultRateLimitRPS,
		"server.rate_limit.burst":               DefaultRateLimitBurst,

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/app.log",
		"log.file.max_size":    DefaultLogFileMaxSizeMB,
		"log.file.max_backups": DefaultLogFileMaxBackups,
		"log.file.max_age":     DefaultLogFileMaxAgeDays,
		"log.file.compress":    true,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.service_name":  "quotebook",
		"telemetry.sampling_rate": 1.0,

		"client.timeout":                           "0s",
		"client.retry.max_attempts":                DefaultClientRetryMaxAttempts,
		"client.retry.initial_interval":            "100ms",
		"client.retry.max_interval":                "5s",
		"client.retry.multiplier":                  DefaultClientRetryMultiplier,
		"client.retry.jitter_factor":               0.25,
		"client.circuit_breaker.max_failures":      DefaultClientCircuitMaxFailures,
		"client.circuit_breaker.timeout":           "30s",
		"client.circuit_breaker.half_open_limit":   DefaultClientCircuitHalfOpenLimit,
		"client.transport.max_idle_conns":          100,
		"client.transport.max_idle_conns_per_host": 10,
		"client.transport.idle_conn_timeout":       "90s",

		"services.quote.base_url": "https://dummyjson.com",
		"services.quote.name":     "quote-source",
		"services.quote.path":     "/quotes",

		"storage.driver": "sqlite",
		"storage.path":   "./data/quotebook.db",
		"storage.key":    "favorites",

		"broker.enabled": false,
		"broker.url":     "nats://127.0.0.1:4222",
		"broker.subject": "quotebook.favorites",

		"features.clear_resets_search_marks": false,
	}
}

// Load reads configuration for profile. Later layers win:
//
//	defaults < configs/base.yaml < configs/{profile}.yaml < APP_* env
//
// Missing files are skipped. Load does not validate; call Validate.
func Load(profile string) (*Config, error) {
	k := koanf.New(".")
	known := defaults()

	if err := k.Load(confmap.Provider(known, "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	files := []string{"configs/base.yaml"}
	if profile != "" {
		files = append(files, "configs/"+profile+".yaml")
	}

	for _, path := range files {
		if err := loadFileIfExists(k, path); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("APP_", ".", envKey(known)), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// envKey maps APP_SERVER_RATE_LIMIT_BURST onto server.rate_limit.burst.
// Known keys are matched whole so underscores inside a key survive; anything
// else splits on every underscore.
func envKey(known map[string]any) func(string) string {
	flat := make(map[string]string, len(known))
	for key := range known {
		flat[strings.ReplaceAll(key, ".", "_")] = key
	}

	return func(s string) string {
		name := strings.ToLower(strings.TrimPrefix(s, "APP_"))
		if key, ok := flat[name]; ok {
			return key
		}

		return strings.ReplaceAll(name, "_", ".")
	}
}

func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the
// process environment. Variables already set are left alone, and missing
// files are skipped. With no paths it reads ".env".
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}

	if len(existing) == 0 {
		return nil
	}

	err := godotenv.Load(existing...)
	if err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}

	return nil
}
