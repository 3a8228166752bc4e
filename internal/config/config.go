// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/retail-price-tracker/pkg/extract"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Engine        EngineConfig        `yaml:"engine"`
	Normalizer    NormalizerConfig    `yaml:"normalizer"`
	Stores        []StoreConfig       `yaml:"stores"`
	Alerts        AlertsConfig        `yaml:"alerts"`
	Dispatcher    DispatcherConfig    `yaml:"dispatcher"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig defines the persistence backend. Postgres is the production
// driver; sqlite keeps everything in a single file for development.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres, sqlite
	Path     string `yaml:"path"`   // sqlite only
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// EngineConfig tunes scheduling, admission and retries.
type EngineConfig struct {
	DefaultPollInterval time.Duration `yaml:"default_poll_interval"`
	// Jitter spreads due times by ±Jitter of the interval. Unset means 0.1;
	// 0 disables it.
	Jitter               *float64      `yaml:"jitter"`
	StaleMultiplier      float64       `yaml:"stale_multiplier"`
	StaleAfter           int           `yaml:"stale_after"`
	GlobalConcurrency    int           `yaml:"global_concurrency"`
	StoreConcurrency     int           `yaml:"store_concurrency"`
	JobTimeout           time.Duration `yaml:"job_timeout"` // whole job, retries included
	MaxAttempts          int           `yaml:"max_attempts"`
	RetryInitialInterval time.Duration `yaml:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `yaml:"retry_max_interval"`
	MaxResults           int           `yaml:"max_results"`
	DrainTimeout         time.Duration `yaml:"drain_timeout"`

	Breaker     BreakerConfig     `yaml:"breaker"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

// JitterValue returns the configured jitter fraction.
func (e *EngineConfig) JitterValue() float64 {
	if e.Jitter == nil {
		return 0
	}
	return *e.Jitter
}

// BreakerConfig defines the per-store circuit breaker.
type BreakerConfig struct {
	Threshold int           `yaml:"threshold"`
	Window    time.Duration `yaml:"window"`
	Cooldown  time.Duration `yaml:"cooldown"`
}

// MaintenanceConfig defines the periodic task intervals.
type MaintenanceConfig struct {
	SweepInterval   time.Duration `yaml:"sweep_interval"`
	ReloadInterval  time.Duration `yaml:"reload_interval"`
	StatsInterval   time.Duration `yaml:"stats_interval"`
	RecoverInterval time.Duration `yaml:"recover_interval"`
}

// NormalizerConfig defines canonicalization and dedup settings.
type NormalizerConfig struct {
	SimilarityThreshold float64           `yaml:"similarity_threshold"`
	PriceTolerance      float64           `yaml:"price_tolerance"`
	DefaultCurrency     string            `yaml:"default_currency"`
	Aliases             map[string]string `yaml:"aliases"`
}

// Store extractor kinds.
const (
	KindHTML = "html"
	KindJSON = "json"
)

// StoreConfig describes one store. Selectors are data; adding a store never
// needs code.
type StoreConfig struct {
	Name         string            `yaml:"name"`
	Kind         string            `yaml:"kind"` // html, json
	BaseURL      string            `yaml:"base_url"`
	SearchPath   string            `yaml:"search_path"`
	Currency     string            `yaml:"currency"`
	Concurrency  int               `yaml:"concurrency"`
	Selectors    extract.Selectors `yaml:"selectors"`
	BlockMarkers []string          `yaml:"block_markers"`
	RateLimit    RateLimitConfig   `yaml:"rate_limit"`
	Sessions     SessionConfig     `yaml:"sessions"`
}

// RateLimitConfig defines per-store request pacing.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// SessionConfig defines the per-store HTTP session pool.
type SessionConfig struct {
	Size      int           `yaml:"size"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// AlertsConfig defines alert behavior.
type AlertsConfig struct {
	// DefaultDuration is how long an alert tracks when the request gives
	// no expiry.
	DefaultDuration time.Duration `yaml:"default_duration"` // default: 168h
}

// DispatcherConfig defines notification delivery.
type DispatcherConfig struct {
	QueueSize       int           `yaml:"queue_size"`
	Workers         int           `yaml:"workers"`
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
}

// NotificationsConfig defines notification targets. With none enabled,
// notifications are written to the log.
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool              `yaml:"enabled"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level     string `yaml:"level"`      // debug, info, warn, error
	Format    string `yaml:"format"`     // text, json
	AddSource bool   `yaml:"add_source"` // include file:line on each record
}

// TelemetryConfig defines OpenTelemetry export over OTLP/gRPC.
type TelemetryConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Endpoint       string        `yaml:"endpoint"`
	Insecure       bool          `yaml:"insecure"`
	ServiceName    string        `yaml:"service_name"`
	SampleRatio    float64       `yaml:"sample_ratio"`
	MetricInterval time.Duration `yaml:"metric_interval"`
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyEngineDefaults(&cfg.Engine)
	applyNormalizerDefaults(&cfg.Normalizer)
	for i := range cfg.Stores {
		applyStoreDefaults(&cfg.Stores[i], cfg.Normalizer.DefaultCurrency)
	}
	applyAlertsDefaults(&cfg.Alerts)
	applyDispatcherDefaults(&cfg.Dispatcher)
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Driver == "" {
		d.Driver = DriverPostgres
	}
	if d.Driver == DriverSQLite && d.Path == "" {
		d.Path = "retail-price-tracker.db"
	}
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyEngineDefaults(e *EngineConfig) {
	if e.DefaultPollInterval == 0 {
		e.DefaultPollInterval = time.Hour
	}
	if e.Jitter == nil {
		j := 0.1
		e.Jitter = &j
	}
	if e.StaleMultiplier == 0 {
		e.StaleMultiplier = 4
	}
	if e.StaleAfter == 0 {
		e.StaleAfter = 5
	}
	if e.GlobalConcurrency == 0 {
		e.GlobalConcurrency = 8
	}
	if e.StoreConcurrency == 0 {
		e.StoreConcurrency = 2
	}
	if e.JobTimeout == 0 {
		e.JobTimeout = 15 * time.Second
	}
	if e.MaxAttempts == 0 {
		e.MaxAttempts = 3
	}
	if e.RetryInitialInterval == 0 {
		e.RetryInitialInterval = 500 * time.Millisecond
	}
	if e.RetryMaxInterval == 0 {
		e.RetryMaxInterval = 5 * time.Second
	}
	if e.MaxResults == 0 {
		e.MaxResults = 20
	}
	if e.DrainTimeout == 0 {
		e.DrainTimeout = 30 * time.Second
	}

	b := &e.Breaker
	if b.Threshold == 0 {
		b.Threshold = 3
	}
	if b.Window == 0 {
		b.Window = 5 * time.Minute
	}
	if b.Cooldown == 0 {
		b.Cooldown = 2 * time.Minute
	}

	m := &e.Maintenance
	if m.SweepInterval == 0 {
		m.SweepInterval = time.Minute
	}
	if m.ReloadInterval == 0 {
		m.ReloadInterval = 5 * time.Minute
	}
	if m.StatsInterval == 0 {
		m.StatsInterval = time.Minute
	}
	if m.RecoverInterval == 0 {
		m.RecoverInterval = 2 * time.Minute
	}
}

func applyNormalizerDefaults(n *NormalizerConfig) {
	if n.SimilarityThreshold == 0 {
		n.SimilarityThreshold = 0.75
	}
	if n.PriceTolerance == 0 {
		n.PriceTolerance = 0.02
	}
	if n.DefaultCurrency == "" {
		n.DefaultCurrency = "ILS"
	}
}

func applyStoreDefaults(s *StoreConfig, currency string) {
	if s.Kind == "" {
		s.Kind = KindHTML
	}
	if s.Currency == "" {
		s.Currency = currency
	}
	if s.Sessions.Size == 0 {
		s.Sessions.Size = 4
	}
	if s.Sessions.Timeout == 0 {
		s.Sessions.Timeout = 15 * time.Second
	}
	if s.Sessions.UserAgent == "" {
		s.Sessions.UserAgent = "retail-price-tracker/1.0"
	}
	if s.RateLimit.PerSecond == 0 {
		s.RateLimit.PerSecond = 1
	}
	if s.RateLimit.Burst == 0 {
		s.RateLimit.Burst = 2
	}
}

func applyAlertsDefaults(a *AlertsConfig) {
	if a.DefaultDuration == 0 {
		a.DefaultDuration = 7 * 24 * time.Hour
	}
}

func applyDispatcherDefaults(d *DispatcherConfig) {
	if d.QueueSize == 0 {
		d.QueueSize = 256
	}
	if d.Workers == 0 {
		d.Workers = 2
	}
	if d.MaxAttempts == 0 {
		d.MaxAttempts = 5
	}
	if d.InitialInterval == 0 {
		d.InitialInterval = time.Second
	}
	if d.MaxInterval == 0 {
		d.MaxInterval = time.Minute
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.ServiceName == "" {
		t.ServiceName = "retail-price-tracker"
	}
	if t.SampleRatio == 0 {
		t.SampleRatio = 1
	}
	if t.MetricInterval == 0 {
		t.MetricInterval = time.Minute
	}
}

func validate(cfg *Config) error {
	var errs []error

	switch cfg.Database.Driver {
	case DriverPostgres:
		if cfg.Database.Host == "" {
			errs = append(errs, fmt.Errorf("database.host is required"))
		}
		if cfg.Database.Name == "" {
			errs = append(errs, fmt.Errorf("database.name is required"))
		}
		if cfg.Database.User == "" {
			errs = append(errs, fmt.Errorf("database.user is required"))
		}
	case DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf(
			"database.driver must be one of: postgres, sqlite (got %q)", cfg.Database.Driver,
		))
	}

	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateStores(cfg.Stores)...)

	n := cfg.Normalizer
	if n.SimilarityThreshold < 0 || n.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("normalizer.similarity_threshold must be in [0,1]"))
	}
	if n.PriceTolerance < 0 || n.PriceTolerance >= 1 {
		errs = append(errs, fmt.Errorf("normalizer.price_tolerance must be in [0,1)"))
	}

	if cfg.Notifications.Discord.Enabled && cfg.Notifications.Discord.WebhookURL == "" {
		errs = append(errs, fmt.Errorf("notifications.discord.webhook_url is required when discord is enabled"))
	}
	if cfg.Notifications.Webhook.Enabled && cfg.Notifications.Webhook.URL == "" {
		errs = append(errs, fmt.Errorf("notifications.webhook.url is required when webhook is enabled"))
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf(
			"logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level,
		))
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		errs = append(errs, fmt.Errorf("telemetry.endpoint is required when telemetry is enabled"))
	}
	if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_ratio must be in [0,1]"))
	}

	return errors.Join(errs...)
}

func validateEngine(e *EngineConfig) []error {
	var errs []error
	if j := e.JitterValue(); j < 0 || j >= 1 {
		errs = append(errs, fmt.Errorf("engine.jitter must be in [0,1) (got %g)", j))
	}
	if e.StaleMultiplier < 1 {
		errs = append(errs, fmt.Errorf("engine.stale_multiplier must be at least 1"))
	}
	if e.GlobalConcurrency < 0 || e.StoreConcurrency < 0 {
		errs = append(errs, fmt.Errorf("engine concurrency limits must not be negative"))
	}
	if e.StoreConcurrency > e.GlobalConcurrency {
		errs = append(errs, fmt.Errorf(
			"engine.store_concurrency (%d) exceeds engine.global_concurrency (%d)",
			e.StoreConcurrency, e.GlobalConcurrency,
		))
	}
	if e.JobTimeout < 0 || e.DefaultPollInterval < 0 {
		errs = append(errs, fmt.Errorf("engine durations must not be negative"))
	}
	if e.Breaker.Threshold < 1 {
		errs = append(errs, fmt.Errorf("engine.breaker.threshold must be at least 1"))
	}
	return errs
}

func validateStores(stores []StoreConfig) []error {
	if len(stores) == 0 {
		return []error{fmt.Errorf("stores: at least one store is required")}
	}

	var errs []error
	seen := make(map[string]struct{}, len(stores))
	for i, s := range stores {
		field := fmt.Sprintf("stores[%d]", i)
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", field))
		} else {
			field = fmt.Sprintf("stores[%s]", s.Name)
			if _, dup := seen[s.Name]; dup {
				errs = append(errs, fmt.Errorf("%s: duplicate store name", field))
			}
			seen[s.Name] = struct{}{}
		}
		if s.BaseURL == "" {
			errs = append(errs, fmt.Errorf("%s.base_url is required", field))
		}
		switch s.Kind {
		case KindHTML:
			if s.Selectors.Name == "" || s.Selectors.Price == "" {
				errs = append(errs, fmt.Errorf("%s.selectors: name and price are required", field))
			}
		case KindJSON:
		default:
			errs = append(errs, fmt.Errorf("%s.kind must be one of: html, json (got %q)", field, s.Kind))
		}
		if s.Concurrency < 0 {
			errs = append(errs, fmt.Errorf("%s.concurrency must not be negative", field))
		}
	}
	return errs
}
