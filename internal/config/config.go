// Package config loads service configuration from defaults, an optional TOML
// file, and DONATION_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"donation-flow/internal/logger"
	"donation-flow/internal/storage"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DONATION_"

// Storage drivers for the durable history slot.
const (
	DriverSQLite   = "sqlite"
	DriverDynamoDB = "dynamodb"
)

// Config is the full service configuration.
type Config struct {
	Server      ServerConfig      `toml:"server" envPrefix:"SERVER_"`
	Log         LogConfig         `toml:"log" envPrefix:"LOG_"`
	Storage     StorageConfig     `toml:"storage" envPrefix:"STORAGE_"`
	Certificate CertificateConfig `toml:"certificate" envPrefix:"CERTIFICATE_"`
	Metrics     MetricsConfig     `toml:"metrics" envPrefix:"METRICS_"`
}

// ServerConfig controls the HTTP listener and session lifetime.
type ServerConfig struct {
	Addr           string   `toml:"addr" env:"ADDR"`
	RequestTimeout string   `toml:"request_timeout" env:"REQUEST_TIMEOUT"`
	SessionTTL     string   `toml:"session_ttl" env:"SESSION_TTL"`
	SweepInterval  string   `toml:"sweep_interval" env:"SWEEP_INTERVAL"`
	CORSOrigins    []string `toml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

// LogConfig mirrors logger.Config in file form.
type LogConfig struct {
	Dir        string `toml:"dir" env:"DIR"`
	File       string `toml:"file" env:"FILE"`
	Level      string `toml:"level" env:"LEVEL"`
	MaxSizeMB  int    `toml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `toml:"max_backups" env:"MAX_BACKUPS"`
	MaxAgeDays int    `toml:"max_age_days" env:"MAX_AGE_DAYS"`
	DevMode    bool   `toml:"dev_mode" env:"DEV_MODE"`
}

// StorageConfig selects the durable store and sizes the session store.
type StorageConfig struct {
	Driver       string `toml:"driver" env:"DRIVER"`
	SQLitePath   string `toml:"sqlite_path" env:"SQLITE_PATH"`
	DynamoTable  string `toml:"dynamo_table" env:"DYNAMO_TABLE"`
	DynamoRegion string `toml:"dynamo_region" env:"DYNAMO_REGION"`
	SessionQuota int    `toml:"session_quota" env:"SESSION_QUOTA"`
}

// CertificateConfig points at the external certificate generator.
type CertificateConfig struct {
	GeneratorURL    string `toml:"generator_url" env:"GENERATOR_URL"`
	Timeout         string `toml:"timeout" env:"TIMEOUT"`
	ErrorResetDelay string `toml:"error_reset_delay" env:"ERROR_RESET_DELAY"`
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled" env:"ENABLED"`
}

// DefaultConfig returns a configuration that runs locally without a file.
func DefaultConfig() Config {
	lc := logger.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: "30s",
			SessionTTL:     "1h",
			SweepInterval:  "5m",
			CORSOrigins:    []string{"*"},
		},
		Log: LogConfig{
			Dir:        lc.LogDir,
			File:       lc.LogFile,
			Level:      lc.Level.String(),
			MaxSizeMB:  lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
			MaxAgeDays: lc.MaxAgeDays,
			DevMode:    lc.DevMode,
		},
		Storage: StorageConfig{
			Driver:       DriverSQLite,
			SQLitePath:   "./data/donations.db",
			DynamoTable:  "donation-flow",
			DynamoRegion: "ap-northeast-2",
			SessionQuota: storage.DefaultSessionQuota,
		},
		Certificate: CertificateConfig{
			GeneratorURL:    "http://localhost:3000/api/certificate",
			Timeout:         "15s",
			ErrorResetDelay: "3s",
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load builds the configuration. A missing file at path is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite driver")
		}
	case DriverDynamoDB:
		if c.Storage.DynamoTable == "" {
			return errors.New("storage.dynamo_table is required for the dynamodb driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// RequestTimeoutDuration returns the per-request timeout, 30s if unset or malformed.
func (s ServerConfig) RequestTimeoutDuration() time.Duration {
	return parseDuration(s.RequestTimeout, 30*time.Second)
}

// SessionTTLDuration returns how long an idle session is kept, 1h by default.
func (s ServerConfig) SessionTTLDuration() time.Duration {
	return parseDuration(s.SessionTTL, time.Hour)
}

// SweepIntervalDuration returns the idle-session sweep period, 5m by default.
func (s ServerConfig) SweepIntervalDuration() time.Duration {
	return parseDuration(s.SweepInterval, 5*time.Minute)
}

// TimeoutDuration returns the generator call timeout, 15s by default.
func (c CertificateConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, 15*time.Second)
}

// ErrorResetDelayDuration returns how long a failed download shows as failed, 3s by default.
func (c CertificateConfig) ErrorResetDelayDuration() time.Duration {
	return parseDuration(c.ErrorResetDelay, 3*time.Second)
}

// LoggerConfig converts the log section for logger.New.
func (l LogConfig) LoggerConfig() logger.Config {
	level, err := logger.ParseLevel(l.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	return logger.Config{
		LogDir:     l.Dir,
		LogFile:    l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAgeDays: l.MaxAgeDays,
		DevMode:    l.DevMode,
		Level:      level,
	}
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
