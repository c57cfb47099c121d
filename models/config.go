// Package models defines data structures for configuration and records.
package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDataDir        = "data"
	DefaultTimeoutMs      = 7000
	DefaultDelayMs        = 1200
	DefaultPersistRetries = 3
	DefaultMaxBodyBytes   = 10 << 20
	DefaultUserAgent      = "Mozilla/5.0 (compatible; ld-enricher/1.0)"
	DefaultHistoryName    = "enricher.db"
)

// Config holds runtime configuration. Values come from an optional YAML file
// and are then overridden by CLI flags and environment variables.
type Config struct {
	DataDir        string        `yaml:"data_dir"`
	TimeoutMs      int           `yaml:"timeout_ms"`
	DelayMs        int           `yaml:"delay_ms"`
	PersistRetries int           `yaml:"persist_retries"`
	UserAgent      string        `yaml:"user_agent"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	HistoryDB      string        `yaml:"history_db,omitempty"`
	DisableHistory bool          `yaml:"disable_history,omitempty"`
	CacheDir       string        `yaml:"cache_dir,omitempty"`
	CacheTTL       time.Duration `yaml:"cache_ttl,omitempty"`
	MetricsAddr    string        `yaml:"metrics_addr,omitempty"`
	LogFile        string        `yaml:"log_file,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:        DefaultDataDir,
		TimeoutMs:      DefaultTimeoutMs,
		DelayMs:        DefaultDelayMs,
		PersistRetries: DefaultPersistRetries,
		UserAgent:      DefaultUserAgent,
		MaxBodyBytes:   DefaultMaxBodyBytes,
		CacheTTL:       24 * time.Hour,
	}
}

// LoadConfig reads a YAML config file on top of the defaults.
// A missing file is not an error when path is empty.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the pipeline cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must not be empty"))
	}
	if c.TimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("timeout_ms must be positive, got %d", c.TimeoutMs))
	}
	if c.DelayMs < 0 {
		errs = append(errs, fmt.Errorf("delay_ms must not be negative, got %d", c.DelayMs))
	}
	if c.PersistRetries < 0 {
		errs = append(errs, fmt.Errorf("persist_retries must not be negative, got %d", c.PersistRetries))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_body_bytes must be positive, got %d", c.MaxBodyBytes))
	}
	return errors.Join(errs...)
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c Config) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

// HistoryPath returns the run history database path, or "" when history is off.
func (c Config) HistoryPath() string {
	if c.DisableHistory {
		return ""
	}
	if c.HistoryDB != "" {
		return c.HistoryDB
	}
	return filepath.Join(c.DataDir, DefaultHistoryName)
}
