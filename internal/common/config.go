package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/ld-enricher/models"
	"github.com/dtnitsch/ld-enricher/pkg/caching"
	"github.com/dtnitsch/ld-enricher/pkg/fetcher"
)

// Exit codes shared by all commands.
const (
	ExitInput       = 1
	ExitInfra       = 2
	ExitInterrupted = 130
)

// LoadConfig reads --config (if any) and applies the flags that were set on
// the command line or through their environment variables.
func LoadConfig(c *cli.Context) (models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return cfg, err
	}

	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
	}
	if c.IsSet("log-file") {
		cfg.LogFile = c.String("log-file")
	}
	if c.IsSet("timeout-ms") {
		cfg.TimeoutMs = c.Int("timeout-ms")
	}
	if c.IsSet("delay-ms") {
		cfg.DelayMs = c.Int("delay-ms")
	}
	if c.IsSet("persist-retries") {
		cfg.PersistRetries = c.Int("persist-retries")
	}
	if c.IsSet("user-agent") {
		cfg.UserAgent = c.String("user-agent")
	}
	if c.IsSet("max-body-bytes") {
		cfg.MaxBodyBytes = c.Int64("max-body-bytes")
	}
	if c.IsSet("history-db") {
		cfg.HistoryDB = c.String("history-db")
	}
	if c.IsSet("no-history") {
		cfg.DisableHistory = c.Bool("no-history")
	}
	if c.IsSet("cache-dir") {
		cfg.CacheDir = c.String("cache-dir")
	}
	if c.IsSet("cache-ttl") {
		cfg.CacheTTL = c.Duration("cache-ttl")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}
	return cfg, cfg.Validate()
}

// NewFetcher builds the fetch client, with a response cache when configured.
func NewFetcher(cfg models.Config) (*fetcher.Fetcher, error) {
	opts := fetcher.Options{
		Client:       &http.Client{},
		UserAgent:    cfg.UserAgent,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}
	if cfg.CacheDir != "" {
		cache, err := caching.NewCache(cfg.CacheDir, cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to open response cache: %w", err)
		}
		opts.Cache = cache
	}
	return fetcher.NewFetcher(opts), nil
}

// Fail prints err and returns the cli exit error carrying code.
func Fail(code int, format string, args ...any) error {
	return cli.Exit(fmt.Sprintf("Error: "+format, args...), code)
}

// Interrupted reports whether err comes from an operator interrupt.
func Interrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}

// PrintYAML writes v to stdout as YAML.
func PrintYAML(v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}
