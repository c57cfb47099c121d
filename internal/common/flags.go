package common

import (
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/ld-enricher/models"
)

const envPrefix = "ENRICHER_"

func env(name string) []string {
	return []string{envPrefix + name}
}

// GlobalFlags are accepted by every command.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "YAML config file", EnvVars: env("CONFIG")},
		&cli.StringFlag{Name: "data-dir", Value: models.DefaultDataDir, Usage: "directory holding collections", EnvVars: env("DATA_DIR")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
		&cli.BoolFlag{Name: "verbose", Usage: "log debug records"},
		&cli.StringFlag{Name: "log-file", Usage: "also write JSON logs to a rotated file", EnvVars: env("LOG_FILE")},
	}
}

// FetchFlags configure the fetch client.
func FetchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "timeout-ms", Value: models.DefaultTimeoutMs, Usage: "per-request timeout in milliseconds", EnvVars: env("TIMEOUT_MS")},
		&cli.StringFlag{Name: "user-agent", Value: models.DefaultUserAgent, Usage: "User-Agent header", EnvVars: env("USER_AGENT")},
		&cli.Int64Flag{Name: "max-body-bytes", Value: models.DefaultMaxBodyBytes, Usage: "largest response body read", EnvVars: env("MAX_BODY_BYTES")},
	}
}

// RunFlags configure an enrichment run.
func RunFlags() []cli.Flag {
	return append(FetchFlags(),
		&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "collection file name inside the data directory"},
		&cli.IntFlag{Name: "start", Value: 0, Usage: "first index to process"},
		&cli.IntFlag{Name: "end", Value: -1, Usage: "index to stop before (default: collection length)"},
		&cli.IntFlag{Name: "delay-ms", Value: models.DefaultDelayMs, Usage: "pause after each network fetch in milliseconds", EnvVars: env("DELAY_MS")},
		&cli.IntFlag{Name: "persist-retries", Value: models.DefaultPersistRetries, Usage: "extra attempts to save the collection", EnvVars: env("PERSIST_RETRIES")},
		&cli.StringFlag{Name: "history-db", Usage: "run history database (default: <data-dir>/enricher.db)", EnvVars: env("HISTORY_DB")},
		&cli.BoolFlag{Name: "no-history", Usage: "do not record run history", EnvVars: env("NO_HISTORY")},
		&cli.StringFlag{Name: "cache-dir", Usage: "cache successful responses in this directory", EnvVars: env("CACHE_DIR")},
		&cli.DurationFlag{Name: "cache-ttl", Usage: "how long cached responses stay valid (0 keeps them forever)", EnvVars: env("CACHE_TTL")},
		&cli.StringFlag{Name: "metrics-addr", Usage: "serve Prometheus metrics on this address", EnvVars: env("METRICS_ADDR")},
	)
}

// HistoryFlags select the run history database.
func HistoryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "history-db", Usage: "run history database (default: <data-dir>/enricher.db)", EnvVars: env("HISTORY_DB")},
	}
}
