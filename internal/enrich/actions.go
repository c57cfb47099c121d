package enrich

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/ld-enricher/internal/common"
	"github.com/dtnitsch/ld-enricher/pkg/db"
	"github.com/dtnitsch/ld-enricher/pkg/enricher"
	"github.com/dtnitsch/ld-enricher/pkg/metrics"
	"github.com/dtnitsch/ld-enricher/pkg/storage"
)

// EnrichAction runs the enricher over one collection.
func EnrichAction(c *cli.Context) error {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return common.Fail(common.ExitInput, "invalid configuration: %v", err)
	}
	logger, closer, err := common.NewLogger(common.LogOptionsFrom(c, cfg.LogFile), os.Stderr)
	if err != nil {
		return common.Fail(common.ExitInfra, "failed to open log file: %v", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fileName := c.String("file")
	store := storage.New(cfg.DataDir)

	lock, err := store.Lock(fileName)
	if err != nil {
		if errors.Is(err, storage.ErrLocked) {
			return common.Fail(common.ExitInput, "%s is being enriched by another run", fileName)
		}
		return common.Fail(common.ExitInfra, "%v", err)
	}
	defer func() { _ = lock.Unlock() }()

	f, err := common.NewFetcher(cfg)
	if err != nil {
		return common.Fail(common.ExitInfra, "%v", err)
	}

	var opts []enricher.Option
	if path := cfg.HistoryPath(); path != "" {
		history, err := db.Open(path)
		if err != nil {
			logger.Warn("Run history disabled", "path", path, "error", err)
		} else {
			defer history.Close()
			opts = append(opts, enricher.WithRecorder(history))
		}
	}
	if cfg.MetricsAddr != "" {
		m := metrics.New()
		opts = append(opts, enricher.WithMetrics(m))
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error("Metrics server failed", "address", cfg.MetricsAddr, "error", err)
			}
		}()
	}

	driver := enricher.New(enricher.Config{
		FileName:       fileName,
		Start:          c.Int("start"),
		End:            c.Int("end"),
		Timeout:        cfg.Timeout(),
		Delay:          cfg.Delay(),
		PersistRetries: cfg.PersistRetries,
	}, store, f, logger, opts...)

	startTime := time.Now()
	summary, err := driver.Run(ctx)
	logger.Info("Run finished", "duration", time.Since(startTime).Round(time.Millisecond).String())
	if err != nil {
		switch {
		case common.Interrupted(err):
			return common.Fail(common.ExitInterrupted, "interrupted; resume with --start %d", summary.NextIndex)
		case errors.Is(err, enricher.ErrPersist):
			return common.Fail(common.ExitInfra, "%v; resume with --start %d", err, summary.NextIndex)
		case errors.Is(err, storage.ErrIO):
			return common.Fail(common.ExitInfra, "%v", err)
		default:
			return common.Fail(common.ExitInput, "%v", err)
		}
	}

	return common.PrintYAML(summary)
}

// StatusAction reports how far a collection is enriched.
func StatusAction(c *cli.Context) error {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return common.Fail(common.ExitInput, "invalid configuration: %v", err)
	}

	coll, err := storage.New(cfg.DataDir).Load(c.String("file"))
	if err != nil {
		return common.Fail(common.ExitInput, "%v", err)
	}
	return common.PrintYAML(enricher.CollectionStatus(coll))
}
