package collect

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/ld-enricher/internal/common"
	"github.com/dtnitsch/ld-enricher/pkg/catalog"
	"github.com/dtnitsch/ld-enricher/pkg/fetcher"
	"github.com/dtnitsch/ld-enricher/pkg/storage"
)

// Output is printed after a collection run.
type Output struct {
	File    string             `yaml:"file"`
	Records int                `yaml:"records"`
	Size    string             `yaml:"size"`
	Pages   []catalog.PageStat `yaml:"pages"`
}

// CollectAction downloads a paginated category into one collection file.
func CollectAction(c *cli.Context) error {
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
	if store.HasFile(fileName) && !c.Bool("force") {
		return common.Fail(common.ExitInput, "%s already exists; use --force to overwrite it", store.Path(fileName))
	}

	lock, err := store.Lock(fileName)
	if err != nil {
		if errors.Is(err, storage.ErrLocked) {
			return common.Fail(common.ExitInput, "%s is in use by another run", fileName)
		}
		return common.Fail(common.ExitInfra, "%v", err)
	}
	defer func() { _ = lock.Unlock() }()

	// catalog pages are never cached
	f := fetcher.NewFetcher(fetcher.Options{UserAgent: cfg.UserAgent, MaxBodyBytes: cfg.MaxBodyBytes})
	collector := catalog.NewCollector(f, logger, cfg.Timeout(), time.Duration(c.Int("page-delay-ms"))*time.Millisecond)

	coll, stats, err := collector.Collect(ctx, catalog.Query{
		BaseURL:  c.String("base-url"),
		Category: c.String("category"),
		City:     c.String("city"),
		PerPage:  c.Int("per-page"),
		Pages:    c.Int("pages"),
	})
	if err != nil {
		if common.Interrupted(err) {
			return common.Fail(common.ExitInterrupted, "interrupted after %d pages; nothing was written", len(stats))
		}
		return common.Fail(common.ExitInput, "%v", err)
	}
	if len(coll) == 0 {
		return common.Fail(common.ExitInfra, "no records collected from %d pages", len(stats))
	}

	if err := store.Persist(fileName, coll); err != nil {
		return common.Fail(common.ExitInfra, "%v", err)
	}

	out := Output{File: store.Path(fileName), Records: len(coll), Pages: stats}
	if info, err := os.Stat(out.File); err == nil {
		out.Size = humanize.Bytes(uint64(info.Size()))
	}
	logger.Info("All data written", "path", out.File, "records", len(coll))
	return common.PrintYAML(out)
}
