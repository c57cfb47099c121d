// Package enricher drives a resumable, rate-limited enrichment run over a
// record collection: one record at a time, persisted after every change.
package enricher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dtnitsch/ld-enricher/models"
	"github.com/dtnitsch/ld-enricher/pkg/fetcher"
	"github.com/dtnitsch/ld-enricher/pkg/metrics"
	"github.com/dtnitsch/ld-enricher/pkg/storage"
)

// EndOfCollection makes a run cover every record from Start onwards.
const EndOfCollection = -1

var (
	ErrInvalidRange = errors.New("invalid run range")
	ErrPersist      = errors.New("failed to persist collection")
)

// Store loads and persists collections and opens the run log.
type Store interface {
	Load(name string) (models.Collection, error)
	Persist(name string, coll models.Collection) error
	OpenLog(name string) (storage.RunLog, error)
}

// Fetcher performs a single bounded fetch.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) fetcher.Outcome
}

// forgetter is implemented by fetchers with a response cache.
type forgetter interface {
	Forget(url string) error
}

// Recorder keeps the run history. Failures are logged and never stop a run.
type Recorder interface {
	StartRun(run models.Run) error
	RecordAttempt(a models.Attempt) error
	FinishRun(runID, status string, summary models.RunSummary) error
}

// Config describes one run.
type Config struct {
	FileName          string
	Start             int
	End               int // exclusive; EndOfCollection for the collection length
	Timeout           time.Duration
	Delay             time.Duration
	PersistRetries    int
	PersistRetryDelay time.Duration
}

// Sleeper pauses for d or until ctx ends.
type Sleeper func(ctx context.Context, d time.Duration) error

type Driver struct {
	cfg      Config
	store    Store
	fetcher  Fetcher
	logger   *slog.Logger
	recorder Recorder
	metrics  *metrics.Metrics
	sleep    Sleeper
	newRunID func() string
}

type Option func(*Driver)

func WithRecorder(r Recorder) Option {
	return func(d *Driver) { d.recorder = r }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Driver) { d.metrics = m }
}

func WithSleeper(s Sleeper) Option {
	return func(d *Driver) { d.sleep = s }
}

func WithRunID(fn func() string) Option {
	return func(d *Driver) { d.newRunID = fn }
}

func New(cfg Config, store Store, f Fetcher, logger *slog.Logger, opts ...Option) *Driver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = fetcher.DefaultTimeout
	}
	if cfg.PersistRetryDelay <= 0 {
		cfg.PersistRetryDelay = 250 * time.Millisecond
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &Driver{
		cfg:      cfg,
		store:    store,
		fetcher:  f,
		logger:   logger,
		sleep:    sleepContext,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run loads the collection, validates the range and processes every index in
// [Start, End) in order. It returns context.Canceled (or the context's error)
// when stopped early and an ErrPersist error when the collection could not be
// saved; per-record failures never end a run.
func (d *Driver) Run(ctx context.Context) (models.RunSummary, error) {
	summary := models.RunSummary{NextIndex: d.cfg.Start}

	coll, err := d.store.Load(d.cfg.FileName)
	if err != nil {
		return summary, err
	}

	start, end, err := resolveRange(d.cfg.Start, d.cfg.End, len(coll))
	if err != nil {
		return summary, err
	}

	runLog, err := d.store.OpenLog(d.cfg.FileName)
	if err != nil {
		return summary, err
	}
	defer func() {
		if cerr := runLog.Close(); cerr != nil {
			d.logger.Warn("Failed to close run log", "error", cerr)
		}
	}()

	r := &run{
		Driver:   d,
		id:       d.newRunID(),
		coll:     coll,
		log:      runLog,
		recorder: d.recorder,
	}
	r.startHistory(start, end)
	d.logger.Info("Starting enrichment run", "run_id", r.id, "file", d.cfg.FileName,
		"start", start, "end", end, "records", len(coll), "timeout", d.cfg.Timeout, "delay", d.cfg.Delay)

	status := models.RunStatusCompleted
	for i := start; i < end; i++ {
		if err = ctx.Err(); err != nil {
			status = models.RunStatusCanceled
			break
		}

		var outcome string
		var attempted bool
		outcome, attempted, err = r.process(ctx, i)
		if err != nil {
			if errors.Is(err, ErrPersist) {
				status = models.RunStatusAborted
			} else {
				status = models.RunStatusCanceled
			}
			break
		}
		summary.Add(outcome)
		if r.cacheHit {
			summary.CacheHits++
		}
		summary.NextIndex = i + 1
		d.metrics.ObserveRecord(outcome)

		if attempted && i+1 < end {
			if err = d.sleep(ctx, d.cfg.Delay); err != nil {
				status = models.RunStatusCanceled
				break
			}
		}
	}

	r.finishHistory(status, summary)
	switch status {
	case models.RunStatusCompleted:
		d.logger.Info("Enrichment run completed", "run_id", r.id, "visited", summary.Visited,
			"enriched", summary.Enriched, "skipped", summary.Skipped, "failed", summary.Failed())
		return summary, nil
	case models.RunStatusCanceled:
		d.logger.Warn("Enrichment run canceled", "run_id", r.id, "next_index", summary.NextIndex)
	default:
		d.logger.Error("Enrichment run aborted", "run_id", r.id, "next_index", summary.NextIndex, "error", err)
	}
	return summary, err
}

// resolveRange applies the EndOfCollection default and checks bounds.
func resolveRange(start, end, length int) (int, int, error) {
	if end == EndOfCollection {
		end = length
	}
	if start < 0 {
		return 0, 0, fmt.Errorf("%w: start %d is negative", ErrInvalidRange, start)
	}
	if start >= end {
		return 0, 0, fmt.Errorf("%w: start %d must be less than end %d", ErrInvalidRange, start, end)
	}
	if end > length {
		return 0, 0, fmt.Errorf("%w: end %d exceeds collection length %d", ErrInvalidRange, end, length)
	}
	return start, end, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
