package enricher

import (
	"context"
	"fmt"
	"time"

	"github.com/dtnitsch/ld-enricher/models"
	"github.com/dtnitsch/ld-enricher/pkg/extractor"
	"github.com/dtnitsch/ld-enricher/pkg/fetcher"
	"github.com/dtnitsch/ld-enricher/pkg/storage"
)

// run is the state of a single invocation of Driver.Run.
type run struct {
	*Driver
	id       string
	coll     models.Collection
	log      storage.RunLog
	recorder Recorder
	cacheHit bool
}

// process handles index i. It reports the outcome and whether a network
// fetch was attempted. A returned error ends the run: either the context was
// canceled before anything was mutated, or the collection could not be saved.
func (r *run) process(ctx context.Context, i int) (string, bool, error) {
	r.cacheHit = false
	rec := r.coll[i]

	if meta, ok := rec.MetaData(); ok && extractor.IsEnriched(meta) {
		r.logger.Info("Metadata already present, skipping", "index", i)
		return models.OutcomeSkipped, false, nil
	}

	url, ok := rec.URL()
	if !ok {
		raw := rec.String()
		rec.SetMetaData(models.EmptyMetaData)
		r.logger.Warn("Missing URL field in record", "index", i)
		r.appendLog(fmt.Sprintf("index %d: missing url field in record: %s", i, raw))
		r.recordAttempt(models.Attempt{Index: i, Outcome: models.OutcomeMissingURL, Message: "missing url"})
		return models.OutcomeMissingURL, false, r.persist(ctx)
	}

	r.logger.Info("Fetching URL", "index", i, "url", url)
	out := r.fetcher.Fetch(ctx, url, r.cfg.Timeout)
	if out.Kind == fetcher.KindCanceled {
		if out.Err != nil {
			return "", false, out.Err
		}
		return "", false, context.Canceled
	}
	if out.Attempted() {
		r.metrics.ObserveFetch(out.Duration)
	}
	r.cacheHit = out.FromCache

	outcome, message := r.apply(rec, i, url, out)
	if outcome != models.OutcomeEnriched {
		r.appendLog(fmt.Sprintf("index %d: %s: %s", i, url, message))
		if out.FromCache {
			r.forget(url)
		}
	}
	r.recordAttempt(models.Attempt{
		Index:      i,
		URL:        url,
		Outcome:    outcome,
		StatusCode: out.StatusCode,
		Message:    message,
		DurationMs: out.Duration.Milliseconds(),
		FromCache:  out.FromCache,
	})
	return outcome, out.Attempted(), r.persist(ctx)
}

// apply mutates rec according to the fetch outcome.
func (r *run) apply(rec *models.Record, i int, url string, out fetcher.Outcome) (string, string) {
	switch out.Kind {
	case fetcher.KindHTTPError:
		rec.SetMetaData(models.EmptyMetaData)
		r.logger.Error("HTTP error fetching URL", "index", i, "url", url,
			"status_code", out.StatusCode, "status_text", out.StatusText)
		return models.OutcomeHTTPError, out.Message()

	case fetcher.KindTimedOut:
		rec.SetMetaData(models.EmptyMetaData)
		r.logger.Error("Timed out fetching URL", "index", i, "url", url, "error", out.Err)
		return models.OutcomeTimeout, out.Message()

	case fetcher.KindNetworkError:
		rec.SetMetaData(models.EmptyMetaData)
		r.logger.Error("Error fetching URL", "index", i, "url", url, "error", out.Err)
		return models.OutcomeNetworkError, out.Message()
	}

	fragment, err := extractor.Extract(out.Body)
	switch {
	case err != nil:
		rec.SetMetaData(models.EmptyMetaData)
		r.logger.Warn("Malformed metadata", "index", i, "url", url, "error", err)
		return models.OutcomeMalformed, fmt.Sprintf("malformed metadata: %v", err)
	case fragment == nil:
		rec.SetMetaData(models.EmptyMetaData)
		r.logger.Warn("No metadata found", "index", i, "url", url)
		return models.OutcomeNoMetadata, "no metadata found"
	default:
		rec.SetMetaData(fragment)
		r.logger.Info("Found metadata", "index", i, "url", url, "from_cache", out.FromCache)
		return models.OutcomeEnriched, "metadata found"
	}
}

// persist saves the whole collection, retrying a bounded number of times.
// Retries are not interrupted by cancellation: once a mutation exists it is
// either saved or the run aborts.
func (r *run) persist(ctx context.Context) error {
	attempts := r.cfg.PersistRetries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = r.store.Persist(r.cfg.FileName, r.coll); err == nil {
			return nil
		}
		r.metrics.PersistFailed()
		r.logger.Warn("Failed to persist collection", "attempt", attempt, "of", attempts, "error", err)
		if attempt < attempts {
			_ = r.sleep(context.WithoutCancel(ctx), r.cfg.PersistRetryDelay)
		}
	}
	r.appendLog(fmt.Sprintf("persist failed after %d attempts: %v", attempts, err))
	return fmt.Errorf("%w after %d attempts: %w", ErrPersist, attempts, err)
}

func (r *run) appendLog(entry string) {
	if err := r.log.Append(entry); err != nil {
		r.logger.Warn("Failed to append to run log", "error", err)
	}
}

func (r *run) forget(url string) {
	f, ok := r.fetcher.(forgetter)
	if !ok {
		return
	}
	if err := f.Forget(url); err != nil {
		r.logger.Warn("Failed to drop cached response", "url", url, "error", err)
	}
}

func (r *run) startHistory(start, end int) {
	if r.recorder == nil {
		return
	}
	err := r.recorder.StartRun(models.Run{
		RunID:     r.id,
		FileName:  r.cfg.FileName,
		Start:     start,
		End:       end,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	})
	if err != nil {
		r.logger.Warn("Failed to record run start", "run_id", r.id, "error", err)
		// later history writes would only fail against the missing row
		r.recorder = nil
	}
}

func (r *run) recordAttempt(a models.Attempt) {
	if r.recorder == nil {
		return
	}
	a.RunID = r.id
	a.At = time.Now()
	if err := r.recorder.RecordAttempt(a); err != nil {
		r.logger.Warn("Failed to record attempt", "run_id", r.id, "index", a.Index, "error", err)
	}
}

func (r *run) finishHistory(status string, summary models.RunSummary) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.FinishRun(r.id, status, summary); err != nil {
		r.logger.Warn("Failed to record run finish", "run_id", r.id, "error", err)
	}
}
