package enricher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dtnitsch/ld-enricher/models"
	"github.com/dtnitsch/ld-enricher/pkg/fetcher"
	"github.com/dtnitsch/ld-enricher/pkg/storage"
)

// memStore keeps the durable form of a collection as encoded JSON.
type memStore struct {
	data        []byte
	snapshots   [][]byte
	failPersist int // number of upcoming Persist calls that fail
	log         *memLog
	logOpened   bool
	loadErr     error
}

func newMemStore(content string) *memStore {
	return &memStore{data: []byte(content), log: &memLog{}}
}

func (s *memStore) Load(string) (models.Collection, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return storage.Decode(s.data)
}

func (s *memStore) Persist(_ string, coll models.Collection) error {
	if s.failPersist > 0 {
		s.failPersist--
		return errors.New("disk full")
	}
	data, err := storage.Encode(coll)
	if err != nil {
		return err
	}
	s.data = data
	s.snapshots = append(s.snapshots, data)
	return nil
}

func (s *memStore) OpenLog(string) (storage.RunLog, error) {
	s.logOpened = true
	s.log.entries = nil
	return s.log, nil
}

func (s *memStore) durable() models.Collection {
	coll, err := storage.Decode(s.data)
	if err != nil {
		panic(err)
	}
	return coll
}

type memLog struct {
	entries []string
	closed  bool
}

func (l *memLog) Append(entry string) error {
	l.entries = append(l.entries, entry)
	return nil
}

func (l *memLog) Close() error {
	l.closed = true
	return nil
}

// fakeFetcher answers from a table of outcomes keyed by URL.
type fakeFetcher struct {
	mu        sync.Mutex
	outcomes  map[string]fetcher.Outcome
	calls     []string
	onFetch   func(url string)
	forgotten []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{outcomes: map[string]fetcher.Outcome{}}
}

func (f *fakeFetcher) page(url, body string) *fakeFetcher {
	f.outcomes[url] = fetcher.Outcome{Kind: fetcher.KindOK, Body: body, StatusCode: 200, Duration: time.Millisecond}
	return f
}

func (f *fakeFetcher) set(url string, out fetcher.Outcome) *fakeFetcher {
	f.outcomes[url] = out
	return f
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, _ time.Duration) fetcher.Outcome {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	hook := f.onFetch
	out, ok := f.outcomes[url]
	f.mu.Unlock()

	if hook != nil {
		hook(url)
	}
	if err := ctx.Err(); err != nil {
		return fetcher.Outcome{Kind: fetcher.KindCanceled, Err: err}
	}
	if !ok {
		return fetcher.Outcome{Kind: fetcher.KindNetworkError, Err: errors.New("no such host")}
	}
	return out
}

func (f *fakeFetcher) Forget(url string) error {
	f.forgotten = append(f.forgotten, url)
	return nil
}

type fakeRecorder struct {
	runs     []models.Run
	attempts []models.Attempt
	status   string
	summary  models.RunSummary
}

func (r *fakeRecorder) StartRun(run models.Run) error {
	r.runs = append(r.runs, run)
	return nil
}

func (r *fakeRecorder) RecordAttempt(a models.Attempt) error {
	r.attempts = append(r.attempts, a)
	return nil
}

func (r *fakeRecorder) FinishRun(_ string, status string, summary models.RunSummary) error {
	r.status = status
	r.summary = summary
	return nil
}

// sleepRecorder records requested delays without waiting.
type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}
