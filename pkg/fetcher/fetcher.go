// Package fetcher performs bounded-time HTTP GETs and normalizes the result
// into an Outcome.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dtnitsch/ld-enricher/pkg/caching"
)

const (
	DefaultTimeout      = 7 * time.Second
	DefaultMaxBodyBytes = 10 << 20
)

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Fetcher. Zero values fall back to defaults.
type Options struct {
	Client       Doer
	UserAgent    string
	MaxBodyBytes int64
	Cache        *caching.Cache
}

type Fetcher struct {
	client    Doer
	userAgent string
	maxBody   int64
	cache     *caching.Cache
}

func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		client:    opts.Client,
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
		cache:     opts.Cache,
	}
	if f.client == nil {
		// the per-attempt deadline comes from the request context
		f.client = &http.Client{}
	}
	if f.maxBody <= 0 {
		f.maxBody = DefaultMaxBodyBytes
	}
	return f
}

// Fetch GETs rawURL and waits at most timeout for the complete response.
// The request runs in its own goroutine and reports on a buffered channel;
// whichever of the response and the deadline arrives first decides the
// Outcome. A late response is dropped into the channel and never read.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, timeout time.Duration) Outcome {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if err := ctx.Err(); err != nil {
		return Outcome{Kind: KindCanceled, Err: err}
	}

	if f.cache != nil {
		if body, ok := f.cache.Get(rawURL); ok {
			return Outcome{Kind: KindOK, Body: string(body), StatusCode: http.StatusOK, FromCache: true}
		}
	}

	start := time.Now()
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Outcome{Kind: KindNetworkError, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	results := make(chan Outcome, 1)
	go func() {
		results <- f.do(req)
	}()

	var out Outcome
	select {
	case out = <-results:
		if out.Kind == KindNetworkError {
			out = classifyContextError(ctx, attemptCtx, timeout, out)
		}
	case <-attemptCtx.Done():
		out = classifyContextError(ctx, attemptCtx, timeout, Outcome{Kind: KindTimedOut})
	}
	out.Duration = time.Since(start)

	if out.Kind == KindOK && f.cache != nil {
		// cache write failures are ignored
		_ = f.cache.Set(rawURL, []byte(out.Body))
	}
	return out
}

// Forget drops any cached body for rawURL.
func (f *Fetcher) Forget(rawURL string) error {
	if f.cache == nil {
		return nil
	}
	return f.cache.Delete(rawURL)
}

// classifyContextError turns a failure caused by a finished context into
// KindCanceled (caller gave up) or KindTimedOut (attempt deadline passed).
func classifyContextError(parent, attempt context.Context, timeout time.Duration, out Outcome) Outcome {
	if err := parent.Err(); err != nil {
		return Outcome{Kind: KindCanceled, Err: err}
	}
	if errors.Is(attempt.Err(), context.DeadlineExceeded) {
		return Outcome{Kind: KindTimedOut, Err: fmt.Errorf("request timed out after %s", timeout)}
	}
	return out
}

func (f *Fetcher) do(req *http.Request) Outcome {
	resp, err := f.client.Do(req)
	if err != nil {
		return Outcome{Kind: KindNetworkError, Err: fmt.Errorf("failed to make HTTP request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return Outcome{Kind: KindHTTPError, StatusCode: resp.StatusCode, StatusText: statusText(resp)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return Outcome{Kind: KindNetworkError, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if int64(len(body)) > f.maxBody {
		return Outcome{Kind: KindNetworkError, Err: fmt.Errorf("response body exceeds %d bytes", f.maxBody)}
	}
	return Outcome{Kind: KindOK, Body: string(body), StatusCode: resp.StatusCode}
}

// statusText prefers the reason phrase sent by the server.
func statusText(resp *http.Response) string {
	if text, ok := strings.CutPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
