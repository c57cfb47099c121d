// Package catalog collects product records from a paginated category API
// into a single collection that the enricher can process.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/buger/jsonparser"

	"github.com/dtnitsch/ld-enricher/models"
	"github.com/dtnitsch/ld-enricher/pkg/fetcher"
)

const DefaultBaseURL = "https://www.1mg.com/pharmacy_api_gateway/v8/category"

// recordsPath locates the record array inside a page response.
var recordsPath = []string{"data", "widgets", "[0]", "value", "data"}

var (
	ErrInvalidQuery = errors.New("invalid catalog query")
	ErrNoRecords    = errors.New("page has no records")
)

// Query selects the category pages to collect.
type Query struct {
	BaseURL  string
	Category string
	City     string
	PerPage  int
	Pages    int
}

func (q Query) validate() error {
	switch {
	case q.Category == "":
		return fmt.Errorf("%w: category is required", ErrInvalidQuery)
	case q.City == "":
		return fmt.Errorf("%w: city is required", ErrInvalidQuery)
	case q.PerPage <= 0:
		return fmt.Errorf("%w: per-page must be positive", ErrInvalidQuery)
	case q.Pages <= 0:
		return fmt.Errorf("%w: pages must be positive", ErrInvalidQuery)
	}
	return nil
}

// PageURL builds the request URL for page n (1-based).
func (q Query) PageURL(n int) (string, error) {
	base := q.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: bad base url: %w", ErrInvalidQuery, err)
	}
	u = u.JoinPath(q.Category, "paginated")
	v := url.Values{}
	v.Set("city", q.City)
	v.Set("filter", "true")
	v.Set("page", strconv.Itoa(n))
	v.Set("per_page", strconv.Itoa(q.PerPage))
	u.RawQuery = v.Encode()
	return u.String(), nil
}

// PageStat reports what one page contributed.
type PageStat struct {
	Page    int    `yaml:"page"`
	Records int    `yaml:"records"`
	Error   string `yaml:"error,omitempty"`
}

type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) fetcher.Outcome
}

type Collector struct {
	fetcher Fetcher
	logger  *slog.Logger
	timeout time.Duration
	delay   time.Duration
}

func NewCollector(f Fetcher, logger *slog.Logger, timeout, delay time.Duration) *Collector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if timeout <= 0 {
		timeout = fetcher.DefaultTimeout
	}
	return &Collector{fetcher: f, logger: logger, timeout: timeout, delay: delay}
}

// Collect fetches pages 1..q.Pages in order and concatenates their records.
// A page that fails is logged and skipped. Only cancellation stops early, in
// which case the records gathered so far are returned with the context error.
func (c *Collector) Collect(ctx context.Context, q Query) (models.Collection, []PageStat, error) {
	if err := q.validate(); err != nil {
		return nil, nil, err
	}

	var (
		all   models.Collection
		stats []PageStat
	)
	for page := 1; page <= q.Pages; page++ {
		if err := ctx.Err(); err != nil {
			return all, stats, err
		}

		pageURL, err := q.PageURL(page)
		if err != nil {
			return nil, nil, err
		}

		out := c.fetcher.Fetch(ctx, pageURL, c.timeout)
		if out.Kind == fetcher.KindCanceled {
			return all, stats, ctx.Err()
		}

		stat := PageStat{Page: page}
		if out.Kind != fetcher.KindOK {
			stat.Error = out.Message()
			c.logger.Error("Failed to fetch page", "page", page, "url", pageURL, "error", stat.Error)
		} else if records, err := ParsePage([]byte(out.Body)); err != nil {
			stat.Error = err.Error()
			c.logger.Warn("Page has no data to save", "page", page, "error", err)
		} else {
			stat.Records = len(records)
			all = append(all, records...)
			c.logger.Info("Collected page", "page", page, "records", len(records))
		}
		stats = append(stats, stat)

		if page < q.Pages && out.Attempted() && c.delay > 0 {
			t := time.NewTimer(c.delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return all, stats, ctx.Err()
			case <-t.C:
			}
		}
	}
	return all, stats, nil
}

// ParsePage pulls the record array out of a page response. Non-object
// elements are dropped.
func ParsePage(body []byte) (models.Collection, error) {
	value, dataType, _, err := jsonparser.Get(body, recordsPath...)
	if err != nil {
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return nil, ErrNoRecords
		}
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	if dataType != jsonparser.Array {
		return nil, fmt.Errorf("%w: data is %s, not an array", ErrNoRecords, dataType)
	}

	var coll models.Collection
	var parseErr error
	_, err = jsonparser.ArrayEach(value, func(elem []byte, typ jsonparser.ValueType, _ int, _ error) {
		if parseErr != nil || typ != jsonparser.Object {
			return
		}
		rec := models.NewRecord()
		if err := rec.UnmarshalJSON(elem); err != nil {
			parseErr = err
			return
		}
		coll = append(coll, rec)
	})
	if err == nil {
		err = parseErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse page records: %w", err)
	}
	if len(coll) == 0 {
		return nil, ErrNoRecords
	}
	return coll, nil
}
