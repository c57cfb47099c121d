package models

import "time"

// Run statuses stored in the history database.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusCanceled  = "canceled"
	RunStatusAborted   = "aborted"
)

// Record outcomes, used as log categories, metric labels and history values.
const (
	OutcomeSkipped      = "skipped"
	OutcomeEnriched     = "enriched"
	OutcomeNoMetadata   = "no_metadata"
	OutcomeMalformed    = "malformed"
	OutcomeMissingURL   = "missing_url"
	OutcomeHTTPError    = "http_error"
	OutcomeTimeout      = "timeout"
	OutcomeNetworkError = "network_error"
)

// RunSummary counts what happened to each visited index.
type RunSummary struct {
	Visited       int `json:"visited" yaml:"visited"`
	Skipped       int `json:"skipped" yaml:"skipped"`
	Enriched      int `json:"enriched" yaml:"enriched"`
	NoMetadata    int `json:"no_metadata" yaml:"no_metadata"`
	Malformed     int `json:"malformed" yaml:"malformed"`
	MissingURL    int `json:"missing_url" yaml:"missing_url"`
	HTTPErrors    int `json:"http_errors" yaml:"http_errors"`
	Timeouts      int `json:"timeouts" yaml:"timeouts"`
	NetworkErrors int `json:"network_errors" yaml:"network_errors"`
	CacheHits     int `json:"cache_hits" yaml:"cache_hits"`
	// NextIndex is the first index not yet visited; equals End after a full run.
	NextIndex int `json:"next_index" yaml:"next_index"`
}

// Add counts one index under outcome.
func (s *RunSummary) Add(outcome string) {
	s.Visited++
	switch outcome {
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeEnriched:
		s.Enriched++
	case OutcomeNoMetadata:
		s.NoMetadata++
	case OutcomeMalformed:
		s.Malformed++
	case OutcomeMissingURL:
		s.MissingURL++
	case OutcomeHTTPError:
		s.HTTPErrors++
	case OutcomeTimeout:
		s.Timeouts++
	case OutcomeNetworkError:
		s.NetworkErrors++
	}
}

// Failed is the number of indexes that ended with the empty sentinel.
func (s RunSummary) Failed() int {
	return s.NoMetadata + s.Malformed + s.MissingURL + s.HTTPErrors + s.Timeouts + s.NetworkErrors
}

// Run describes one invocation of the enrichment driver.
type Run struct {
	RunID      string
	FileName   string
	Start      int
	End        int
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
	Summary    RunSummary
}

// Attempt is the history entry for one processed index.
type Attempt struct {
	RunID      string
	Index      int
	URL        string
	Outcome    string
	StatusCode int
	Message    string
	DurationMs int64
	FromCache  bool
	At         time.Time
}
