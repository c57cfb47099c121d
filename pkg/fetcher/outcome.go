package fetcher

import (
	"fmt"
	"time"
)

// Kind classifies the result of a single fetch attempt.
type Kind int

const (
	KindOK Kind = iota
	KindHTTPError
	KindTimedOut
	KindNetworkError
	// KindCanceled means the caller's context ended; nothing should be recorded.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindHTTPError:
		return "http_error"
	case KindTimedOut:
		return "timeout"
	case KindNetworkError:
		return "network_error"
	case KindCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the normalized result of Fetch.
type Outcome struct {
	Kind       Kind
	Body       string // KindOK only
	StatusCode int    // KindOK and KindHTTPError
	StatusText string // KindHTTPError only
	Err        error  // KindTimedOut, KindNetworkError and KindCanceled
	Duration   time.Duration
	FromCache  bool
}

// Message describes a failed outcome for log entries.
func (o Outcome) Message() string {
	switch o.Kind {
	case KindOK:
		return fmt.Sprintf("status %d", o.StatusCode)
	case KindHTTPError:
		return fmt.Sprintf("HTTP %d %s", o.StatusCode, o.StatusText)
	default:
		if o.Err != nil {
			return o.Err.Error()
		}
		return o.Kind.String()
	}
}

// Attempted reports whether the outcome involved a network call.
func (o Outcome) Attempted() bool {
	return o.Kind != KindCanceled && !o.FromCache
}
