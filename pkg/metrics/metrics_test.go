package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.ObserveRecord("enriched")
	m.ObserveRecord("enriched")
	m.ObserveRecord("http_error")
	m.PersistFailed()
	m.ObserveFetch(300 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Records.WithLabelValues("enriched")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Records.WithLabelValues("http_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FetchDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRecord("enriched")
		m.ObserveFetch(time.Second)
		m.PersistFailed()
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRecord("timeout")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `enricher_records_total{outcome="timeout"} 1`)
}
