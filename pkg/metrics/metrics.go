// Package metrics exposes Prometheus counters for enrichment runs.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Registry        *prometheus.Registry
	Records         *prometheus.CounterVec
	FetchDuration   prometheus.Histogram
	PersistFailures prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enricher_records_total",
				Help: "Records visited by the enrichment driver, labeled by outcome.",
			},
			[]string{"outcome"},
		),
		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "enricher_fetch_duration_seconds",
				Help:    "Duration of network fetches in seconds.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 7, 10},
			},
		),
		PersistFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "enricher_persist_failures_total",
				Help: "Failed attempts to persist the collection.",
			},
		),
	}
	m.Registry.MustRegister(m.Records, m.FetchDuration, m.PersistFailures)
	return m
}

func (m *Metrics) ObserveRecord(outcome string) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) PersistFailed() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx ends.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Exposing Prometheus metrics", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
