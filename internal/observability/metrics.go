package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles Prometheus collectors for backend traffic and mission outcomes.
type Metrics struct {
	registry        *prometheus.Registry
	BackendRequests *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	MissionOutcomes *prometheus.CounterVec
}

// NewMetrics constructs a registry with the client collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	reqs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "beamdeck_backend_requests_total",
		Help: "Backend API requests by operation and outcome",
	}, []string{"op", "outcome"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "beamdeck_backend_request_duration_seconds",
		Help:    "Backend API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "beamdeck_mission_outcomes_total",
		Help: "Mission start/continue results by resulting run state",
	}, []string{"op", "state"})

	reg.MustRegister(reqs, durs, outcomes)

	return &Metrics{
		registry:        reg,
		BackendRequests: reqs,
		BackendDuration: durs,
		MissionOutcomes: outcomes,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest records one backend call.
func (m *Metrics) RecordRequest(op, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.BackendRequests.WithLabelValues(op, outcome).Inc()
	m.BackendDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordMissionOutcome counts the run state a start/continue produced.
func (m *Metrics) RecordMissionOutcome(op, state string) {
	if m == nil {
		return
	}
	if state == "" {
		state = "unknown"
	}
	m.MissionOutcomes.WithLabelValues(op, state).Inc()
}

// Serve exposes /metrics on addr until ctx is canceled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
