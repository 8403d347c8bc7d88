package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordRequest(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("start_run", "ok", 120*time.Millisecond)
	m.RecordRequest("start_run", "ok", 80*time.Millisecond)
	m.RecordRequest("start_run", "http_error", time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("start_run", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("start_run", "http_error")))
	require.Equal(t, 1, testutil.CollectAndCount(m.BackendDuration))
}

func TestRecordMissionOutcomeDefaultsState(t *testing.T) {
	m := NewMetrics()
	m.RecordMissionOutcome("continue", "")
	require.Equal(t, 1.0, testutil.ToFloat64(m.MissionOutcomes.WithLabelValues("continue", "unknown")))
}

func TestRegistryGathersClientCollectors(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("list_agents", "ok", time.Millisecond)
	m.RecordMissionOutcome("start", "COMPLETED")

	count, err := testutil.GatherAndCount(m.Registry(),
		"beamdeck_backend_requests_total",
		"beamdeck_backend_request_duration_seconds",
		"beamdeck_mission_outcomes_total",
	)
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("list_history", "ok", time.Second)
	m.RecordMissionOutcome("start", "COMPLETED")
}
