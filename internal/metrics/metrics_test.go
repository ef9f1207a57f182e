package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsIsEmpty(t *testing.T) {
	m := New(nil)

	snap := m.Snapshot()
	assert.Zero(t, snap.QueuedJobs)
	assert.Zero(t, snap.CompletedJobs)
	assert.Zero(t, snap.FailedJobs)
	assert.Zero(t, snap.AverageLatency)
	assert.Zero(t, snap.P99Latency)
	assert.Zero(t, snap.FailureRate)
}

func TestRecordLifecycle(t *testing.T) {
	m := New(nil)

	m.JobQueued("a")
	m.JobQueued("b")
	m.JobStarted(0, "a")
	assert.Equal(t, int64(1), m.BusyWorkers())

	m.JobFinished(0, "a", 10*time.Millisecond, nil)
	m.JobStarted(1, "b")
	m.JobFinished(1, "b", 30*time.Millisecond, errors.New("panic"))

	assert.Equal(t, uint64(2), m.QueuedJobs())
	assert.Equal(t, uint64(1), m.CompletedJobs())
	assert.Equal(t, uint64(1), m.FailedJobs())
	assert.Equal(t, int64(0), m.BusyWorkers())
	assert.Equal(t, 20*time.Millisecond, m.AverageLatency())
	assert.InDelta(t, 0.5, m.FailureRate(), 1e-9)
	assert.Equal(t, 10*time.Millisecond, m.P99Latency())
}

func TestP99Latency(t *testing.T) {
	m := New(nil)

	for i := 1; i <= 100; i++ {
		m.JobFinished(0, "", time.Duration(i)*time.Millisecond, nil)
	}

	assert.Equal(t, 100*time.Millisecond, m.P99Latency())
}

func TestLatencySamplesAreBounded(t *testing.T) {
	m := NewWithConfig(Config{MaxLatencySamples: 10}, nil)

	for range 50 {
		m.JobFinished(0, "", time.Millisecond, nil)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	assert.Len(t, m.latencies, 10)
}

func TestPrometheusCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.JobQueued("a")
	m.JobQueued("b")
	m.JobStarted(0, "a")
	m.JobFinished(0, "a", time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.promQueued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.promDepth))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.promBusy))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.promFinished.WithLabelValues("completed")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "threadpool_pool_jobs_queued_total")
	assert.Contains(t, names, "threadpool_pool_job_duration_seconds")
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = New(reg)

	assert.Panics(t, func() { _ = New(reg) })
}
