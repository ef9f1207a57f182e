package scenario

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadpool/internal/chaos"
	"threadpool/internal/events"
	"threadpool/internal/worker"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "default", config.Name)
	assert.Equal(t, 4, config.Workers)
	assert.Equal(t, 8, config.Jobs)
	assert.False(t, config.EnableChaos)
}

func TestNewEngine(t *testing.T) {
	engine := New(DefaultConfig())

	require.NotNil(t, engine)
	assert.False(t, engine.IsRunning())
	assert.Nil(t, engine.Metrics())
	assert.Nil(t, engine.PoolStats())
	assert.Nil(t, engine.FaultStats())
}

func TestEngineRunQuick(t *testing.T) {
	engine := New(QuickScenario())
	engine.SetRegisterer(prometheus.NewRegistry())

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "quick", result.ScenarioName)
	assert.Equal(t, uint64(8), result.Submitted)
	assert.Equal(t, uint64(8), result.Completed)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 2, result.ExpectedWaves)
	assert.Equal(t, 100*time.Millisecond, result.IdealDuration)
	assert.Less(t, result.Duration, 300*time.Millisecond, "two waves should not take %v", result.Duration)

	stats := engine.PoolStats()
	require.NotNil(t, stats)
	assert.True(t, stats.Closed)
	assert.Equal(t, 4, stats.Size)
}

func TestEngineRunFaulty(t *testing.T) {
	config := FaultyScenario()
	config.Jobs = 20
	config.Submitters = 1
	config.FaultEvery = 4
	config.FaultTypes = []chaos.FaultType{chaos.FaultPanic}

	bus := events.NewBus()
	ch := bus.Subscribe()

	engine := New(config)
	engine.SetEventBus(bus)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(5), result.TotalFaults)
	assert.Equal(t, uint64(5), result.Failed)
	assert.Equal(t, uint64(15), result.Completed)
	assert.InDelta(t, 0.25, result.FailureRate, 1e-9)

	// 障害後もワーカーは全員生存している
	stats := engine.PoolStats()
	require.NotNil(t, stats)
	assert.Equal(t, config.Workers, stats.Size)

	faultStats := engine.FaultStats()
	require.NotNil(t, faultStats)
	assert.Equal(t, uint64(5), faultStats.ByType["panic"])

	seen := map[events.EventType]bool{}
	for len(ch) > 0 {
		seen[(<-ch).Type] = true
	}
	assert.True(t, seen[events.EventJobFailed])
	assert.True(t, seen[events.EventFaultInjected])
	assert.False(t, seen[events.EventJobQueued], "queued events are skipped for scenarios")
}

func TestEngineRunInvalidWorkers(t *testing.T) {
	config := QuickScenario()
	config.Workers = 0

	_, err := New(config).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, worker.ErrInvalidSize)
}

func TestEngineDoubleRun(t *testing.T) {
	config := SerialScenario()
	config.Jobs = 4
	config.JobDuration = 100 * time.Millisecond

	engine := New(config)
	ctx := context.Background()

	done := make(chan struct{})
	var firstResult *Result
	var firstErr error

	go func() {
		firstResult, firstErr = engine.Run(ctx)
		close(done)
	}()

	// 少し待ってから二重実行を試みる
	time.Sleep(50 * time.Millisecond)

	_, err := engine.Run(ctx)
	assert.Error(t, err, "expected error when running already running scenario")

	<-done
	assert.NoError(t, firstErr)
	assert.NotNil(t, firstResult)
}

func TestEngineRunCancelled(t *testing.T) {
	config := SerialScenario()
	config.JobDuration = 100 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := New(config).Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResultReport(t *testing.T) {
	result := &Result{
		ScenarioName:  "test",
		StartTime:     time.Now(),
		EndTime:       time.Now().Add(time.Second),
		Duration:      time.Second,
		Workers:       4,
		Jobs:          1000,
		ExpectedWaves: 250,
		Submitted:     1000,
		Completed:     990,
		Failed:        10,
		FailureRate:   0.01,
		AvgLatency:    5 * time.Millisecond,
		P99Latency:    20 * time.Millisecond,
		TotalFaults:   10,
	}

	report := result.Report()

	assert.True(t, strings.Contains(report, "SCENARIO REPORT: test"))
	assert.Contains(t, report, "1000")
	assert.Contains(t, report, "1.00%")
	assert.Contains(t, report, "Expected Waves:   250")
}

func TestPresets(t *testing.T) {
	presets := ListPresets()
	assert.Len(t, presets, 4)

	for _, name := range presets {
		config, ok := GetPreset(name)
		require.True(t, ok, "failed to get preset '%s'", name)
		assert.Equal(t, name, config.Name)
		assert.Positive(t, config.Workers)
		assert.Positive(t, config.Jobs)
	}

	_, ok := GetPreset("nonexistent")
	assert.False(t, ok)
}
