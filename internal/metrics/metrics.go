package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config はメトリクスの設定
type Config struct {
	Namespace         string
	Subsystem         string
	MaxLatencySamples int
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Namespace:         "threadpool",
		Subsystem:         "pool",
		MaxLatencySamples: 1000,
	}
}

// Metrics はジョブ実行のメトリクスを収集する
type Metrics struct {
	queuedJobs    atomic.Uint64
	completedJobs atomic.Uint64
	failedJobs    atomic.Uint64
	busyWorkers   atomic.Int64
	totalLatency  atomic.Uint64

	mu                sync.RWMutex
	startTime         time.Time
	latencies         []time.Duration
	maxLatencySamples int

	promQueued   prometheus.Counter
	promFinished *prometheus.CounterVec
	promBusy     prometheus.Gauge
	promDepth    prometheus.Gauge
	promDuration prometheus.Histogram
}

// New は新しいメトリクスを作成する
func New(reg prometheus.Registerer) *Metrics {
	return NewWithConfig(DefaultConfig(), reg)
}

// NewWithConfig は設定を指定してメトリクスを作成する
func NewWithConfig(config Config, reg prometheus.Registerer) *Metrics {
	if config.MaxLatencySamples <= 0 {
		config.MaxLatencySamples = 1000
	}

	m := &Metrics{
		startTime:         time.Now(),
		latencies:         make([]time.Duration, 0, config.MaxLatencySamples),
		maxLatencySamples: config.MaxLatencySamples,

		promQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "jobs_queued_total",
			Help:      "Total number of jobs accepted into the work queue",
		}),
		promFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "jobs_finished_total",
			Help:      "Total number of jobs run to completion, by outcome",
		}, []string{"outcome"}),
		promBusy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "busy_workers",
			Help:      "Number of workers currently running a job",
		}),
		promDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "queue_depth",
			Help:      "Number of jobs waiting for a worker",
		}),
		promDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "job_duration_seconds",
			Help:      "Histogram of job execution time",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.promQueued,
			m.promFinished,
			m.promBusy,
			m.promDepth,
			m.promDuration,
		)
	}

	return m
}

// JobQueued はジョブの投入を記録する
func (m *Metrics) JobQueued(_ string) {
	m.queuedJobs.Add(1)
	m.promQueued.Inc()
	m.promDepth.Inc()
}

// JobStarted はジョブの実行開始を記録する
func (m *Metrics) JobStarted(_ int, _ string) {
	m.busyWorkers.Add(1)
	m.promDepth.Dec()
	m.promBusy.Inc()
}

// JobFinished はジョブの終了を記録する
func (m *Metrics) JobFinished(_ int, _ string, elapsed time.Duration, err error) {
	m.busyWorkers.Add(-1)
	m.promBusy.Dec()
	m.totalLatency.Add(uint64(elapsed.Nanoseconds()))
	m.promDuration.Observe(elapsed.Seconds())

	if err != nil {
		m.failedJobs.Add(1)
		m.promFinished.WithLabelValues("failed").Inc()
		return
	}

	m.completedJobs.Add(1)
	m.promFinished.WithLabelValues("completed").Inc()

	m.mu.Lock()
	if len(m.latencies) < m.maxLatencySamples {
		m.latencies = append(m.latencies, elapsed)
	}
	m.mu.Unlock()
}

// QueuedJobs は投入されたジョブ数を返す
func (m *Metrics) QueuedJobs() uint64 {
	return m.queuedJobs.Load()
}

// CompletedJobs は正常終了したジョブ数を返す
func (m *Metrics) CompletedJobs() uint64 {
	return m.completedJobs.Load()
}

// FailedJobs はpanicしたジョブ数を返す
func (m *Metrics) FailedJobs() uint64 {
	return m.failedJobs.Load()
}

// BusyWorkers は実行中のワーカー数を返す
func (m *Metrics) BusyWorkers() int64 {
	return m.busyWorkers.Load()
}

func (m *Metrics) finishedJobs() uint64 {
	return m.completedJobs.Load() + m.failedJobs.Load()
}

// JobsPerSecond は開始からの平均スループットを返す
func (m *Metrics) JobsPerSecond() float64 {
	elapsed := time.Since(m.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(m.finishedJobs()) / elapsed
}

// AverageLatency は平均実行時間を返す
func (m *Metrics) AverageLatency() time.Duration {
	total := m.finishedJobs()
	if total == 0 {
		return 0
	}
	return time.Duration(m.totalLatency.Load() / total)
}

// P99Latency はP99実行時間を返す（サンプルベース）
func (m *Metrics) P99Latency() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.latencies) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	idx := int(float64(len(sorted)) * 0.99)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// FailureRate は失敗率を返す（0.0〜1.0）
func (m *Metrics) FailureRate() float64 {
	total := m.finishedJobs()
	if total == 0 {
		return 0
	}
	return float64(m.failedJobs.Load()) / float64(total)
}

// Snapshot はメトリクスのスナップショット
type Snapshot struct {
	QueuedJobs     uint64        `json:"queued_jobs"`
	CompletedJobs  uint64        `json:"completed_jobs"`
	FailedJobs     uint64        `json:"failed_jobs"`
	BusyWorkers    int64         `json:"busy_workers"`
	JobsPerSecond  float64       `json:"jobs_per_second"`
	AverageLatency time.Duration `json:"average_latency"`
	P99Latency     time.Duration `json:"p99_latency"`
	FailureRate    float64       `json:"failure_rate"`
	Elapsed        time.Duration `json:"elapsed"`
}

// Snapshot は現在のメトリクスのスナップショットを返す
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		QueuedJobs:     m.QueuedJobs(),
		CompletedJobs:  m.CompletedJobs(),
		FailedJobs:     m.FailedJobs(),
		BusyWorkers:    m.BusyWorkers(),
		JobsPerSecond:  m.JobsPerSecond(),
		AverageLatency: m.AverageLatency(),
		P99Latency:     m.P99Latency(),
		FailureRate:    m.FailureRate(),
		Elapsed:        time.Since(m.startTime),
	}
}
