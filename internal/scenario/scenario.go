package scenario

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"threadpool/internal/chaos"
	"threadpool/internal/client"
	"threadpool/internal/events"
	"threadpool/internal/logger"
	"threadpool/internal/metrics"
	"threadpool/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// Config はシナリオの設定
type Config struct {
	Name        string        // シナリオ名
	Description string        // 説明
	Workers     int           // ワーカー数
	Jobs        int           // 投入するジョブ数
	Submitters  int           // 投入ゴルーチン数
	JobDuration time.Duration // ジョブ1件の処理時間

	// 障害注入設定
	EnableChaos   bool              // 障害注入を有効化
	FaultEvery    int               // N件に1件障害を注入
	FaultTypes    []chaos.FaultType // 有効な障害タイプ
	DelayDuration time.Duration     // Delay障害の遅延時間
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	c := QuickScenario()
	c.Name = "default"
	c.Description = "Default scenario"
	return c
}

// Result はシナリオ実行結果
type Result struct {
	ScenarioName string
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration

	// プール
	Workers       int
	Jobs          int
	ExpectedWaves int
	IdealDuration time.Duration

	// メトリクス
	Submitted   uint64
	Rejected    uint64
	Completed   uint64
	Failed      uint64
	FailureRate float64
	AvgLatency  time.Duration
	P99Latency  time.Duration

	// 障害注入統計
	TotalFaults uint64
}

// Engine はシナリオ実行エンジン
type Engine struct {
	config     Config
	eventBus   *events.Bus
	registerer prometheus.Registerer

	dispatcher *worker.Dispatcher
	client     *client.Client
	injector   *chaos.Injector
	metrics    *metrics.Metrics

	mu      sync.RWMutex
	running bool
}

// New は新しいEngineを作成する
func New(config Config) *Engine {
	return &Engine{
		config: config,
	}
}

// SetEventBus はイベントバスを設定する
func (e *Engine) SetEventBus(bus *events.Bus) {
	e.eventBus = bus
}

// SetRegisterer はPrometheusコレクタの登録先を設定する
// 実行ごとに新しいコレクタを登録するため、1つのレジストリは1回の実行にしか使えない
func (e *Engine) SetRegisterer(reg prometheus.Registerer) {
	e.registerer = reg
}

// Run はシナリオを実行する
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, fmt.Errorf("scenario is already running")
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	logger.Info("", "=== Scenario '%s' started ===", e.config.Name)
	logger.Info("", "Description: %s", e.config.Description)

	result := &Result{
		ScenarioName: e.config.Name,
		StartTime:    time.Now(),
		Workers:      e.config.Workers,
		Jobs:         e.config.Jobs,
	}

	if err := e.setup(); err != nil {
		return nil, fmt.Errorf("setup failed: %w", err)
	}

	res, runErr := e.client.RunJobs(ctx, e.config.Jobs)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := e.dispatcher.Shutdown(shutdownCtx); err != nil {
		logger.Warn("", "Dispatcher did not stop cleanly: %v", err)
	}

	if runErr != nil {
		return nil, fmt.Errorf("run failed: %w", runErr)
	}

	result.EndTime = time.Now()
	result.Duration = res.Elapsed
	result.Submitted = res.Submitted
	result.Rejected = res.Rejected
	e.collectResults(result)

	logger.Info("", "=== Scenario '%s' completed ===", e.config.Name)

	return result, nil
}

// setup はシナリオ実行前のセットアップ
func (e *Engine) setup() error {
	m := metrics.New(e.registerer)

	opts := []worker.Option{
		worker.WithName(e.config.Name),
		worker.WithObserver(m),
	}
	if e.eventBus != nil {
		opts = append(opts, worker.WithObserver(events.NewObserver(e.eventBus).SkipQueued()))
	}

	d, err := worker.Build(e.config.Workers, opts...)
	if err != nil {
		return fmt.Errorf("failed to build pool: %w", err)
	}

	clientConfig := client.DefaultConfig()
	clientConfig.Submitters = e.config.Submitters
	clientConfig.JobDuration = e.config.JobDuration
	cl := client.New(d, clientConfig)

	var injector *chaos.Injector
	if e.config.EnableChaos {
		chaosConfig := chaos.DefaultConfig()
		if e.config.FaultEvery > 0 {
			chaosConfig.Every = e.config.FaultEvery
		}
		if len(e.config.FaultTypes) > 0 {
			chaosConfig.FaultTypes = e.config.FaultTypes
		}
		if e.config.DelayDuration > 0 {
			chaosConfig.DelayDuration = e.config.DelayDuration
		}
		injector = chaos.New(chaosConfig)
		if e.eventBus != nil {
			injector.SetEventBus(e.eventBus)
		}
		cl.SetInjector(injector)
	}

	e.mu.Lock()
	e.metrics = m
	e.dispatcher = d
	e.client = cl
	e.injector = injector
	e.mu.Unlock()

	return nil
}

// collectResults は結果を収集する
func (e *Engine) collectResults(result *Result) {
	snapshot := e.metrics.Snapshot()
	result.Completed = snapshot.CompletedJobs
	result.Failed = snapshot.FailedJobs
	result.FailureRate = snapshot.FailureRate
	result.AvgLatency = snapshot.AverageLatency
	result.P99Latency = snapshot.P99Latency

	if e.config.Workers > 0 {
		result.ExpectedWaves = (e.config.Jobs + e.config.Workers - 1) / e.config.Workers
		result.IdealDuration = time.Duration(result.ExpectedWaves) * e.config.JobDuration
	}

	if e.injector != nil {
		result.TotalFaults = e.injector.FaultCount()
	}
}

// Report は結果をフォーマットして返す
func (r *Result) Report() string {
	return fmt.Sprintf(`
================================================================================
                         SCENARIO REPORT: %s
================================================================================

EXECUTION SUMMARY
-----------------
  Start Time:     %s
  End Time:       %s
  Duration:       %v

POOL
----
  Workers:          %d
  Jobs:             %d
  Expected Waves:   %d
  Ideal Duration:   %v

JOB METRICS
-----------
  Submitted:        %d
  Rejected:         %d
  Completed:        %d
  Failed:           %d
  Failure Rate:     %.2f%%
  Avg Latency:      %v
  P99 Latency:      %v

FAULT INJECTION
---------------
  Total Faults:     %d

================================================================================`,
		r.ScenarioName,
		r.StartTime.Format("2006-01-02 15:04:05"),
		r.EndTime.Format("2006-01-02 15:04:05"),
		r.Duration.Round(time.Millisecond),
		r.Workers,
		r.Jobs,
		r.ExpectedWaves,
		r.IdealDuration,
		r.Submitted,
		r.Rejected,
		r.Completed,
		r.Failed,
		r.FailureRate*100,
		r.AvgLatency.Round(time.Microsecond),
		r.P99Latency.Round(time.Microsecond),
		r.TotalFaults,
	)
}

// IsRunning は実行中かどうかを返す
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Metrics はメトリクスのスナップショットを返す
func (e *Engine) Metrics() *metrics.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.metrics == nil {
		return nil
	}
	snapshot := e.metrics.Snapshot()
	return &snapshot
}

// PoolStats はプールの統計情報を返す
func (e *Engine) PoolStats() *worker.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.dispatcher == nil {
		return nil
	}
	stats := e.dispatcher.Stats()
	return &stats
}

// FaultStats は障害注入の統計情報を返す
func (e *Engine) FaultStats() *chaos.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.injector == nil {
		return nil
	}
	stats := e.injector.Stats()
	return &stats
}
