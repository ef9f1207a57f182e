package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"threadpool/internal/chaos"
	"threadpool/internal/logger"
	"threadpool/internal/worker"
)

// Config はClientの設定
type Config struct {
	Submitters  int           // 投入ゴルーチン数（0で1）
	JobDuration time.Duration // ジョブ1件あたりの処理時間
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Submitters:  1,
		JobDuration: 50 * time.Millisecond,
	}
}

// Result は負荷生成の結果
type Result struct {
	Submitted uint64
	Rejected  uint64
	Completed uint64
	Failed    uint64
	Elapsed   time.Duration
}

// Client は負荷生成器
type Client struct {
	config     Config
	dispatcher *worker.Dispatcher
	injector   *chaos.Injector

	running atomic.Bool
}

// New は新しいClientを作成する
func New(d *worker.Dispatcher, config Config) *Client {
	if config.Submitters <= 0 {
		config.Submitters = 1
	}
	return &Client{
		config:     config,
		dispatcher: d,
	}
}

// SetInjector は障害注入器を設定する
func (c *Client) SetInjector(i *chaos.Injector) {
	c.injector = i
}

// IsRunning は実行中かどうかを返す
func (c *Client) IsRunning() bool {
	return c.running.Load()
}

// RunJobs は count 件のジョブを投入し、全件の完了か ctx の終了まで待つ
// Dispatcher に拒否されたジョブは再試行せずに数える
func (c *Client) RunJobs(ctx context.Context, count int) (*Result, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, errors.New("client is already running")
	}
	defer c.running.Store(false)

	logger.Info("client", "Submitting %d jobs (submitters: %d, job duration: %v)",
		count, c.config.Submitters, c.config.JobDuration)

	var (
		res     Result
		mu      sync.Mutex
		handles = make([]*worker.Handle, 0, count)
		next    atomic.Int64
		wg      sync.WaitGroup
	)

	start := time.Now()

	for range c.config.Submitters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for next.Add(1) <= int64(count) {
				if ctx.Err() != nil {
					return
				}
				h, err := c.dispatcher.Submit(c.createJob())
				if err != nil {
					atomic.AddUint64(&res.Rejected, 1)
					continue
				}
				atomic.AddUint64(&res.Submitted, 1)
				mu.Lock()
				handles = append(handles, h)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	for _, h := range handles {
		if err := h.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				res.Elapsed = time.Since(start)
				return &res, fmt.Errorf("waiting for jobs: %w", ctx.Err())
			}
			res.Failed++
			continue
		}
		res.Completed++
	}

	res.Elapsed = time.Since(start)
	return &res, nil
}

// createJob は合成ジョブを作成する
func (c *Client) createJob() worker.Job {
	d := c.config.JobDuration
	job := worker.Job(func() {
		if d > 0 {
			time.Sleep(d)
		}
	})
	if c.injector != nil {
		job = c.injector.Wrap(job)
	}
	return job
}
