package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"threadpool/internal/logger"
)

// Stats はプールの統計情報
type Stats struct {
	Name      string `json:"name"`
	Size      int    `json:"size"`
	Queued    int    `json:"queued"`
	Busy      int    `json:"busy"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
	Closed    bool   `json:"closed"`
}

// Dispatcher は作業キューとそれを処理するワーカーを所有する
type Dispatcher struct {
	name      string
	log       *logger.Logger
	observers []Observer

	queue   *queue
	workers []*Worker

	busy      atomic.Int64
	completed atomic.Uint64
	failed    atomic.Uint64

	stopOnce sync.Once
}

// Build はサイズを検証し、ちょうど size 個のワーカーを起動する
// size が正でなければ ErrInvalidSize にマッチするエラーを返し、何も起動しない
func Build(size int, opts ...Option) (*Dispatcher, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	d := &Dispatcher{
		name:  "pool",
		log:   logger.Default,
		queue: newQueue(),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.workers = make([]*Worker, 0, size)
	for id := range size {
		d.workers = append(d.workers, startWorker(id, d))
	}

	d.log.Info(d.name, "Dispatcher started with %d workers", size)
	return d, nil
}

// Execute はジョブをキューに投入し、すぐに戻る
func (d *Dispatcher) Execute(job Job) error {
	_, err := d.enqueue(job, false)
	return err
}

// Submit はジョブを投入し、完了を待つための Handle を返す
func (d *Dispatcher) Submit(job Job) (*Handle, error) {
	return d.enqueue(job, true)
}

func (d *Dispatcher) enqueue(job Job, withHandle bool) (*Handle, error) {
	if job == nil {
		return nil, ErrNilJob
	}

	e := entry{
		id: uuid.NewString(),
		fn: job,
	}
	if withHandle {
		e.handle = newHandle(e.id)
	}

	err := d.queue.push(e, func() {
		d.notify(d.name, func(o Observer) { o.JobQueued(e.id) })
	})
	if err != nil {
		return nil, err
	}
	return e.handle, nil
}

// notify は全オブザーバーに fn を適用する。panicは回収してログに残す
func (d *Dispatcher) notify(scope string, fn func(Observer)) {
	for _, o := range d.observers {
		if err := call(func() { fn(o) }); err != nil {
			d.log.Error(scope, "Observer %T failed: %v", o, err)
		}
	}
}

// Shutdown はキューを閉じ、投入済みのジョブを処理させてから全ワーカーの終了を待つ
// 先に ctx が終了した場合はそのエラーを返し、ワーカーはバックグラウンドで処理を続ける
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	if d.queue.close() {
		d.log.Info(d.name, "Dispatcher shutting down (%d jobs queued)", d.queue.len())
	}

	for _, w := range d.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			return fmt.Errorf("shutdown %s: %w", d.name, ctx.Err())
		}
	}

	d.stopOnce.Do(func() {
		d.log.Info(d.name, "Dispatcher stopped (completed: %d, failed: %d)",
			d.completed.Load(), d.failed.Load())
	})
	return nil
}

// Size はワーカー数を返す
func (d *Dispatcher) Size() int {
	return len(d.workers)
}

// Workers はワーカーの一覧を返す
func (d *Dispatcher) Workers() []*Worker {
	workers := make([]*Worker, len(d.workers))
	copy(workers, d.workers)
	return workers
}

// Stats は現在の統計情報を返す
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Name:      d.name,
		Size:      len(d.workers),
		Queued:    d.queue.len(),
		Busy:      int(d.busy.Load()),
		Completed: d.completed.Load(),
		Failed:    d.failed.Load(),
		Closed:    d.queue.isClosed(),
	}
}
