package worker

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Worker は Dispatcher のキューを処理し続けるゴルーチン
type Worker struct {
	id   int
	done chan struct{}
}

func startWorker(id int, d *Dispatcher) *Worker {
	w := &Worker{
		id:   id,
		done: make(chan struct{}),
	}
	go w.run(d)
	return w
}

// ID はワーカーIDを返す
func (w *Worker) ID() int {
	return w.id
}

// Done はワーカー終了時にクローズされるチャネルを返す
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) scope() string {
	return fmt.Sprintf("worker-%d", w.id)
}

// run はキューが閉じられ空になるまでジョブを処理し続ける
func (w *Worker) run(d *Dispatcher) {
	defer close(w.done)

	for {
		// ロックは1件取り出す間だけ保持される
		e, ok := d.queue.pop()
		if !ok {
			d.log.Debug(w.scope(), "Worker %d exiting; queue closed", w.id)
			return
		}

		d.log.Info("", "Worker %d got a job; executing.", w.id)
		w.execute(d, e)
	}
}

func (w *Worker) execute(d *Dispatcher, e entry) {
	d.busy.Add(1)
	d.notify(w.scope(), func(o Observer) { o.JobStarted(w.id, e.id) })

	start := time.Now()
	err := call(e.fn)
	elapsed := time.Since(start)

	d.busy.Add(-1)
	if err != nil {
		d.failed.Add(1)
		d.log.Error(w.scope(), "Job %s failed: %v", e.id, err)
	} else {
		d.completed.Add(1)
	}

	d.notify(w.scope(), func(o Observer) { o.JobFinished(w.id, e.id, elapsed, err) })
	if e.handle != nil {
		e.handle.complete(err)
	}
}

// call は fn を実行し、panicを *PanicError に変換する
func call(fn Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	fn()
	return nil
}
