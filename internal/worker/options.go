package worker

import (
	"time"

	"threadpool/internal/logger"
)

// Observer はジョブのライフサイクル通知を受け取る
// メソッドは同期的に呼ばれるのでブロックしてはならない。
// Observer 内のpanicは回収されてログに残り、ジョブとワーカーには影響しない
type Observer interface {
	JobQueued(jobID string)
	JobStarted(workerID int, jobID string)
	JobFinished(workerID int, jobID string, elapsed time.Duration, err error)
}

// Option は Dispatcher の設定を変更する
type Option func(*Dispatcher)

// WithLogger はプールとワーカーのログ出力先を設定する
// ジョブごとの "Worker N got a job; executing." は Info で出力されるため、
// Warn 以上のレベルを設定すると出力されない
func WithLogger(l *logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithName はログに使うプール名を設定する
func WithName(name string) Option {
	return func(d *Dispatcher) {
		if name != "" {
			d.name = name
		}
	}
}

// WithObserver はオブザーバーを追加する。複数回指定できる
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		if o != nil {
			d.observers = append(d.observers, o)
		}
	}
}
