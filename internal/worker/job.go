package worker

import "context"

// Job はワーカーが実行するジョブを表す
type Job func()

// entry はキューに積まれる1件のジョブ
type entry struct {
	id     string
	fn     Job
	handle *Handle
}

// Handle は Submit で投入したジョブの完了を通知する
type Handle struct {
	id   string
	done chan struct{}
	err  error
}

func newHandle(id string) *Handle {
	return &Handle{
		id:   id,
		done: make(chan struct{}),
	}
}

// ID はジョブIDを返す
func (h *Handle) ID() string {
	return h.id
}

// Done はジョブ完了時にクローズされるチャネルを返す
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err はジョブの結果を返す。完了前は nil
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait はジョブの完了か ctx の終了まで待機する
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// complete は一度だけ呼ばれる
func (h *Handle) complete(err error) {
	h.err = err
	close(h.done)
}
