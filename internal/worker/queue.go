package worker

import "sync"

// queue は Dispatcher の全ワーカーが共有する上限なしのFIFO
type queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []entry
	closed bool
}

func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push はジョブを末尾に追加する。onQueued はロック内で呼ばれる
func (q *queue) push(e entry, onQueued func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrPoolClosed
	}
	q.items = append(q.items, e)
	if onQueued != nil {
		onQueued()
	}
	q.cond.Signal()
	return nil
}

// pop はジョブが取り出せるまでブロックする
// キューが閉じられて空になると false を返す
func (q *queue) pop() (entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return entry{}, false
	}

	e := q.items[0]
	q.items[0] = entry{}
	q.items = q.items[1:]
	return e, true
}

// close は新規投入を拒否し、待機中の全ワーカーを起こす
func (q *queue) close() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.closed = true
	q.cond.Broadcast()
	return true
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *queue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
