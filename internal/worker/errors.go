package worker

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize はプールサイズが正でないときに Build が返す
	ErrInvalidSize = errors.New("invalid pool size provided")
	// ErrPoolClosed はシャットダウン開始後の投入で返る
	ErrPoolClosed = errors.New("pool closed")
	// ErrNilJob は nil ジョブの投入で返る
	ErrNilJob = errors.New("nil job")
	// ErrJobPanicked はすべての *PanicError にマッチする
	ErrJobPanicked = errors.New("job panicked")
)

// PanicError はジョブ実行中に回収されたpanicを表す
type PanicError struct {
	Value any
	Stack []byte
}

// Error はpanicの値を含むメッセージを返す
func (e *PanicError) Error() string {
	return fmt.Sprintf("job panicked: %v", e.Value)
}

// Is は ErrJobPanicked との比較を可能にする
func (e *PanicError) Is(target error) bool {
	return target == ErrJobPanicked
}

// Unwrap はpanicの値がerrorの場合にそれを返す
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
