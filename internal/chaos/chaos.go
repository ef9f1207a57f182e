package chaos

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"threadpool/internal/events"
	"threadpool/internal/logger"
	"threadpool/internal/worker"
)

// FaultType は障害の種類を表す
type FaultType int

const (
	FaultPanic FaultType = iota
	FaultDelay
)

func (f FaultType) String() string {
	switch f {
	case FaultPanic:
		return "panic"
	case FaultDelay:
		return "delay"
	default:
		return "unknown"
	}
}

// ParseFaultType は文字列の障害タイプをパースする
func ParseFaultType(s string) (FaultType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "panic":
		return FaultPanic, nil
	case "delay":
		return FaultDelay, nil
	default:
		return FaultPanic, fmt.Errorf("unknown fault type: %s", s)
	}
}

// Config はInjectorの設定
type Config struct {
	Every         int           // N件に1件障害を注入（0で無効）
	FaultTypes    []FaultType   // 有効な障害タイプ（順番に適用）
	DelayDuration time.Duration // Delay障害の遅延時間
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Every:         10,
		FaultTypes:    []FaultType{FaultPanic, FaultDelay},
		DelayDuration: 100 * time.Millisecond,
	}
}

// Stats は障害注入の統計情報
type Stats struct {
	TotalFaults uint64            `json:"total_faults"`
	ByType      map[string]uint64 `json:"faults_by_type"`
}

// InjectedPanic は注入したpanicの値
type InjectedPanic struct {
	Seq uint64
}

func (p InjectedPanic) String() string {
	return fmt.Sprintf("injected fault #%d", p.Seq)
}

// Injector はジョブに障害を注入する
type Injector struct {
	config   Config
	eventBus *events.Bus

	seq    atomic.Uint64
	faults atomic.Uint64

	mu     sync.Mutex
	byType map[FaultType]uint64
}

// New は新しいInjectorを作成する
func New(config Config) *Injector {
	return &Injector{
		config: config,
		byType: make(map[FaultType]uint64),
	}
}

// SetEventBus はイベントバスを設定する
func (i *Injector) SetEventBus(bus *events.Bus) {
	i.eventBus = bus
}

// publishEvent はイベントを発行する
func (i *Injector) publishEvent(event events.Event) {
	if i.eventBus != nil {
		i.eventBus.Publish(event)
	}
}

// Wrap は Every 件ごとのジョブに障害を注入したジョブを返す
// それ以外はそのまま返す
func (i *Injector) Wrap(job worker.Job) worker.Job {
	if i.config.Every <= 0 || job == nil {
		return job
	}

	seq := i.seq.Add(1)
	if seq%uint64(i.config.Every) != 0 {
		return job
	}

	n := i.faults.Add(1)
	fault := i.selectFaultType(n)

	i.mu.Lock()
	i.byType[fault]++
	i.mu.Unlock()

	switch fault {
	case FaultDelay:
		delay := i.config.DelayDuration
		logger.Debug("chaos", "Injecting %v delay into job #%d", delay, seq)
		i.publishEvent(events.NewFaultInjectedEvent(fault.String(), delay))
		return func() {
			time.Sleep(delay)
			job()
		}
	default:
		logger.Debug("chaos", "Injecting panic into job #%d", seq)
		i.publishEvent(events.NewFaultInjectedEvent(fault.String(), 0))
		return func() {
			panic(InjectedPanic{Seq: n})
		}
	}
}

// selectFaultType は n 番目（1始まり）の障害のタイプを順番に選択する
func (i *Injector) selectFaultType(n uint64) FaultType {
	if len(i.config.FaultTypes) == 0 {
		return FaultPanic
	}
	idx := int((n - 1) % uint64(len(i.config.FaultTypes)))
	return i.config.FaultTypes[idx]
}

// FaultCount は注入した障害の総数を返す
func (i *Injector) FaultCount() uint64 {
	return i.faults.Load()
}

// Stats は障害注入の統計情報を返す
func (i *Injector) Stats() Stats {
	i.mu.Lock()
	defer i.mu.Unlock()

	byType := make(map[string]uint64, len(i.byType))
	for t, c := range i.byType {
		byType[t.String()] = c
	}
	return Stats{
		TotalFaults: i.faults.Load(),
		ByType:      byType,
	}
}
