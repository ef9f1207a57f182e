package scenario

import (
	"time"

	"threadpool/internal/chaos"
)

// QuickScenario はクイックテスト用シナリオを返す
// 4ワーカーに50msのジョブを8件、2ウェーブで完了する
func QuickScenario() Config {
	return Config{
		Name:        "quick",
		Description: "Two waves of sleeping jobs on four workers",
		Workers:     4,
		Jobs:        8,
		Submitters:  1,
		JobDuration: 50 * time.Millisecond,
	}
}

// SerialScenario は1ワーカーでの比較用シナリオを返す
func SerialScenario() Config {
	return Config{
		Name:        "serial",
		Description: "Same workload on a single worker for comparison",
		Workers:     1,
		Jobs:        8,
		Submitters:  1,
		JobDuration: 50 * time.Millisecond,
	}
}

// BurstScenario は高負荷シナリオを返す
// 多数の投入ゴルーチンから短いジョブを大量に投入する
func BurstScenario() Config {
	return Config{
		Name:        "burst",
		Description: "Many concurrent submitters flooding the queue with short jobs",
		Workers:     8,
		Jobs:        10000,
		Submitters:  16,
		JobDuration: 0,
	}
}

// FaultyScenario は耐障害性テストシナリオを返す
// panicと遅延を注入してもワーカー数が維持されることを確認する
func FaultyScenario() Config {
	return Config{
		Name:          "faulty",
		Description:   "Panicking and delayed jobs; pool capacity must survive",
		Workers:       4,
		Jobs:          100,
		Submitters:    2,
		JobDuration:   5 * time.Millisecond,
		EnableChaos:   true,
		FaultEvery:    5,
		FaultTypes:    []chaos.FaultType{chaos.FaultPanic, chaos.FaultDelay},
		DelayDuration: 20 * time.Millisecond,
	}
}

// GetPreset は名前からプリセットシナリオを取得する
func GetPreset(name string) (Config, bool) {
	presets := map[string]func() Config{
		"quick":  QuickScenario,
		"serial": SerialScenario,
		"burst":  BurstScenario,
		"faulty": FaultyScenario,
	}

	if fn, ok := presets[name]; ok {
		return fn(), true
	}
	return Config{}, false
}

// ListPresets は利用可能なプリセット名を返す
func ListPresets() []string {
	return []string{"quick", "serial", "burst", "faulty"}
}
