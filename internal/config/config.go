// Package config はYAML/JSONの設定ファイルを読み込み、THREADPOOL_* 環境変数で上書きする
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"threadpool/internal/api"
	"threadpool/internal/chaos"
	"threadpool/internal/logger"
	"threadpool/internal/scenario"
)

// EnvPrefix は環境変数名の接頭辞
const EnvPrefix = "THREADPOOL_"

// FileConfig は設定ファイルの構造
type FileConfig struct {
	Pool     PoolConfig     `yaml:"pool" json:"pool" envPrefix:"POOL_"`
	Log      LogConfig      `yaml:"log" json:"log" envPrefix:"LOG_"`
	Server   ServerConfig   `yaml:"server" json:"server" envPrefix:"SERVER_"`
	Scenario ScenarioConfig `yaml:"scenario" json:"scenario" envPrefix:"SCENARIO_"`
}

// PoolConfig はワーカープール設定
type PoolConfig struct {
	Workers int    `yaml:"workers" json:"workers" env:"WORKERS"` // 0でCPU数
	Name    string `yaml:"name" json:"name" env:"NAME"`
}

// LogConfig はログ設定
type LogConfig struct {
	Level string `yaml:"level" json:"level" env:"LEVEL"`
}

// ServerConfig はAPIサーバー設定
type ServerConfig struct {
	Addr           string  `yaml:"addr" json:"addr" env:"ADDR"`
	SubmitRate     float64 `yaml:"submit_rate" json:"submit_rate" env:"SUBMIT_RATE"`
	SubmitBurst    int     `yaml:"submit_burst" json:"submit_burst" env:"SUBMIT_BURST"`
	MaxJobDuration string  `yaml:"max_job_duration" json:"max_job_duration" env:"MAX_JOB_DURATION"`
}

// ScenarioConfig はシナリオ設定
type ScenarioConfig struct {
	Preset      string      `yaml:"preset" json:"preset" env:"PRESET"`
	Jobs        int         `yaml:"jobs" json:"jobs" env:"JOBS"`
	Submitters  int         `yaml:"submitters" json:"submitters" env:"SUBMITTERS"`
	JobDuration string      `yaml:"job_duration" json:"job_duration" env:"JOB_DURATION"`
	Chaos       ChaosConfig `yaml:"chaos" json:"chaos" envPrefix:"CHAOS_"`
}

// ChaosConfig は障害注入設定
type ChaosConfig struct {
	Enabled    bool     `yaml:"enabled" json:"enabled" env:"ENABLED"`
	Every      int      `yaml:"every" json:"every" env:"EVERY"`
	FaultTypes []string `yaml:"fault_types" json:"fault_types" env:"FAULT_TYPES" envSeparator:","`
	Delay      string   `yaml:"delay" json:"delay" env:"DELAY"`
}

// Default はデフォルト設定を返す
func Default() *FileConfig {
	return &FileConfig{
		Pool: PoolConfig{
			Name: "pool",
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			SubmitRate:     50,
			SubmitBurst:    100,
			MaxJobDuration: "10s",
		},
	}
}

// Load はデフォルト値に設定ファイル（指定時）と環境変数を重ね、検証して返す
func Load(path string) (*FileConfig, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile は設定ファイルを読み込む
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return config, nil
}

// ApplyEnv は環境変数で設定を上書きする
func (f *FileConfig) ApplyEnv() error {
	if err := env.ParseWithOptions(f, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// Validate は設定を検証する
func (f *FileConfig) Validate() error {
	if f.Pool.Workers < 0 {
		return fmt.Errorf("pool.workers must be non-negative")
	}

	if _, err := logger.ParseLevel(f.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	if f.Server.SubmitRate < 0 {
		return fmt.Errorf("server.submit_rate must be non-negative")
	}
	if f.Server.SubmitBurst < 0 {
		return fmt.Errorf("server.submit_burst must be non-negative")
	}
	if _, err := parseDuration(f.Server.MaxJobDuration); err != nil {
		return fmt.Errorf("server.max_job_duration: %w", err)
	}

	sc := f.Scenario
	if sc.Jobs < 0 {
		return fmt.Errorf("scenario.jobs must be non-negative")
	}
	if sc.Submitters < 0 {
		return fmt.Errorf("scenario.submitters must be non-negative")
	}
	if _, err := parseDuration(sc.JobDuration); err != nil {
		return fmt.Errorf("scenario.job_duration: %w", err)
	}
	if sc.Chaos.Every < 0 {
		return fmt.Errorf("scenario.chaos.every must be non-negative")
	}
	if _, err := parseDuration(sc.Chaos.Delay); err != nil {
		return fmt.Errorf("scenario.chaos.delay: %w", err)
	}
	if _, err := parseFaultTypes(sc.Chaos.FaultTypes); err != nil {
		return err
	}

	return nil
}

// PoolSize はワーカー数を返す。0の場合はCPU数
func (f *FileConfig) PoolSize() int {
	if f.Pool.Workers > 0 {
		return f.Pool.Workers
	}
	return runtime.NumCPU()
}

// LogLevel はログレベルを返す
func (f *FileConfig) LogLevel() (logger.Level, error) {
	return logger.ParseLevel(f.Log.Level)
}

// ToServerConfig はFileConfigをapi.Configに変換する
func (f *FileConfig) ToServerConfig() (api.Config, error) {
	config := api.DefaultConfig()

	if f.Server.Addr != "" {
		config.Addr = f.Server.Addr
	}
	// 0 は無制限を意味するのでそのまま渡す
	config.SubmitRate = f.Server.SubmitRate
	if f.Server.SubmitBurst > 0 {
		config.SubmitBurst = f.Server.SubmitBurst
	}
	d, err := parseDuration(f.Server.MaxJobDuration)
	if err != nil {
		return config, fmt.Errorf("invalid max job duration: %w", err)
	}
	if d > 0 {
		config.MaxJobDuration = d
	}

	return config, nil
}

// ToScenarioConfig はFileConfigをscenario.Configに変換する
// プリセットが指定されていればそれを基点にする
func (f *FileConfig) ToScenarioConfig() (scenario.Config, error) {
	sc := f.Scenario

	config := scenario.DefaultConfig()
	if sc.Preset != "" {
		preset, ok := scenario.GetPreset(sc.Preset)
		if !ok {
			return config, fmt.Errorf("unknown preset: %s (available: %v)", sc.Preset, scenario.ListPresets())
		}
		config = preset
	}

	if f.Pool.Workers > 0 {
		config.Workers = f.Pool.Workers
	}
	if sc.Jobs > 0 {
		config.Jobs = sc.Jobs
	}
	if sc.Submitters > 0 {
		config.Submitters = sc.Submitters
	}
	if sc.JobDuration != "" {
		d, err := time.ParseDuration(sc.JobDuration)
		if err != nil {
			return config, fmt.Errorf("invalid job duration: %w", err)
		}
		config.JobDuration = d
	}

	// 障害注入設定
	if sc.Chaos.Enabled {
		config.EnableChaos = true
	}
	if sc.Chaos.Every > 0 {
		config.FaultEvery = sc.Chaos.Every
	}
	if len(sc.Chaos.FaultTypes) > 0 {
		faults, err := parseFaultTypes(sc.Chaos.FaultTypes)
		if err != nil {
			return config, err
		}
		config.FaultTypes = faults
	}
	if sc.Chaos.Delay != "" {
		d, err := time.ParseDuration(sc.Chaos.Delay)
		if err != nil {
			return config, fmt.Errorf("invalid chaos delay: %w", err)
		}
		config.DelayDuration = d
	}

	return config, nil
}

// parseFaultTypes は文字列の障害タイプをパースする
func parseFaultTypes(types []string) ([]chaos.FaultType, error) {
	var faults []chaos.FaultType

	for _, t := range types {
		f, err := chaos.ParseFaultType(t)
		if err != nil {
			return nil, err
		}
		faults = append(faults, f)
	}

	return faults, nil
}

// parseDuration は空文字を0として扱う
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must be non-negative, got %s", s)
	}
	return d, nil
}
