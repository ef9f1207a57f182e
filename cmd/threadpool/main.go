// Package main is the entry point for the threadpool command.
//
// Subcommands:
//
//	run      run a workload scenario against a fresh pool and print a report
//	serve    start a pool behind the HTTP API until interrupted
//	presets  list the built-in scenarios
//	version  print the build version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"threadpool/internal/api"
	"threadpool/internal/config"
	"threadpool/internal/events"
	"threadpool/internal/logger"
	"threadpool/internal/metrics"
	"threadpool/internal/scenario"
	"threadpool/internal/worker"
)

var (
	version = "dev"
)

const shutdownTimeout = 30 * time.Second

func main() {
	root := &cobra.Command{
		Use:           "threadpool",
		Short:         "Fixed-size worker pool with workload scenarios and an HTTP API",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().String("config", "", "設定ファイルパス (YAML/JSON)")

	root.AddCommand(
		runCmd(),
		serveCmd(),
		presetsCmd(),
		versionCmd(),
	)

	if err := root.Execute(); err != nil {
		logger.Error("", "%v", err)
		os.Exit(1)
	}
}

// loadConfig は設定ファイルと環境変数を読み込み、ログレベルを反映する
func loadConfig(cmd *cobra.Command) (*config.FileConfig, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger.Default.SetLevel(level)

	return cfg, nil
}

// ── run ──────────────────────────────────────────────────────────────────────

type runFlags struct {
	preset      string
	workers     int
	jobs        int
	submitters  int
	jobDuration time.Duration
	chaos       bool
}

func runCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a workload scenario and print a report",
		Example: `  threadpool run --preset quick
  threadpool run --preset serial --jobs 16
  threadpool run --config scenario.yaml --chaos`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScenario(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.preset, "preset", "", "プリセットシナリオ名 (quick, serial, burst, faulty)")
	flags.IntVar(&f.workers, "workers", 0, "ワーカー数")
	flags.IntVar(&f.jobs, "jobs", 0, "投入するジョブ数")
	flags.IntVar(&f.submitters, "submitters", 0, "投入ゴルーチン数")
	flags.DurationVar(&f.jobDuration, "job-duration", 0, "1ジョブの処理時間 (例: 50ms)")
	flags.BoolVar(&f.chaos, "chaos", false, "障害注入を有効化")

	return cmd
}

// buildScenarioConfig はファイル設定にフラグを重ねてシナリオ設定を構築する
func buildScenarioConfig(cmd *cobra.Command, fc *config.FileConfig, f runFlags) (scenario.Config, error) {
	if f.preset != "" {
		fc.Scenario.Preset = f.preset
	}
	if f.workers > 0 {
		fc.Pool.Workers = f.workers
	}
	if f.jobs > 0 {
		fc.Scenario.Jobs = f.jobs
	}
	if f.submitters > 0 {
		fc.Scenario.Submitters = f.submitters
	}
	if f.chaos {
		fc.Scenario.Chaos.Enabled = true
	}

	cfg, err := fc.ToScenarioConfig()
	if err != nil {
		return cfg, err
	}

	// 0ms も有効な値なので、明示指定のときだけ上書きする
	if cmd.Flags().Changed("job-duration") {
		if f.jobDuration < 0 {
			return cfg, fmt.Errorf("job-duration must be non-negative")
		}
		cfg.JobDuration = f.jobDuration
	}

	return cfg, nil
}

// runScenario はシナリオを実行する
func runScenario(cmd *cobra.Command, f runFlags) error {
	fc, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cfg, err := buildScenarioConfig(cmd, fc, f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "threadpool - fixed-size worker pool")
	fmt.Fprintln(out, "====================================")
	fmt.Fprintf(out, "Scenario: %s\n", cfg.Name)
	fmt.Fprintf(out, "Workers: %d, Jobs: %d, Submitters: %d\n", cfg.Workers, cfg.Jobs, cfg.Submitters)
	fmt.Fprintf(out, "Job duration: %v, Chaos: %v\n", cfg.JobDuration, cfg.EnableChaos)
	fmt.Fprintln(out, "====================================")
	fmt.Fprintln(out)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := scenario.New(cfg)
	result, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, result.Report())
	return nil
}

// ── serve ────────────────────────────────────────────────────────────────────

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a worker pool behind the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "サーバーアドレス (例: :8080, 0.0.0.0:3000)")

	return cmd
}

func runServe(cmd *cobra.Command, addr string) error {
	fc, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr != "" {
		fc.Server.Addr = addr
	}

	serverConfig, err := fc.ToServerConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	bus := events.NewBus()
	defer bus.Close()

	d, err := worker.Build(fc.PoolSize(),
		worker.WithName(fc.Pool.Name),
		worker.WithObserver(metrics.New(reg)),
		worker.WithObserver(events.NewObserver(bus)),
	)
	if err != nil {
		return fmt.Errorf("pool: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(serverConfig, d, bus, reg)
	serveErr := server.Start(ctx)

	logger.Info("", "Shutting down pool %s", fc.Pool.Name)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if serveErr != nil {
		return fmt.Errorf("server error: %w", serveErr)
	}
	return nil
}

// ── presets / version ────────────────────────────────────────────────────────

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in scenarios",
		Run: func(cmd *cobra.Command, _ []string) {
			printPresets(cmd)
		},
	}
}

// printPresets は利用可能なプリセットを表示する
func printPresets(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "利用可能なプリセットシナリオ:")
	fmt.Fprintln(out)

	for _, name := range scenario.ListPresets() {
		preset, _ := scenario.GetPreset(name)
		fmt.Fprintf(out, "  %-8s %s\n", name, preset.Description)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "使用例: threadpool run --preset quick")
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "threadpool version %s\n", version)
		},
	}
}
