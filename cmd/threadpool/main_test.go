package main

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadpool/internal/config"
)

func newRoot(out io.Writer, sub *cobra.Command) *cobra.Command {
	root := &cobra.Command{Use: "threadpool", SilenceErrors: true, SilenceUsage: true}
	root.PersistentFlags().String("config", "", "")
	root.AddCommand(sub)
	root.SetOut(out)
	root.SetErr(out)
	return root
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	root := newRoot(&buf, versionCmd())
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "threadpool version dev\n", buf.String())
}

func TestPresetsCommand(t *testing.T) {
	var buf bytes.Buffer
	root := newRoot(&buf, presetsCmd())
	root.SetArgs([]string{"presets"})

	require.NoError(t, root.Execute())
	for _, name := range []string{"quick", "serial", "burst", "faulty"} {
		assert.Contains(t, buf.String(), name)
	}
}

func TestBuildScenarioConfigFlags(t *testing.T) {
	cmd := runCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--job-duration", "0s"}))

	f := runFlags{preset: "serial", workers: 3, jobs: 12, submitters: 2, chaos: true}
	cfg, err := buildScenarioConfig(cmd, config.Default(), f)
	require.NoError(t, err)

	assert.Equal(t, "serial", cfg.Name)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 12, cfg.Jobs)
	assert.Equal(t, 2, cfg.Submitters)
	assert.True(t, cfg.EnableChaos)
	assert.Equal(t, time.Duration(0), cfg.JobDuration)
}

func TestBuildScenarioConfigKeepsPresetDuration(t *testing.T) {
	cmd := runCmd()
	require.NoError(t, cmd.ParseFlags(nil))

	cfg, err := buildScenarioConfig(cmd, config.Default(), runFlags{preset: "quick"})
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.JobDuration)
}

func TestBuildScenarioConfigUnknownPreset(t *testing.T) {
	cmd := runCmd()
	_, err := buildScenarioConfig(cmd, config.Default(), runFlags{preset: "nope"})
	assert.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	var buf bytes.Buffer
	root := newRoot(&buf, runCmd())
	root.SetArgs([]string{"run", "--preset", "quick", "--jobs", "4", "--job-duration", "1ms"})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "Scenario: quick")
	assert.Contains(t, buf.String(), "Workers: 4, Jobs: 4")
}
