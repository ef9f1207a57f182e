package client

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadpool/internal/chaos"
	"threadpool/internal/logger"
	"threadpool/internal/worker"
)

func newDispatcher(t *testing.T, size int) *worker.Dispatcher {
	t.Helper()
	d, err := worker.Build(size, worker.WithLogger(logger.New(io.Discard, logger.LevelError)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Shutdown(context.Background()) })
	return d
}

func TestDefaultClientConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 1, config.Submitters)
	assert.Equal(t, 50*time.Millisecond, config.JobDuration)
}

func TestNewClientNormalizesSubmitters(t *testing.T) {
	cl := New(newDispatcher(t, 1), Config{Submitters: -2})

	assert.Equal(t, 1, cl.config.Submitters)
	assert.False(t, cl.IsRunning())
}

func TestRunJobs(t *testing.T) {
	d := newDispatcher(t, 4)
	cl := New(d, Config{Submitters: 3, JobDuration: time.Millisecond})

	res, err := cl.RunJobs(context.Background(), 40)
	require.NoError(t, err)

	assert.Equal(t, uint64(40), res.Submitted)
	assert.Equal(t, uint64(40), res.Completed)
	assert.Zero(t, res.Rejected)
	assert.Zero(t, res.Failed)
	assert.False(t, cl.IsRunning())
}

func TestRunJobsCountsFaults(t *testing.T) {
	d := newDispatcher(t, 2)
	cl := New(d, Config{Submitters: 1})
	cl.SetInjector(chaos.New(chaos.Config{Every: 4, FaultTypes: []chaos.FaultType{chaos.FaultPanic}}))

	res, err := cl.RunJobs(context.Background(), 20)
	require.NoError(t, err)

	assert.Equal(t, uint64(5), res.Failed)
	assert.Equal(t, uint64(15), res.Completed)
	assert.Equal(t, uint64(5), d.Stats().Failed)
}

func TestRunJobsAfterShutdownRejects(t *testing.T) {
	d := newDispatcher(t, 1)
	require.NoError(t, d.Shutdown(context.Background()))

	res, err := New(d, DefaultConfig()).RunJobs(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, uint64(3), res.Rejected)
	assert.Zero(t, res.Submitted)
}

func TestRunJobsContextCancel(t *testing.T) {
	d := newDispatcher(t, 1)
	cl := New(d, Config{Submitters: 1, JobDuration: 200 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := cl.RunJobs(ctx, 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
