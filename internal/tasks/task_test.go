package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingTask runs until its context is cancelled.
type blockingTask struct {
	runner
	name string
}

func (t *blockingTask) Name() string        { return t.name }
func (t *blockingTask) Description() string { return "blocks until stopped" }
func (t *blockingTask) Start(ctx context.Context) error {
	return t.begin(ctx, func(ctx context.Context) { <-ctx.Done() })
}
func (t *blockingTask) Stop() error    { return t.halt() }
func (t *blockingTask) Running() bool  { return t.isRunning() }
func (t *blockingTask) Status() Status { return t.snapshot(t.name, t.Description()) }
func (t *blockingTask) Reset() error   { return t.resetCounters() }

func TestRunnerLifecycle(t *testing.T) {
	task := &blockingTask{name: "block"}

	assert.ErrorIs(t, task.Stop(), ErrNotRunning)

	require.NoError(t, task.Start(context.Background()))
	assert.True(t, task.Running())
	assert.ErrorIs(t, task.Start(context.Background()), ErrAlreadyRunning)
	assert.ErrorIs(t, task.Reset(), ErrAlreadyRunning)

	require.NoError(t, task.Stop())
	assert.False(t, task.Running())

	status := task.Status()
	require.NotNil(t, status.StartTime)
	require.NotNil(t, status.EndTime)
	assert.False(t, status.EndTime.Before(*status.StartTime))
}

func TestRunnerRestartAfterStop(t *testing.T) {
	task := &blockingTask{name: "block"}
	require.NoError(t, task.Start(context.Background()))
	require.NoError(t, task.Stop())

	require.NoError(t, task.Start(context.Background()))
	assert.True(t, task.Running())
	require.NoError(t, task.Stop())
}

func TestRunnerResetClearsProgress(t *testing.T) {
	task := &blockingTask{name: "block"}
	require.NoError(t, task.Start(context.Background()))
	task.addProcessed(5)
	task.markDone()
	require.NoError(t, task.Stop())

	require.NoError(t, task.Reset())
	status := task.Status()
	assert.Equal(t, int64(0), status.Processed)
	assert.False(t, status.Done)
	assert.Nil(t, status.StartTime)
	assert.Nil(t, status.EndTime)
}

func TestRunnerParentCancelStopsTask(t *testing.T) {
	task := &blockingTask{name: "block"}
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, task.Start(ctx))

	cancel()
	require.Eventually(t, func() bool { return !task.Running() },
		time.Second, 10*time.Millisecond)
}

func TestManagerListPreservesRegistrationOrder(t *testing.T) {
	a := &blockingTask{name: "alpha"}
	b := &blockingTask{name: "beta"}
	m := NewManager(a, b)

	got, ok := m.Get("beta")
	require.True(t, ok)
	assert.Equal(t, b, got)
	_, ok = m.Get("gamma")
	assert.False(t, ok)

	statuses := m.List()
	require.Len(t, statuses, 2)
	assert.Equal(t, "alpha", statuses[0].Name)
	assert.Equal(t, "beta", statuses[1].Name)
}

func TestManagerStopAll(t *testing.T) {
	a := &blockingTask{name: "alpha"}
	b := &blockingTask{name: "beta"}
	m := NewManager(a, b)

	require.NoError(t, a.Start(context.Background()))
	m.StopAll()
	assert.False(t, a.Running())
	assert.False(t, b.Running())
}
