package workerpool_test

import (
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dedsec-deck/deckd/internal/workerpool"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := workerpool.New(2, 8, discardLogger())
	defer p.Shutdown()

	var ran atomic.Int32
	var tasks []*workerpool.Task
	for i := 0; i < 5; i++ {
		task, err := p.Submit(func() { ran.Add(1) })
		require.NoError(t, err)
		tasks = append(tasks, task)
	}
	for _, task := range tasks {
		task.Wait()
	}
	assert.Equal(t, int32(5), ran.Load())
}

func TestPoolCancelBeforeStart(t *testing.T) {
	// One worker, blocked: anything submitted after the blocker stays
	// pending and can be withdrawn.
	p := workerpool.New(1, 8, discardLogger())
	defer p.Shutdown()

	release := make(chan struct{})
	blocker, err := p.Submit(func() { <-release })
	require.NoError(t, err)

	var ran atomic.Bool
	pending, err := p.Submit(func() { ran.Store(true) })
	require.NoError(t, err)

	assert.True(t, pending.Cancel())
	assert.True(t, pending.Canceled())

	close(release)
	blocker.Wait()
	pending.Wait()
	assert.False(t, ran.Load(), "a withdrawn task must never run")
}

func TestPoolCancelAfterStartFails(t *testing.T) {
	p := workerpool.New(1, 8, discardLogger())
	defer p.Shutdown()

	started := make(chan struct{})
	release := make(chan struct{})
	task, err := p.Submit(func() {
		close(started)
		<-release
	})
	require.NoError(t, err)

	<-started
	assert.False(t, task.Cancel(), "a running task cannot be withdrawn")
	close(release)
	task.Wait()
	assert.False(t, task.Canceled())
}

func TestPoolQueueFull(t *testing.T) {
	p := workerpool.New(1, 1, discardLogger())
	defer p.Shutdown()

	release := make(chan struct{})
	defer close(release)

	_, err := p.Submit(func() { <-release })
	require.NoError(t, err)

	// Give the worker a moment to take the blocker off the queue.
	deadline := time.Now().Add(time.Second)
	var queued *workerpool.Task
	for time.Now().Before(deadline) {
		queued, err = p.Submit(func() { <-release })
		if err == nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, err)
	require.NotNil(t, queued)

	_, err = p.Submit(func() {})
	assert.ErrorIs(t, err, workerpool.ErrQueueFull)
}

func TestPoolSubmitAfterShutdown(t *testing.T) {
	p := workerpool.New(2, 8, discardLogger())
	p.Shutdown()

	_, err := p.Submit(func() {})
	assert.ErrorIs(t, err, workerpool.ErrPoolClosed)
}

func TestPoolShutdownDrainsQueue(t *testing.T) {
	p := workerpool.New(1, 8, discardLogger())

	var ran atomic.Int32
	for i := 0; i < 4; i++ {
		_, err := p.Submit(func() { ran.Add(1) })
		require.NoError(t, err)
	}

	p.Shutdown()
	assert.Equal(t, int32(4), ran.Load())
}

func TestPoolShutdownIdempotent(t *testing.T) {
	p := workerpool.New(2, 8, discardLogger())
	p.Shutdown()
	p.Shutdown()
}

func TestTaskDoneChannel(t *testing.T) {
	p := workerpool.New(1, 4, discardLogger())
	defer p.Shutdown()

	task, err := p.Submit(func() {})
	require.NoError(t, err)

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("Done channel never closed")
	}
	assert.False(t, task.Canceled())
}
