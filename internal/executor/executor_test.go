package executor

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dedsec-deck/deckd/internal/supervisor"
)

func newTestExecutor(maxProcesses int) (*DefaultExecutor, *supervisor.Supervisor) {
	sup := supervisor.New(maxProcesses, 500*time.Millisecond, slog.Default())
	return New(sup, slog.Default()), sup
}

func TestRun_CapturesOutputAndExitCode(t *testing.T) {
	e, _ := newTestExecutor(4)

	result, err := e.Run(context.Background(), "/bin/sh", []string{"-c", "echo out; echo err >&2"}, Limits{
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "out\n", result.Stdout)
	assert.Equal(t, "err\n", result.Stderr)
	assert.Equal(t, 0, result.ExitCode)
}

func TestRun_NonZeroExitIsNotAnError(t *testing.T) {
	e, _ := newTestExecutor(4)

	result, err := e.Run(context.Background(), "/bin/sh", []string{"-c", "exit 3"}, Limits{
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
}

func TestRun_TimeoutKillsAndReaps(t *testing.T) {
	e, sup := newTestExecutor(4)

	start := time.Now()
	_, err := e.Run(context.Background(), "/bin/sleep", []string{"30"}, Limits{
		Timeout: 200 * time.Millisecond,
	})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)

	// No handle may remain tracked after the timeout path.
	assert.Equal(t, 0, sup.ActiveCount())
}

func TestRun_ContextCancellation(t *testing.T) {
	e, sup := newTestExecutor(4)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := e.Run(ctx, "/bin/sleep", []string{"30"}, Limits{Timeout: time.Minute})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, sup.ActiveCount())
}

func TestRun_RefusedAtCapacity(t *testing.T) {
	e, _ := newTestExecutor(1)

	release := make(chan struct{})
	go func() {
		defer close(release)
		_, _ = e.Run(context.Background(), "/bin/sleep", []string{"2"}, Limits{Timeout: 10 * time.Second})
	}()

	// Give the first invocation time to occupy the only slot.
	time.Sleep(200 * time.Millisecond)

	_, err := e.Run(context.Background(), "/bin/true", nil, Limits{Timeout: time.Second})
	assert.ErrorIs(t, err, supervisor.ErrAtCapacity)
	<-release
}

func TestRun_SpawnFailure(t *testing.T) {
	e, sup := newTestExecutor(4)

	_, err := e.Run(context.Background(), "/nonexistent/binary", nil, Limits{Timeout: time.Second})
	assert.Error(t, err)
	assert.Equal(t, 0, sup.ActiveCount())
}
