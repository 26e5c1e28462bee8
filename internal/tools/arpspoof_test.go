package tools_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dedsec-deck/deckd/internal/gate"
	"github.com/dedsec-deck/deckd/internal/tools"
)

// runnerFunc adapts a function to the tools.Runner interface.
type runnerFunc func(ctx context.Context, name string, args []string, timeout time.Duration) (gate.Result, error)

func (f runnerFunc) Execute(ctx context.Context, name string, args []string, timeout time.Duration) (gate.Result, error) {
	return f(ctx, name, args, timeout)
}

func newBlockedSpoofer(t *testing.T) (*tools.Spoofer, *fakeRunner) {
	t.Helper()
	runner := newFakeRunner()
	runner.block = make(chan struct{})
	t.Cleanup(func() {
		select {
		case <-runner.block:
		default:
			close(runner.block)
		}
	})
	return tools.NewSpoofer(runner, newAudit(), discardLogger()), runner
}

func waitForCalls(t *testing.T, runner *fakeRunner, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if runner.callCount() >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("runner never reached %d calls", n)
}

func TestSpooferStartAndStop(t *testing.T) {
	spoofer, runner := newBlockedSpoofer(t)

	require.NoError(t, spoofer.Start(context.Background(), "192.168.1.50", "192.168.1.1", "eth0"))
	waitForCalls(t, runner, 1)

	call := runner.lastCall()
	assert.Equal(t, "arpspoof", call.name)
	assert.Equal(t, []string{"-i", "eth0", "-t", "192.168.1.50", "192.168.1.1"}, call.args)

	sessions := spoofer.Active()
	require.Len(t, sessions, 1)
	assert.Equal(t, "192.168.1.50", sessions[0].Target)
	assert.Equal(t, "192.168.1.1", sessions[0].Gateway)

	require.NoError(t, spoofer.Stop(context.Background(), "192.168.1.50"))
	assert.Empty(t, spoofer.Active())
}

func TestSpooferStopNotLoggedAsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// The command layer degrades a killed process to an exit-code result
	// with no error; a deliberate stop must still come out quiet.
	started := make(chan struct{})
	runner := runnerFunc(func(ctx context.Context, name string, args []string, timeout time.Duration) (gate.Result, error) {
		close(started)
		<-ctx.Done()
		return gate.Result{ExitCode: 1}, nil
	})
	spoofer := tools.NewSpoofer(runner, newAudit(), logger)

	require.NoError(t, spoofer.Start(context.Background(), "192.168.1.50", "192.168.1.1", "eth0"))
	<-started
	require.NoError(t, spoofer.Stop(context.Background(), "192.168.1.50"))

	out := buf.String()
	assert.NotContains(t, out, "spoof run failed")
	assert.NotContains(t, out, "spoof tool exited")
	assert.Contains(t, out, "spoof session stopped")
}

func TestSpooferValidation(t *testing.T) {
	spoofer, runner := newBlockedSpoofer(t)
	ctx := context.Background()

	err := spoofer.Start(ctx, "not-an-ip", "192.168.1.1", "eth0")
	assert.ErrorIs(t, err, tools.ErrInvalidTarget)

	err = spoofer.Start(ctx, "192.168.1.1", "192.168.1.1", "eth0")
	assert.ErrorIs(t, err, tools.ErrSameHost)

	err = spoofer.Start(ctx, "192.168.1.50", "192.168.1.1", "tun0")
	assert.ErrorIs(t, err, tools.ErrBadInterface)

	assert.Equal(t, 0, runner.callCount())
}

func TestSpooferDuplicateTarget(t *testing.T) {
	spoofer, runner := newBlockedSpoofer(t)
	ctx := context.Background()

	require.NoError(t, spoofer.Start(ctx, "192.168.1.50", "192.168.1.1", "eth0"))
	waitForCalls(t, runner, 1)

	err := spoofer.Start(ctx, "192.168.1.50", "192.168.1.1", "eth0")
	assert.ErrorIs(t, err, tools.ErrSpoofActive)

	require.NoError(t, spoofer.StopAll(ctx))
}

func TestSpooferStopUnknownTarget(t *testing.T) {
	spoofer, _ := newBlockedSpoofer(t)
	err := spoofer.Stop(context.Background(), "10.0.0.9")
	assert.ErrorIs(t, err, tools.ErrSpoofNotFound)
}

func TestSpooferStopAll(t *testing.T) {
	spoofer, runner := newBlockedSpoofer(t)
	ctx := context.Background()

	require.NoError(t, spoofer.Start(ctx, "192.168.1.50", "192.168.1.1", "eth0"))
	require.NoError(t, spoofer.Start(ctx, "192.168.1.51", "192.168.1.1", "wlan0"))
	waitForCalls(t, runner, 2)

	require.NoError(t, spoofer.StopAll(ctx))
	assert.Empty(t, spoofer.Active())
}

func TestSpooferSessionRemovedWhenToolExits(t *testing.T) {
	runner := newFakeRunner()
	spoofer := tools.NewSpoofer(runner, newAudit(), discardLogger())

	require.NoError(t, spoofer.Start(context.Background(), "192.168.1.50", "192.168.1.1", "eth0"))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && len(spoofer.Active()) > 0 {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Empty(t, spoofer.Active(), "exited tool must clear its session")
}
