package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"syscall"
	"time"

	"github.com/dedsec-deck/deckd/internal/supervisor"
)

// DefaultExecutor runs commands under the process supervisor with
// child-side resource limits and a two-stage termination protocol on
// timeout or cancellation.
type DefaultExecutor struct {
	supervisor *supervisor.Supervisor
	logger     *slog.Logger
}

// New creates an executor backed by the given supervisor.
func New(sup *supervisor.Supervisor, logger *slog.Logger) *DefaultExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultExecutor{
		supervisor: sup,
		logger:     logger,
	}
}

// Run implements the Executor interface.
func (e *DefaultExecutor) Run(ctx context.Context, path string, args []string, limits Limits) (Result, error) {
	// #nosec G204 -- path and args have been validated by the gate
	cmd := exec.Command(path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := e.supervisor.Launch(cmd); err != nil {
		return Result{}, err
	}
	pid := cmd.Process.Pid
	defer e.supervisor.Release(pid)

	if err := applyLimits(pid, limits); err != nil {
		// The child is already running; limits are advisory hardening,
		// the wall-clock timeout below still bounds it.
		e.logger.Warn("failed to apply resource limits", "pid", pid, "error", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timeout := limits.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case waitErr := <-done:
		return e.buildResult(cmd, &stdout, &stderr, waitErr)

	case <-timer.C:
		e.logger.Warn("command timed out, terminating", "pid", pid, "path", path, "timeout", timeout)
		e.terminate(cmd, done)
		return Result{}, fmt.Errorf("%w after %s: %s", ErrTimeout, timeout, path)

	case <-ctx.Done():
		e.terminate(cmd, done)
		return Result{}, ctx.Err()
	}
}

// buildResult converts a completed wait into a Result. A non-zero exit is
// reported through the exit code, not as an error.
func (e *DefaultExecutor) buildResult(cmd *exec.Cmd, stdout, stderr *bytes.Buffer, waitErr error) (Result, error) {
	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: ExitCodeUnknown,
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return result, nil
		}
		return result, fmt.Errorf("command execution failed: %w", waitErr)
	}
	return result, nil
}

// terminate implements the two-stage kill: SIGTERM, a bounded grace wait,
// then SIGKILL. It returns only after the child has been reaped.
func (e *DefaultExecutor) terminate(cmd *exec.Cmd, done <-chan error) {
	_ = cmd.Process.Signal(syscall.SIGTERM)

	select {
	case <-done:
		return
	case <-time.After(e.supervisor.KillGrace()):
	}

	_ = cmd.Process.Kill()
	<-done
	e.logger.Warn("command required forced termination", "pid", cmd.Process.Pid)
}
