// Package executor provides the process-invocation primitive used by the
// command gate. Invocation is always argument-vector based: a resolved
// absolute path plus discrete argument strings, never a shell string.
package executor

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout bounds an invocation when the caller supplies none.
const DefaultTimeout = 30 * time.Second

// Exit codes with fixed meanings.
const (
	// ExitCodeTimeout mirrors the conventional timeout(1) exit status.
	ExitCodeTimeout = 124
	// ExitCodeUnknown is used when no exit status could be determined.
	ExitCodeUnknown = -1
)

// ErrTimeout is returned when a command exceeds its wall-clock timeout.
// The child has been terminated and reaped by the time this is returned.
var ErrTimeout = errors.New("command execution timed out")

// Result holds the outcome of a single process invocation. It is immutable
// once returned and never retried automatically.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Limits bounds a single invocation. The timeout is enforced at two
// layers: a parent-side wait timeout and child-side rlimits, so a runaway
// child is contained even if the parent is wedged.
type Limits struct {
	// Timeout is the wall-clock bound for the invocation.
	Timeout time.Duration
	// MaxMemoryBytes caps the child's address space (RLIMIT_AS). Zero
	// disables the cap.
	MaxMemoryBytes uint64
	// CPUGrace is added to the timeout to derive the RLIMIT_CPU soft cap.
	CPUGrace time.Duration
}

// Executor runs a resolved command to completion.
type Executor interface {
	// Run blocks until the command exits, times out, or ctx is cancelled.
	// On timeout it returns ErrTimeout with no process left behind.
	Run(ctx context.Context, path string, args []string, limits Limits) (Result, error)
}
