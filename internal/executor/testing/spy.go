// Package testing provides executor test doubles for gate and tool tests.
package testing

import (
	"context"
	"sync"

	"github.com/dedsec-deck/deckd/internal/executor"
)

// Call records one invocation passed to the spy.
type Call struct {
	Path   string
	Args   []string
	Limits executor.Limits
}

// SpyExecutor records every invocation and returns a scripted outcome.
// Tests use it to assert that rejected commands never reach the exec layer.
type SpyExecutor struct {
	mu     sync.Mutex
	calls  []Call
	Result executor.Result
	Err    error
	// RunFunc, when set, overrides Result/Err per call.
	RunFunc func(path string, args []string) (executor.Result, error)
}

// Run implements executor.Executor.
func (s *SpyExecutor) Run(_ context.Context, path string, args []string, limits executor.Limits) (executor.Result, error) {
	s.mu.Lock()
	argsCopy := make([]string, len(args))
	copy(argsCopy, args)
	s.calls = append(s.calls, Call{Path: path, Args: argsCopy, Limits: limits})
	s.mu.Unlock()

	if s.RunFunc != nil {
		return s.RunFunc(path, args)
	}
	return s.Result, s.Err
}

// Calls returns a copy of the recorded invocations.
func (s *SpyExecutor) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	calls := make([]Call, len(s.calls))
	copy(calls, s.calls)
	return calls
}

// CallCount returns the number of recorded invocations.
func (s *SpyExecutor) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
