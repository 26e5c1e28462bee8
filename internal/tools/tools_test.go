package tools_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dedsec-deck/deckd/internal/audit"
	"github.com/dedsec-deck/deckd/internal/gate"
)

// fakeRunner scripts gate results per command name and records every call.
type fakeRunner struct {
	mu      sync.Mutex
	results map[string]gate.Result
	errs    map[string]error
	calls   []fakeCall
	// block, when non-nil, is waited on before returning.
	block chan struct{}
}

type fakeCall struct {
	name    string
	args    []string
	timeout time.Duration
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		results: make(map[string]gate.Result),
		errs:    make(map[string]error),
	}
}

func (f *fakeRunner) Execute(ctx context.Context, name string, args []string, timeout time.Duration) (gate.Result, error) {
	f.mu.Lock()
	argsCopy := make([]string, len(args))
	copy(argsCopy, args)
	f.calls = append(f.calls, fakeCall{name: name, args: argsCopy, timeout: timeout})
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return gate.Result{}, ctx.Err()
		}
	}
	if err, ok := f.errs[name]; ok {
		return gate.Result{}, err
	}
	return f.results[name], nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRunner) lastCall() fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAudit() *audit.Logger {
	return audit.NewLogger(discardLogger())
}
