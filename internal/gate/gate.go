// Package gate is the sole authorized path from application logic to OS
// process execution. Every tool invocation passes through the whitelist:
// the command name must have an entry, and each argument must either match
// a literal allowed flag or pass a structural validator for commands that
// accept targets. Execution always uses the entry's canonical absolute
// path with argument-vector invocation, so shell interpolation never
// happens at all.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dedsec-deck/deckd/internal/audit"
	"github.com/dedsec-deck/deckd/internal/executor"
	"github.com/dedsec-deck/deckd/internal/supervisor"
)

// Execution defaults.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultMaxMemoryBytes = 256 * 1024 * 1024
	DefaultCPUGrace       = 5 * time.Second
)

// Result is the outcome of one gated invocation: captured output and the
// exit code. Environmental failures (timeout, crashed tool) are reported
// through Result rather than as errors so UI-facing callers never tear
// down on a tool failure.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Gate validates and executes whitelisted commands.
type Gate struct {
	whitelist      Whitelist
	executor       executor.Executor
	audit          *audit.Logger
	logger         *slog.Logger
	defaultTimeout time.Duration
	maxMemoryBytes uint64
}

// Option configures a Gate.
type Option func(*Gate)

// WithDefaultTimeout overrides the default per-command timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.defaultTimeout = d
		}
	}
}

// WithMaxMemory overrides the child memory cap.
func WithMaxMemory(bytes uint64) Option {
	return func(g *Gate) {
		if bytes > 0 {
			g.maxMemoryBytes = bytes
		}
	}
}

// New creates a gate over the given whitelist. All executions are audited
// through auditLogger; exec is the process-invocation seam.
func New(whitelist Whitelist, exec executor.Executor, auditLogger *audit.Logger, logger *slog.Logger, opts ...Option) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gate{
		whitelist:      whitelist,
		executor:       exec,
		audit:          auditLogger,
		logger:         logger,
		defaultTimeout: DefaultTimeout,
		maxMemoryBytes: DefaultMaxMemoryBytes,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Execute validates the command name and every argument, then runs the
// whitelisted binary. It returns an error only for security rejections
// (unknown command, invalid argument) and caller mistakes; timeouts and
// process failures come back as Result values with exit codes 124 and 1.
func (g *Gate) Execute(ctx context.Context, name string, args []string, timeout time.Duration) (Result, error) {
	spec, ok := g.whitelist[name]
	if !ok {
		g.logger.Warn("command not whitelisted", "command", name)
		g.audit.LogCommand(ctx, name, args, audit.StatusBlockedCommand, executor.ExitCodeUnknown)
		return Result{}, &CommandNotAllowedError{Command: name}
	}

	validated, err := g.validateArgs(ctx, name, spec, args)
	if err != nil {
		return Result{}, err
	}

	if timeout <= 0 {
		timeout = g.defaultTimeout
	}

	limits := executor.Limits{
		Timeout:        timeout,
		MaxMemoryBytes: g.maxMemoryBytes,
		CPUGrace:       DefaultCPUGrace,
	}

	result, err := g.executor.Run(ctx, spec.Path, validated, limits)
	switch {
	case err == nil:
		g.logger.Info("command executed", "command", name, "args", len(validated), "exit_code", result.ExitCode)
		g.audit.LogCommand(ctx, name, args, audit.StatusSuccess, result.ExitCode)
		return Result{Stdout: result.Stdout, Stderr: result.Stderr, ExitCode: result.ExitCode}, nil

	case errors.Is(err, executor.ErrTimeout):
		g.logger.Warn("command timed out", "command", name, "timeout", timeout)
		g.audit.LogCommand(ctx, name, args, audit.StatusTimeout, executor.ExitCodeTimeout)
		return Result{
			Stderr:   fmt.Sprintf("command timeout (%s)", timeout),
			ExitCode: executor.ExitCodeTimeout,
		}, nil

	case errors.Is(err, supervisor.ErrAtCapacity):
		g.audit.LogCommand(ctx, name, args, audit.StatusRefused, executor.ExitCodeUnknown)
		return Result{}, err

	default:
		g.logger.Error("command execution error", "command", name, "error", err)
		g.audit.LogCommand(ctx, name, args, audit.StatusError, 1)
		return Result{Stderr: err.Error(), ExitCode: 1}, nil
	}
}

// validateArgs classifies each argument into exactly one of: whitelisted
// flag, validated IP/CIDR target, validated port range, or rejected.
func (g *Gate) validateArgs(ctx context.Context, name string, spec CommandSpec, args []string) ([]string, error) {
	validated := make([]string, 0, len(args))
	for _, arg := range args {
		switch {
		case containsString(spec.AllowedFlags, arg):
			validated = append(validated, arg)
		case spec.AllowTargets && IsValidIPOrCIDR(arg):
			g.logger.Debug("validated target", "command", name, "target", arg)
			validated = append(validated, arg)
		case spec.AllowTargets && IsValidPortRange(arg):
			g.logger.Debug("validated port range", "command", name, "ports", arg)
			validated = append(validated, arg)
		case spec.AllowBSSID && isValidBSSID(arg):
			validated = append(validated, arg)
		case spec.AllowCounts && IsValidCount(arg):
			validated = append(validated, arg)
		default:
			g.logger.Warn("argument not whitelisted", "command", name, "argument", arg)
			g.audit.LogCommand(ctx, name, args, audit.StatusBlockedArgument, executor.ExitCodeUnknown)
			return nil, &ArgumentNotAllowedError{Command: name, Argument: arg}
		}
	}
	return validated, nil
}
