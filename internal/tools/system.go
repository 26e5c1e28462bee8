package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dedsec-deck/deckd/internal/audit"
)

// System wraps host power control.
type System struct {
	runner Runner
	audit  *audit.Logger
	logger *slog.Logger
}

// NewSystem creates the power-control toolset.
func NewSystem(runner Runner, auditLogger *audit.Logger, logger *slog.Logger) *System {
	if logger == nil {
		logger = slog.Default()
	}
	return &System{runner: runner, audit: auditLogger, logger: logger}
}

// Shutdown halts the host immediately.
func (s *System) Shutdown(ctx context.Context) error {
	s.audit.LogEvent(ctx, audit.EventTool, "shutdown", nil)
	s.logger.Warn("host shutdown requested")
	return s.power(ctx, "shutdown", []string{"-h", "now"})
}

// Reboot restarts the host immediately.
func (s *System) Reboot(ctx context.Context) error {
	s.audit.LogEvent(ctx, audit.EventTool, "reboot", nil)
	s.logger.Warn("host reboot requested")
	return s.power(ctx, "reboot", nil)
}

func (s *System) power(ctx context.Context, command string, args []string) error {
	result, err := s.runner.Execute(ctx, command, args, 5*time.Second)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("%s failed: exit %d: %s", command, result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return nil
}
