// Package audit provides structured audit logging for the command
// execution gate and the privileged operations around it. The audit trail
// is append-only and separate from the application log; every validated or
// rejected action produces exactly one record.
package audit

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType identifies the category of a security-relevant event.
type EventType string

// Audit event types.
const (
	EventCommand    EventType = "COMMAND"
	EventValidation EventType = "VALIDATION"
	EventSudo       EventType = "SUDO"
	EventPrivilege  EventType = "PRIVILEGE"
	EventTool       EventType = "TOOL"
	EventDeauth     EventType = "DEAUTH"
	EventSpoof      EventType = "SPOOF"
)

// Status tags recorded on command outcomes.
const (
	StatusSuccess         = "success"
	StatusBlockedCommand  = "blocked_not_whitelisted"
	StatusBlockedArgument = "blocked_invalid_arg"
	StatusTimeout         = "timeout"
	StatusError           = "error"
	StatusRefused         = "refused_at_capacity"
)

// Logger provides structured audit logging functionality. Each record
// carries a sortable ULID so interleaved records from concurrent workers
// can be put back in order during forensic review.
type Logger struct {
	logger *slog.Logger
	stats  *Statistics
}

// NewLogger creates a new audit logger writing through the given slog logger.
func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{
		logger: logger,
		stats:  NewStatistics(),
	}
}

// Stats returns the statistics tracker fed by this logger.
func (a *Logger) Stats() *Statistics {
	return a.stats
}

// LogCommand records the outcome of a command gate invocation.
func (a *Logger) LogCommand(ctx context.Context, command string, args []string, status string, exitCode int) {
	a.stats.RecordCommand(command, status)

	attrs := append(a.baseAttrs(EventCommand),
		slog.String("command", command),
		slog.String("args", strings.Join(args, " ")),
		slog.String("status", status),
		slog.Int("exit_code", exitCode),
	)

	level := slog.LevelInfo
	if status != StatusSuccess {
		level = slog.LevelWarn
	}
	a.logger.LogAttrs(a.ctx(ctx), level, string(EventCommand), attrs...)
}

// LogValidation records an input validation outcome (BSSID, SSID, scan target).
func (a *Logger) LogValidation(ctx context.Context, kind, value, reason string, ok bool) {
	attrs := append(a.baseAttrs(EventValidation),
		slog.String("type", kind),
		slog.String("value", value),
		slog.String("reason", reason),
	)

	level := slog.LevelInfo
	if !ok {
		level = slog.LevelWarn
	}
	a.logger.LogAttrs(a.ctx(ctx), level, string(EventValidation), attrs...)
}

// LogEvent records a generic security event with free-form details.
func (a *Logger) LogEvent(ctx context.Context, eventType EventType, action string, details map[string]any) {
	attrs := append(a.baseAttrs(eventType), slog.String("action", action))
	for key, value := range details {
		attrs = append(attrs, slog.Any(key, value))
	}
	a.logger.LogAttrs(a.ctx(ctx), slog.LevelInfo, string(eventType), attrs...)
}

// LogPrivilegeDrop records a privilege drop attempt.
func (a *Logger) LogPrivilegeDrop(ctx context.Context, fromUID, toUID int, success bool, reason string) {
	attrs := append(a.baseAttrs(EventPrivilege),
		slog.Int("from_uid", fromUID),
		slog.Int("to_uid", toUID),
		slog.Bool("success", success),
		slog.String("reason", reason),
	)

	level := slog.LevelInfo
	if !success {
		level = slog.LevelError
	}
	a.logger.LogAttrs(a.ctx(ctx), level, string(EventPrivilege), attrs...)
}

func (a *Logger) baseAttrs(eventType EventType) []slog.Attr {
	return []slog.Attr{
		slog.String("audit_id", ulid.Make().String()),
		slog.String("event_type", string(eventType)),
		slog.Int64("timestamp", time.Now().Unix()),
		slog.Int("user_id", os.Getuid()),
		slog.Int("effective_user_id", os.Geteuid()),
		slog.Int("process_id", os.Getpid()),
	}
}

func (a *Logger) ctx(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
