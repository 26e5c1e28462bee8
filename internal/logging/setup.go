package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/dedsec-deck/deckd/internal/redaction"
)

// Default rotation bounds, sized for the deck's limited storage: 6 MB total
// for the application log and 3 MB for the audit trail.
const (
	appLogName      = "app.log"
	auditLogName    = "audit.log"
	appLogMaxBytes  = 2 * 1024 * 1024
	appLogBackups   = 3
	auditLogMaxByte = 1 * 1024 * 1024
	auditLogBackups = 2
)

// Config holds configuration for logger setup.
type Config struct {
	Level         slog.Level
	LogDir        string
	RunID         string
	ConsoleWriter io.Writer // nil disables console output
	Redaction     *redaction.Config
}

// Loggers bundles the application and audit loggers with their file writers.
type Loggers struct {
	App   *slog.Logger
	Audit *slog.Logger

	appWriter   *RotatingWriter
	auditWriter *RotatingWriter
}

// Setup initializes the logging system: a console text handler plus a
// rotating JSON file handler for the application log, and a separate
// rotating JSON file handler for the append-only audit log. All handlers
// sit behind redaction. Must be called once during bootstrap.
func Setup(config Config) (*Loggers, error) {
	if err := ValidateLogDir(config.LogDir); err != nil {
		return nil, fmt.Errorf("invalid log directory: %w", err)
	}
	redactionConfig := config.Redaction
	if redactionConfig == nil {
		redactionConfig = redaction.DefaultConfig()
	}

	loggers := &Loggers{}

	var appHandlers []slog.Handler

	if config.ConsoleWriter != nil {
		consoleHandler := slog.NewTextHandler(config.ConsoleWriter, &slog.HandlerOptions{
			Level: config.Level,
		})
		appHandlers = append(appHandlers, consoleHandler)
	}

	appWriter, err := NewRotatingWriter(filepath.Join(config.LogDir, appLogName), appLogMaxBytes, appLogBackups)
	if err != nil {
		return nil, fmt.Errorf("failed to open application log: %w", err)
	}
	loggers.appWriter = appWriter
	appHandlers = append(appHandlers, slog.NewJSONHandler(appWriter, &slog.HandlerOptions{
		Level: config.Level,
	}))

	auditWriter, err := NewRotatingWriter(filepath.Join(config.LogDir, auditLogName), auditLogMaxByte, auditLogBackups)
	if err != nil {
		if closeErr := appWriter.Close(); closeErr != nil {
			err = fmt.Errorf("%w (also failed to close application log: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	loggers.auditWriter = auditWriter
	auditHandler := slog.NewJSONHandler(auditWriter, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	appHandler := NewRedactingHandler(NewMultiHandler(appHandlers...), redactionConfig)
	loggers.App = slog.New(appHandler).With("run_id", config.RunID)
	loggers.Audit = slog.New(NewRedactingHandler(auditHandler, redactionConfig)).With("run_id", config.RunID)

	return loggers, nil
}

// Close flushes and closes the underlying log files.
func (l *Loggers) Close() error {
	var err error
	if l.appWriter != nil {
		err = l.appWriter.Close()
	}
	if l.auditWriter != nil {
		if closeErr := l.auditWriter.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}
