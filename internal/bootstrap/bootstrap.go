// Package bootstrap assembles the application container. Every component
// is constructed here with its collaborators passed in explicitly; nothing
// in the tree reaches for a package-level singleton.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dedsec-deck/deckd/internal/audit"
	"github.com/dedsec-deck/deckd/internal/cache"
	"github.com/dedsec-deck/deckd/internal/config"
	"github.com/dedsec-deck/deckd/internal/credential"
	"github.com/dedsec-deck/deckd/internal/executor"
	"github.com/dedsec-deck/deckd/internal/gate"
	"github.com/dedsec-deck/deckd/internal/logging"
	"github.com/dedsec-deck/deckd/internal/privilege"
	"github.com/dedsec-deck/deckd/internal/registry"
	"github.com/dedsec-deck/deckd/internal/safepath"
	"github.com/dedsec-deck/deckd/internal/supervisor"
	"github.com/dedsec-deck/deckd/internal/tools"
	"github.com/dedsec-deck/deckd/internal/workerpool"
)

// Options control container assembly.
type Options struct {
	ConfigPath string
	// ConsoleWriter receives human-readable log output; nil disables it.
	ConsoleWriter io.Writer
	// SkipPrivilegeDrop leaves the process identity alone. Used by tests
	// and by subcommands that never execute anything.
	SkipPrivilegeDrop bool
}

// App is the assembled application.
type App struct {
	Config     *config.Config
	RunID      string
	Logger     *slog.Logger
	Audit      *audit.Logger
	Paths      *safepath.Resolver
	Supervisor *supervisor.Supervisor
	Gate       *gate.Gate
	Tokens     *credential.TokenCache
	Pool       *workerpool.Pool
	Registry   *registry.Registry

	Scanner   *tools.PortScanner
	Hosts     *tools.HostDiscovery
	Spoofer   *tools.Spoofer
	WiFi      *tools.WiFi
	Bluetooth *tools.Bluetooth
	System    *tools.System

	loggers *logging.Loggers
}

// New loads configuration and wires the full component graph.
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	paths := safepath.NewResolver(cfg.RootDir)
	logDir, err := paths.CategoryDir(safepath.CategoryLogs)
	if err != nil {
		return nil, err
	}

	runID := logging.GenerateRunID()
	loggers, err := logging.Setup(logging.Config{
		Level:         parseLevel(cfg.LogLevel),
		LogDir:        logDir,
		RunID:         runID,
		ConsoleWriter: opts.ConsoleWriter,
	})
	if err != nil {
		return nil, fmt.Errorf("logging setup: %w", err)
	}

	logger := loggers.App
	auditLogger := audit.NewLogger(loggers.Audit)

	if !opts.SkipPrivilegeDrop {
		dropper := privilege.NewDropper(logger, auditLogger)
		if err := dropper.Drop(cfg.Privilege.DropUID, cfg.Privilege.DropGID); err != nil {
			loggers.Close()
			return nil, err
		}
	}

	sup := supervisor.New(cfg.Execution.MaxProcesses, cfg.Execution.KillGrace(), logger)
	exec := executor.New(sup, logger)

	whitelist := gate.DefaultWhitelist().WithExtraFlags(cfg.ExtraFlags)
	commandGate := gate.New(whitelist, exec, auditLogger, logger,
		gate.WithDefaultTimeout(cfg.Execution.DefaultTimeout()),
		gate.WithMaxMemory(cfg.Execution.MaxMemoryBytes),
	)

	scanCache := cache.New(cfg.Cache.ScanMaxEntries, cfg.Cache.ScanMaxBytes, cfg.Cache.ScanTTL())
	hostCache := cache.New(cfg.Cache.HostMaxEntries, cfg.Cache.HostMaxBytes, cfg.Cache.HostTTL())

	reg := registry.New(auditLogger, logger)
	for _, tool := range registry.DefaultTools() {
		if err := reg.Register(tool); err != nil {
			loggers.Close()
			return nil, err
		}
	}

	app := &App{
		Config:     cfg,
		RunID:      runID,
		Logger:     logger,
		Audit:      auditLogger,
		Paths:      paths,
		Supervisor: sup,
		Gate:       commandGate,
		Tokens:     credential.NewTokenCache(auditLogger, logger, credential.WithTTL(cfg.Token.TTL())),
		Pool:       workerpool.New(cfg.Execution.WorkerCount, 16, logger),
		Registry:   reg,
		Scanner: tools.NewPortScanner(commandGate, scanCache, auditLogger, logger,
			tools.WithScanTimeout(cfg.Execution.ScanTimeout())),
		Hosts:     tools.NewHostDiscovery(commandGate, hostCache, logger),
		Spoofer:   tools.NewSpoofer(commandGate, auditLogger, logger),
		WiFi:      tools.NewWiFi(commandGate, auditLogger, logger),
		Bluetooth: tools.NewBluetooth(commandGate, auditLogger, logger),
		System:    tools.NewSystem(commandGate, auditLogger, logger),
		loggers:   loggers,
	}

	logger.Info("deckd initialized",
		"root_dir", cfg.RootDir,
		"max_processes", cfg.Execution.MaxProcesses,
		"workers", cfg.Execution.WorkerCount)
	return app, nil
}

// RunBlocking executes fn on the worker pool and waits for it. If ctx is
// cancelled before a worker picks the task up, it is withdrawn and never
// runs; once started it runs to completion, since a running subprocess is
// only ever stopped through the supervisor's termination path.
func (a *App) RunBlocking(ctx context.Context, fn func()) error {
	task, err := a.Pool.Submit(fn)
	if err != nil {
		return err
	}

	select {
	case <-task.Done():
	case <-ctx.Done():
		if task.Cancel() {
			return ctx.Err()
		}
		<-task.Done()
	}
	return nil
}

// Close shuts the container down: the worker pool drains, every active
// spoof session and supervised process is terminated, and the log files
// are closed last so shutdown itself is still recorded.
func (a *App) Close() error {
	a.Pool.Shutdown()
	if err := a.Spoofer.StopAll(context.Background()); err != nil {
		a.Logger.Warn("spoof cleanup incomplete", "error", err)
	}
	a.Supervisor.CleanupAll()
	a.Tokens.Clear()

	stats := a.Audit.Stats()
	if total := stats.TotalCommands(); total > 0 {
		a.Logger.Info("session command summary",
			"total", total,
			"blocked", stats.BlockedCount(),
			"statuses", stats.StatusCounts(),
			"top_commands", stats.TopCommands(3))
	}
	a.Logger.Info("deckd shut down")
	return a.loggers.Close()
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
