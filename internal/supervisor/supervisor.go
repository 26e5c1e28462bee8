// Package supervisor bounds OS process fan-out and guarantees cleanup of
// spawned children. The host has 1 GB of memory total; an unbounded set of
// nmap children would take it down, so spawns beyond the cap are refused
// outright rather than queued.
package supervisor

import (
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Defaults for the supervisor.
const (
	DefaultMaxProcesses = 10
	DefaultKillGrace    = 2 * time.Second
)

// ErrAtCapacity is returned when a spawn is refused because the tracked
// process count is at the concurrency cap.
var ErrAtCapacity = errors.New("process limit reached")

// Supervisor tracks live subprocess handles up to a fixed cap. Dead
// handles are pruned opportunistically before every capacity check rather
// than in real time.
type Supervisor struct {
	mu           sync.Mutex
	maxProcesses int
	killGrace    time.Duration
	handles      map[int]*os.Process
	logger       *slog.Logger
}

// New creates a supervisor with the given concurrency cap and termination
// grace period. Non-positive values fall back to the defaults.
func New(maxProcesses int, killGrace time.Duration, logger *slog.Logger) *Supervisor {
	if maxProcesses <= 0 {
		maxProcesses = DefaultMaxProcesses
	}
	if killGrace <= 0 {
		killGrace = DefaultKillGrace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		maxProcesses: maxProcesses,
		killGrace:    killGrace,
		handles:      make(map[int]*os.Process),
		logger:       logger,
	}
}

// KillGrace returns the configured grace period between SIGTERM and SIGKILL.
func (s *Supervisor) KillGrace() time.Duration {
	return s.killGrace
}

// Launch starts cmd and tracks its process handle. The capacity check and
// the start happen under one lock so the cap cannot be raced past. At
// capacity the spawn is refused with ErrAtCapacity and no process starts.
func (s *Supervisor) Launch(cmd *exec.Cmd) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	if len(s.handles) >= s.maxProcesses {
		s.logger.Warn("process limit reached, refusing spawn",
			"limit", s.maxProcesses, "path", cmd.Path)
		return ErrAtCapacity
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	s.handles[cmd.Process.Pid] = cmd.Process
	s.logger.Debug("process started", "pid", cmd.Process.Pid, "path", cmd.Path)
	return nil
}

// Release removes a process from tracking once its Wait has returned.
func (s *Supervisor) Release(pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handles, pid)
}

// ActiveCount returns the number of tracked live processes after pruning.
func (s *Supervisor) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return len(s.handles)
}

// CleanupAll terminates every tracked process: SIGTERM first, then SIGKILL
// for anything still alive after the grace period. This is the only path
// guaranteed to run at application shutdown.
func (s *Supervisor) CleanupAll() {
	s.mu.Lock()
	procs := make([]*os.Process, 0, len(s.handles))
	for _, p := range s.handles {
		procs = append(procs, p)
	}
	s.handles = make(map[int]*os.Process)
	s.mu.Unlock()

	if len(procs) == 0 {
		return
	}

	for _, p := range procs {
		s.logger.Info("terminating process at shutdown", "pid", p.Pid)
		_ = p.Signal(syscall.SIGTERM)
	}

	deadline := time.After(s.killGrace)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	remaining := procs
	for len(remaining) > 0 {
		select {
		case <-deadline:
			for _, p := range remaining {
				_ = p.Kill()
			}
			return
		case <-ticker.C:
			alive := remaining[:0]
			for _, p := range remaining {
				if isAlive(p) {
					alive = append(alive, p)
				}
			}
			remaining = alive
		}
	}
}

// pruneLocked drops handles whose process has already exited.
// Must be called with the mutex held.
func (s *Supervisor) pruneLocked() {
	for pid, p := range s.handles {
		if !isAlive(p) {
			delete(s.handles, pid)
		}
	}
}

// isAlive probes a process with signal 0.
func isAlive(p *os.Process) bool {
	return p.Signal(syscall.Signal(0)) == nil
}
