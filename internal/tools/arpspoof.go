package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dedsec-deck/deckd/internal/audit"
	"github.com/dedsec-deck/deckd/internal/gate"
)

// Spoofer errors.
var (
	// ErrSpoofActive is returned when a session for the target already exists.
	ErrSpoofActive = errors.New("spoof session already active for target")
	// ErrSpoofNotFound is returned when stopping an unknown target.
	ErrSpoofNotFound = errors.New("no spoof session for target")
	// ErrSameHost is returned when target and gateway are the same address.
	ErrSameHost = errors.New("target and gateway must differ")
	// ErrBadInterface is returned for an interface name outside the
	// whitelisted set.
	ErrBadInterface = errors.New("interface not allowed")
)

// allowedInterfaces are the interface names the spoofer may bind to.
var allowedInterfaces = map[string]bool{"eth0": true, "wlan0": true}

// maxSpoofDuration bounds a single poisoning run; the tool loops until
// killed, so the timeout is the backstop when Stop is never called.
const maxSpoofDuration = time.Hour

// SpoofSession describes one active poisoning run.
type SpoofSession struct {
	Target    string    `json:"target" yaml:"target"`
	Gateway   string    `json:"gateway" yaml:"gateway"`
	Interface string    `json:"interface" yaml:"interface"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
}

type spoofHandle struct {
	session SpoofSession
	cancel  context.CancelFunc
	done    chan struct{}
}

// Spoofer manages ARP poisoning sessions, one per target. The underlying
// tool runs until its process is terminated, so each session holds a
// cancel handle that routes through the supervisor's kill path.
type Spoofer struct {
	runner Runner
	audit  *audit.Logger
	logger *slog.Logger
	clock  func() time.Time

	mu       sync.Mutex
	sessions map[string]*spoofHandle
}

// NewSpoofer creates a session manager.
func NewSpoofer(runner Runner, auditLogger *audit.Logger, logger *slog.Logger) *Spoofer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Spoofer{
		runner:   runner,
		audit:    auditLogger,
		logger:   logger,
		clock:    time.Now,
		sessions: make(map[string]*spoofHandle),
	}
}

// Start begins poisoning target on behalf of gateway. Both addresses must
// be plain IPv4 and distinct, and at most one session per target exists.
func (s *Spoofer) Start(ctx context.Context, target, gateway, iface string) error {
	if !gate.IsValidIPOrCIDR(target) || !gate.IsValidIPOrCIDR(gateway) {
		s.audit.LogValidation(ctx, "arp_spoof_target", target, "malformed", false)
		return fmt.Errorf("%w: target=%q gateway=%q", ErrInvalidTarget, target, gateway)
	}
	if target == gateway {
		s.audit.LogValidation(ctx, "arp_spoof_target", target, "target_equals_gateway", false)
		return ErrSameHost
	}
	if iface == "" {
		iface = "eth0"
	}
	if !allowedInterfaces[iface] {
		return fmt.Errorf("%w: %q", ErrBadInterface, iface)
	}

	s.mu.Lock()
	if _, exists := s.sessions[target]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSpoofActive, target)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	handle := &spoofHandle{
		session: SpoofSession{
			Target:    target,
			Gateway:   gateway,
			Interface: iface,
			StartedAt: s.clock(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.sessions[target] = handle
	s.mu.Unlock()

	s.audit.LogEvent(ctx, audit.EventSpoof, "start", map[string]any{
		"target":    target,
		"gateway":   gateway,
		"interface": iface,
	})
	s.logger.Info("spoof session started", "target", target, "gateway", gateway)

	go s.run(runCtx, handle)
	return nil
}

func (s *Spoofer) run(ctx context.Context, handle *spoofHandle) {
	defer close(handle.done)

	sess := handle.session
	result, err := s.runner.Execute(ctx, "arpspoof",
		[]string{"-i", sess.Interface, "-t", sess.Target, sess.Gateway},
		maxSpoofDuration)

	// A cancelled run context means Stop tore the session down. The gate
	// degrades the killed process to an exit-code result, so the context
	// is the only reliable signal that the exit was deliberate.
	switch {
	case ctx.Err() != nil:
		s.logger.Debug("spoof run ended by stop", "target", sess.Target)
	case err != nil:
		s.logger.Warn("spoof run failed", "target", sess.Target, "error", err)
	case result.ExitCode != 0:
		s.logger.Warn("spoof tool exited", "target", sess.Target, "exit_code", result.ExitCode)
	}

	s.mu.Lock()
	delete(s.sessions, sess.Target)
	s.mu.Unlock()

	s.audit.LogEvent(context.Background(), audit.EventSpoof, "end", map[string]any{
		"target":           sess.Target,
		"duration_seconds": int(s.clock().Sub(sess.StartedAt).Seconds()),
	})
}

// Stop terminates the session for target and waits for the process to be
// reaped.
func (s *Spoofer) Stop(ctx context.Context, target string) error {
	s.mu.Lock()
	handle, ok := s.sessions[target]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSpoofNotFound, target)
	}

	handle.cancel()
	select {
	case <-handle.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.audit.LogEvent(ctx, audit.EventSpoof, "stop", map[string]any{"target": target})
	s.logger.Info("spoof session stopped", "target", target)
	return nil
}

// StopAll terminates every active session.
func (s *Spoofer) StopAll(ctx context.Context) error {
	s.mu.Lock()
	targets := make([]string, 0, len(s.sessions))
	for target := range s.sessions {
		targets = append(targets, target)
	}
	s.mu.Unlock()

	var errs []error
	for _, target := range targets {
		if err := s.Stop(ctx, target); err != nil && !errors.Is(err, ErrSpoofNotFound) {
			errs = append(errs, err)
		}
	}
	s.logger.Info("all spoof sessions stopped", "count", len(targets))
	return errors.Join(errs...)
}

// Active returns a snapshot of the running sessions.
func (s *Spoofer) Active() []SpoofSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions := make([]SpoofSession, 0, len(s.sessions))
	for _, handle := range s.sessions {
		sessions = append(sessions, handle.session)
	}
	return sessions
}
