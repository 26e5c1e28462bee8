package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dedsec-deck/deckd/internal/audit"
	"github.com/dedsec-deck/deckd/internal/cache"
	"github.com/dedsec-deck/deckd/internal/gate"
)

// Scan errors.
var (
	// ErrInvalidTarget is returned for a target that is neither an IP,
	// a CIDR network nor a hostname.
	ErrInvalidTarget = errors.New("invalid scan target")
	// ErrInvalidPortRange is returned for a malformed port range.
	ErrInvalidPortRange = errors.New("invalid port range")
	// ErrRateLimited is returned when scans are requested faster than the
	// minimum interval.
	ErrRateLimited = errors.New("scan rate limited")
	// ErrScanFailed wraps a non-zero scanner exit.
	ErrScanFailed = errors.New("scan failed")
)

// FastPorts selects the scanner's built-in fast profile instead of an
// explicit port list.
const FastPorts = "1-100"

// scanRateLimit is the minimum interval between scans.
const scanRateLimit = 2 * time.Second

// PortEntry is one parsed scanner result row.
type PortEntry struct {
	Port     string `json:"port" yaml:"port"`
	Protocol string `json:"protocol" yaml:"protocol"`
	State    string `json:"state" yaml:"state"`
	Service  string `json:"service" yaml:"service"`
	Version  string `json:"version,omitempty" yaml:"version,omitempty"`
}

// ScanReport is the outcome of one port scan.
type ScanReport struct {
	Target string      `json:"target" yaml:"target"`
	Ports  []PortEntry `json:"ports" yaml:"ports"`
	Cached bool        `json:"cached" yaml:"cached"`
}

// PortScanner runs port scans with a result cache and a rate limit.
type PortScanner struct {
	runner  Runner
	cache   *cache.Cache
	audit   *audit.Logger
	logger  *slog.Logger
	timeout time.Duration

	mu       sync.Mutex
	lastScan time.Time
	clock    func() time.Time
}

// ScannerOption configures a PortScanner.
type ScannerOption func(*PortScanner)

// WithScanTimeout overrides the scan timeout.
func WithScanTimeout(d time.Duration) ScannerOption {
	return func(s *PortScanner) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithScanClock replaces the rate-limit time source for tests.
func WithScanClock(clock func() time.Time) ScannerOption {
	return func(s *PortScanner) {
		s.clock = clock
	}
}

// NewPortScanner creates a scanner. resultCache may be nil to disable caching.
func NewPortScanner(runner Runner, resultCache *cache.Cache, auditLogger *audit.Logger, logger *slog.Logger, opts ...ScannerOption) *PortScanner {
	if logger == nil {
		logger = slog.Default()
	}
	s := &PortScanner{
		runner:  runner,
		cache:   resultCache,
		audit:   auditLogger,
		logger:  logger,
		timeout: 120 * time.Second,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan runs a port scan against target. The fast profile is used when
// portRange equals FastPorts, otherwise the range is passed explicitly.
// A fresh cached result for the same target and range short-circuits the
// scan entirely.
func (s *PortScanner) Scan(ctx context.Context, target, portRange string) (*ScanReport, error) {
	if !gate.IsValidScanTarget(target) {
		s.audit.LogValidation(ctx, "port_scan_target", target, "malformed", false)
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}
	if portRange == "" {
		portRange = FastPorts
	}
	if !gate.IsValidPortRange(portRange) {
		s.audit.LogValidation(ctx, "port_scan_range", portRange, "malformed", false)
		return nil, fmt.Errorf("%w: %q", ErrInvalidPortRange, portRange)
	}

	if err := s.checkRateLimit(); err != nil {
		return nil, err
	}

	cacheKey := target + "|" + portRange
	if s.cache != nil {
		if raw, ok := s.cache.Get(cacheKey); ok {
			s.logger.Debug("scan served from cache", "target", target)
			return &ScanReport{Target: target, Ports: ParseScanOutput(string(raw)), Cached: true}, nil
		}
	}

	var args []string
	if portRange == FastPorts {
		args = []string{"-F", "-Pn", "-T4", target}
	} else {
		args = []string{"-p", portRange, "-Pn", "-T4", target}
	}

	s.logger.Info("starting port scan", "target", target, "ports", portRange)
	result, err := s.runner.Execute(ctx, "nmap", args, s.timeout)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("%w: exit %d: %s", ErrScanFailed, result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	if s.cache != nil {
		s.cache.Put(cacheKey, []byte(result.Stdout))
	}

	ports := ParseScanOutput(result.Stdout)
	s.logger.Info("scan complete", "target", target, "ports_found", len(ports))
	return &ScanReport{Target: target, Ports: ports}, nil
}

func (s *PortScanner) checkRateLimit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	if !s.lastScan.IsZero() && now.Sub(s.lastScan) < scanRateLimit {
		return ErrRateLimited
	}
	s.lastScan = now
	return nil
}

// ParseScanOutput extracts port rows from scanner text output. Rows look
// like "22/tcp open ssh OpenSSH 7.4"; anything else is skipped.
func ParseScanOutput(output string) []PortEntry {
	var entries []PortEntry
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "/tcp") && !strings.Contains(line, "/udp") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		port, proto, ok := strings.Cut(fields[0], "/")
		if !ok {
			continue
		}
		entry := PortEntry{
			Port:     port,
			Protocol: proto,
			State:    fields[1],
			Service:  fields[2],
		}
		if len(fields) > 3 {
			entry.Version = strings.Join(fields[3:], " ")
		}
		entries = append(entries, entry)
	}
	return entries
}
