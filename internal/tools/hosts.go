package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/dedsec-deck/deckd/internal/cache"
	"github.com/dedsec-deck/deckd/internal/gate"
)

// Discovery errors.
var (
	// ErrNoGateway is returned when the route table has no default route.
	ErrNoGateway = errors.New("no default gateway")
)

// scanReportPattern matches the per-host header lines of a ping scan.
var scanReportPattern = regexp.MustCompile(`Nmap scan report for (\d+\.\d+\.\d+\.\d+)`)

// HostDiscovery finds live hosts by ping scan and detects the default
// gateway from the route table.
type HostDiscovery struct {
	runner  Runner
	cache   *cache.Cache
	logger  *slog.Logger
	timeout time.Duration
}

// NewHostDiscovery creates a discovery helper. hostCache may be nil.
func NewHostDiscovery(runner Runner, hostCache *cache.Cache, logger *slog.Logger) *HostDiscovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &HostDiscovery{
		runner:  runner,
		cache:   hostCache,
		logger:  logger,
		timeout: 30 * time.Second,
	}
}

// ActiveHosts ping-scans network (CIDR notation) and returns the live IPs.
func (h *HostDiscovery) ActiveHosts(ctx context.Context, network string) ([]string, error) {
	if network == "" || !strings.Contains(network, "/") || !gate.IsValidIPOrCIDR(network) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, network)
	}

	if h.cache != nil {
		if raw, ok := h.cache.Get("hosts|" + network); ok {
			return splitNonEmpty(string(raw)), nil
		}
	}

	result, err := h.runner.Execute(ctx, "nmap", []string{"-sn", "-T5", network}, h.timeout)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("%w: exit %d: %s", ErrScanFailed, result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	hosts := ParsePingScan(result.Stdout)
	h.logger.Info("host discovery complete", "network", network, "hosts", len(hosts))

	if h.cache != nil {
		h.cache.Put("hosts|"+network, []byte(strings.Join(hosts, "\n")))
	}
	return hosts, nil
}

// DefaultGateway returns the default route's next-hop address.
func (h *HostDiscovery) DefaultGateway(ctx context.Context) (string, error) {
	result, err := h.runner.Execute(ctx, "ip", []string{"route", "show", "default"}, 5*time.Second)
	if err != nil {
		return "", err
	}
	if result.ExitCode != 0 {
		return "", fmt.Errorf("%w: exit %d", ErrNoGateway, result.ExitCode)
	}

	// Expected shape: "default via 192.168.1.1 dev eth0 ...".
	fields := strings.Fields(result.Stdout)
	if len(fields) >= 3 && fields[0] == "default" && fields[1] == "via" && gate.IsValidIPOrCIDR(fields[2]) {
		return fields[2], nil
	}
	return "", ErrNoGateway
}

// GatewayNetwork returns the /24 network of the default gateway, the
// usual target for LAN-wide discovery.
func (h *HostDiscovery) GatewayNetwork(ctx context.Context) (string, error) {
	gw, err := h.DefaultGateway(ctx)
	if err != nil {
		return "", err
	}
	return gw + "/24", nil
}

// ParsePingScan extracts live host addresses from ping scan output.
func ParsePingScan(output string) []string {
	matches := scanReportPattern.FindAllStringSubmatch(output, -1)
	hosts := make([]string, 0, len(matches))
	for _, m := range matches {
		hosts = append(hosts, m[1])
	}
	return hosts
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
