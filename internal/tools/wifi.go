package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dedsec-deck/deckd/internal/audit"
	"github.com/dedsec-deck/deckd/internal/gate"
)

// WiFi errors.
var (
	// ErrBadDeauthCount is returned for a deauth packet count outside [1, 100].
	ErrBadDeauthCount = errors.New("deauth count out of range")
	// ErrMonitorFailed wraps a non-zero monitor-mode toggle exit.
	ErrMonitorFailed = errors.New("monitor mode change failed")
)

// nmcliFields is the terse field list requested from the network manager.
const nmcliFields = "SSID,BSSID,SIGNAL,SECURITY"

// monitorInterface is the capture interface created by monitor mode.
const monitorInterface = "wlan0mon"

// Network is one visible wireless network.
type Network struct {
	SSID     string `json:"ssid" yaml:"ssid"`
	BSSID    string `json:"bssid" yaml:"bssid"`
	Signal   int    `json:"signal" yaml:"signal"`
	Security string `json:"security" yaml:"security"`
}

// WiFi wraps wireless scanning, monitor mode and deauthentication.
type WiFi struct {
	runner Runner
	audit  *audit.Logger
	logger *slog.Logger
}

// NewWiFi creates the wireless toolset.
func NewWiFi(runner Runner, auditLogger *audit.Logger, logger *slog.Logger) *WiFi {
	if logger == nil {
		logger = slog.Default()
	}
	return &WiFi{runner: runner, audit: auditLogger, logger: logger}
}

// Scan lists visible networks. SSIDs are sanitized and records with
// unparseable BSSIDs are dropped.
func (w *WiFi) Scan(ctx context.Context) ([]Network, error) {
	result, err := w.runner.Execute(ctx, "nmcli",
		[]string{"-t", "-f", nmcliFields, "dev", "wifi", "list"}, 15*time.Second)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("%w: exit %d: %s", ErrScanFailed, result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	networks := w.parseNetworks(result.Stdout)
	w.logger.Info("wifi scan complete", "networks", len(networks))
	return networks, nil
}

func (w *WiFi) parseNetworks(output string) []Network {
	var networks []Network
	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}
		// Terse output separates fields with colons; colons inside a
		// field (the BSSID) arrive escaped as \:.
		parts := splitUnescaped(line, ':')
		if len(parts) < 4 {
			continue
		}

		bssid, err := gate.ValidateBSSID(unescapeField(parts[1]))
		if err != nil {
			w.logger.Warn("dropping network with bad BSSID", "error", err)
			continue
		}

		signal, err := strconv.Atoi(parts[2])
		if err != nil {
			signal = 0
		}

		networks = append(networks, Network{
			SSID:     gate.SanitizeSSID(unescapeField(parts[0])),
			BSSID:    bssid,
			Signal:   signal,
			Security: strings.TrimSpace(parts[3]),
		})
	}
	return networks
}

// MonitorMode toggles monitor mode on iface.
func (w *WiFi) MonitorMode(ctx context.Context, iface string, enable bool) error {
	action := "stop"
	if enable {
		action = "start"
	}

	result, err := w.runner.Execute(ctx, "airmon-ng", []string{action, iface}, 15*time.Second)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("%w: exit %d: %s", ErrMonitorFailed, result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	w.audit.LogEvent(ctx, audit.EventTool, "monitor_mode", map[string]any{
		"interface": iface,
		"enabled":   enable,
	})
	return nil
}

// Deauth sends count deauthentication frames to the network at bssid.
// The BSSID is validated and normalized first and the count is bounded.
func (w *WiFi) Deauth(ctx context.Context, bssid string, count int) error {
	normalized, err := gate.ValidateBSSID(bssid)
	if err != nil {
		w.audit.LogValidation(ctx, "deauth_bssid", bssid, "malformed", false)
		return err
	}
	if count < 1 || count > 100 {
		return fmt.Errorf("%w: %d", ErrBadDeauthCount, count)
	}

	w.audit.LogEvent(ctx, audit.EventDeauth, "start", map[string]any{
		"bssid": normalized,
		"count": count,
	})

	result, err := w.runner.Execute(ctx, "aireplay-ng",
		[]string{"--deauth", strconv.Itoa(count), "-a", normalized, monitorInterface},
		30*time.Second)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("%w: exit %d: %s", ErrScanFailed, result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	w.logger.Info("deauth frames sent", "bssid", normalized, "count", count)
	return nil
}

// splitUnescaped splits s at sep except where sep is preceded by a
// backslash.
func splitUnescaped(s string, sep byte) []string {
	var parts []string
	var b strings.Builder
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			b.WriteByte('\\')
			b.WriteByte(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == sep:
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	if escaped {
		b.WriteByte('\\')
	}
	parts = append(parts, b.String())
	return parts
}

// unescapeField removes the terse-mode backslash escapes.
func unescapeField(s string) string {
	return strings.NewReplacer(`\:`, ":", `\%`, "%", `\\`, `\`).Replace(s)
}
