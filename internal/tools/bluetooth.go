package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dedsec-deck/deckd/internal/audit"
	"github.com/dedsec-deck/deckd/internal/gate"
)

// Device is one discovered Bluetooth peer.
type Device struct {
	MAC  string `json:"mac" yaml:"mac"`
	Name string `json:"name" yaml:"name"`
}

// Bluetooth wraps controller power, discovery and device listing.
type Bluetooth struct {
	runner       Runner
	audit        *audit.Logger
	logger       *slog.Logger
	scanDuration time.Duration
}

// NewBluetooth creates the Bluetooth toolset.
func NewBluetooth(runner Runner, auditLogger *audit.Logger, logger *slog.Logger) *Bluetooth {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bluetooth{
		runner:       runner,
		audit:        auditLogger,
		logger:       logger,
		scanDuration: 5 * time.Second,
	}
}

// Power switches the controller on or off.
func (b *Bluetooth) Power(ctx context.Context, on bool) error {
	state := "off"
	if on {
		state = "on"
	}

	result, err := b.runner.Execute(ctx, "bluetoothctl", []string{"power", state}, 5*time.Second)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("%w: exit %d: %s", ErrScanFailed, result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	b.audit.LogEvent(ctx, audit.EventTool, "bt_power", map[string]any{"on": on})
	return nil
}

// Scan runs discovery for a bounded window, then returns the devices the
// controller has seen. Discovery itself runs until its timeout expires,
// so a timeout result here is the normal ending, not a failure.
func (b *Bluetooth) Scan(ctx context.Context) ([]Device, error) {
	result, err := b.runner.Execute(ctx, "bluetoothctl", []string{"scan", "on"}, b.scanDuration)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 && result.ExitCode != 124 {
		return nil, fmt.Errorf("%w: exit %d: %s", ErrScanFailed, result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	return b.Devices(ctx)
}

// Devices lists the peers known to the controller.
func (b *Bluetooth) Devices(ctx context.Context) ([]Device, error) {
	result, err := b.runner.Execute(ctx, "bluetoothctl", []string{"devices"}, 5*time.Second)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("%w: exit %d: %s", ErrScanFailed, result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	devices := ParseDeviceList(result.Stdout)
	b.logger.Info("bluetooth device list", "devices", len(devices))
	return devices, nil
}

// ParseDeviceList parses "Device <MAC> <Name>" lines. Lines whose MAC
// does not validate are dropped.
func ParseDeviceList(output string) []Device {
	var devices []Device
	for _, line := range strings.Split(output, "\n") {
		fields := strings.SplitN(strings.TrimSpace(line), " ", 3)
		if len(fields) < 3 || fields[0] != "Device" {
			continue
		}
		mac, err := gate.ValidateBSSID(fields[1])
		if err != nil {
			continue
		}
		devices = append(devices, Device{MAC: mac, Name: fields[2]})
	}
	return devices
}
