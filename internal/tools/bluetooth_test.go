package tools_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dedsec-deck/deckd/internal/gate"
	"github.com/dedsec-deck/deckd/internal/tools"
)

const sampleDeviceList = `Device AA:BB:CC:DD:EE:FF JBL Flip 5
Device 11:22:33:44:55:66 Pixel 7
Device broken-mac Ghost
Controller 00:00:00:00:00:01 deck [default]

`

func TestParseDeviceList(t *testing.T) {
	devices := tools.ParseDeviceList(sampleDeviceList)
	require.Len(t, devices, 2)
	assert.Equal(t, tools.Device{MAC: "AA:BB:CC:DD:EE:FF", Name: "JBL Flip 5"}, devices[0])
	assert.Equal(t, tools.Device{MAC: "11:22:33:44:55:66", Name: "Pixel 7"}, devices[1])
}

func TestBluetoothScan(t *testing.T) {
	runner := newFakeRunner()
	runner.results["bluetoothctl"] = gate.Result{Stdout: sampleDeviceList}
	b := tools.NewBluetooth(runner, newAudit(), discardLogger())

	devices, err := b.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, devices, 2)

	// Discovery first, then the device listing.
	assert.Equal(t, 2, runner.callCount())
	assert.Equal(t, []string{"devices"}, runner.lastCall().args)
}

func TestBluetoothScanTimeoutIsNormal(t *testing.T) {
	runner := newFakeRunner()
	// Discovery window ending in a timeout is the expected outcome.
	runner.results["bluetoothctl"] = gate.Result{ExitCode: 124}
	b := tools.NewBluetooth(runner, newAudit(), discardLogger())

	_, err := b.Scan(context.Background())
	assert.ErrorIs(t, err, tools.ErrScanFailed, "the follow-up device listing still failed")
	assert.Equal(t, 2, runner.callCount(), "discovery timeout must not abort the scan")
}

func TestBluetoothPower(t *testing.T) {
	runner := newFakeRunner()
	b := tools.NewBluetooth(runner, newAudit(), discardLogger())

	require.NoError(t, b.Power(context.Background(), true))
	assert.Equal(t, []string{"power", "on"}, runner.lastCall().args)

	require.NoError(t, b.Power(context.Background(), false))
	assert.Equal(t, []string{"power", "off"}, runner.lastCall().args)
}
