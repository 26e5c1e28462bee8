package tools_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dedsec-deck/deckd/internal/cache"
	"github.com/dedsec-deck/deckd/internal/gate"
	"github.com/dedsec-deck/deckd/internal/tools"
)

const samplePingScan = `Starting Nmap 7.93 ( https://nmap.org )
Nmap scan report for 192.168.1.1
Host is up (0.0010s latency).
Nmap scan report for 192.168.1.42
Host is up (0.0220s latency).
Nmap scan report for 192.168.1.107
Host is up (0.0035s latency).
Nmap done: 256 IP addresses (3 hosts up) scanned in 2.37 seconds
`

func TestParsePingScan(t *testing.T) {
	hosts := tools.ParsePingScan(samplePingScan)
	assert.Equal(t, []string{"192.168.1.1", "192.168.1.42", "192.168.1.107"}, hosts)
}

func TestActiveHosts(t *testing.T) {
	runner := newFakeRunner()
	runner.results["nmap"] = gate.Result{Stdout: samplePingScan}
	d := tools.NewHostDiscovery(runner, nil, discardLogger())

	hosts, err := d.ActiveHosts(context.Background(), "192.168.1.0/24")
	require.NoError(t, err)
	assert.Len(t, hosts, 3)
	assert.Equal(t, []string{"-sn", "-T5", "192.168.1.0/24"}, runner.lastCall().args)
}

func TestActiveHostsRejectsNonCIDR(t *testing.T) {
	runner := newFakeRunner()
	d := tools.NewHostDiscovery(runner, nil, discardLogger())

	for _, bad := range []string{"", "192.168.1.1", "192.168.1.0/24; ls", "999.0.0.0/24"} {
		_, err := d.ActiveHosts(context.Background(), bad)
		assert.ErrorIs(t, err, tools.ErrInvalidTarget, "network %q", bad)
	}
	assert.Equal(t, 0, runner.callCount())
}

func TestActiveHostsCached(t *testing.T) {
	runner := newFakeRunner()
	runner.results["nmap"] = gate.Result{Stdout: samplePingScan}
	c := cache.New(3, 256*1024, time.Minute)
	d := tools.NewHostDiscovery(runner, c, discardLogger())

	first, err := d.ActiveHosts(context.Background(), "192.168.1.0/24")
	require.NoError(t, err)
	second, err := d.ActiveHosts(context.Background(), "192.168.1.0/24")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, runner.callCount())
}

func TestDefaultGateway(t *testing.T) {
	runner := newFakeRunner()
	runner.results["ip"] = gate.Result{Stdout: "default via 192.168.1.1 dev eth0 proto dhcp metric 100\n"}
	d := tools.NewHostDiscovery(runner, nil, discardLogger())

	gw, err := d.DefaultGateway(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.1", gw)
}

func TestDefaultGatewayMissingRoute(t *testing.T) {
	runner := newFakeRunner()
	runner.results["ip"] = gate.Result{Stdout: ""}
	d := tools.NewHostDiscovery(runner, nil, discardLogger())

	_, err := d.DefaultGateway(context.Background())
	assert.ErrorIs(t, err, tools.ErrNoGateway)
}

func TestGatewayNetwork(t *testing.T) {
	runner := newFakeRunner()
	runner.results["ip"] = gate.Result{Stdout: "default via 10.0.0.1 dev wlan0\n"}
	d := tools.NewHostDiscovery(runner, nil, discardLogger())

	network, err := d.GatewayNetwork(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1/24", network)
}
