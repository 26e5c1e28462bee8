package gate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dedsec-deck/deckd/internal/gate"
)

func TestDefaultWhitelistPaths(t *testing.T) {
	wl := gate.DefaultWhitelist()
	for name, spec := range wl {
		assert.True(t, strings.HasPrefix(spec.Path, "/"), "command %s must have an absolute path", name)
	}
}

func TestDefaultWhitelistTargets(t *testing.T) {
	wl := gate.DefaultWhitelist()

	// Only the network tools that take hosts accept validated targets.
	assert.True(t, wl["nmap"].AllowTargets)
	assert.True(t, wl["arpspoof"].AllowTargets)
	assert.False(t, wl["nmcli"].AllowTargets)
	assert.False(t, wl["shutdown"].AllowTargets)
}

func TestWithExtraFlagsMergesIntoExistingEntry(t *testing.T) {
	wl := gate.DefaultWhitelist().WithExtraFlags(map[string][]string{
		"nmap": {"-sV"},
	})

	spec, ok := wl["nmap"]
	require.True(t, ok)
	assert.Contains(t, spec.AllowedFlags, "-sV")
	assert.Contains(t, spec.AllowedFlags, "-F")
}

func TestWithExtraFlagsCannotAddCommands(t *testing.T) {
	wl := gate.DefaultWhitelist().WithExtraFlags(map[string][]string{
		"bash": {"-c"},
	})

	_, ok := wl["bash"]
	assert.False(t, ok)
}

func TestWithExtraFlagsDeduplicates(t *testing.T) {
	base := gate.DefaultWhitelist()
	wl := base.WithExtraFlags(map[string][]string{
		"nmap": {"-F", "-F"},
	})

	count := 0
	for _, flag := range wl["nmap"].AllowedFlags {
		if flag == "-F" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestWithExtraFlagsDoesNotMutateReceiver(t *testing.T) {
	base := gate.DefaultWhitelist()
	before := len(base["nmap"].AllowedFlags)

	_ = base.WithExtraFlags(map[string][]string{"nmap": {"--new-flag"}})

	assert.Len(t, base["nmap"].AllowedFlags, before)
}
