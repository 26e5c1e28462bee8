package gate

// CommandSpec is a static whitelist record for one allowed tool.
type CommandSpec struct {
	// Path is the canonical absolute path invoked in place of the command
	// name, so PATH lookups can never be hijacked.
	Path string
	// AllowedFlags are the literal argument tokens permitted for this command.
	AllowedFlags []string
	// AllowTargets permits validated IP/CIDR and port-range arguments in
	// addition to the literal flags.
	AllowTargets bool
	// AllowBSSID permits validated MAC address arguments.
	AllowBSSID bool
	// AllowCounts permits small positive integer arguments (1..100),
	// used for bounded packet counts.
	AllowCounts bool
}

// Whitelist maps command names to their specs.
type Whitelist map[string]CommandSpec

// DefaultWhitelist returns the canonical command table. This is the single
// authoritative whitelist; argument sets are the union of every call site
// that existed before consolidation.
func DefaultWhitelist() Whitelist {
	return Whitelist{
		"nmap": {
			Path:         "/usr/bin/nmap",
			AllowedFlags: []string{"-F", "-T4", "-T5", "-sn", "-Pn", "-p", "--host-timeout", "60", "-oG", "-"},
			AllowTargets: true,
		},
		"ip": {
			Path:         "/usr/sbin/ip",
			AllowedFlags: []string{"route", "show", "default"},
		},
		"arpspoof": {
			Path:         "/usr/sbin/arpspoof",
			AllowedFlags: []string{"-i", "-t", "-r", "eth0", "wlan0"},
			AllowTargets: true,
		},
		"airmon-ng": {
			Path:         "/usr/sbin/airmon-ng",
			AllowedFlags: []string{"start", "stop", "status", "check", "kill", "wlan0", "wlan1"},
		},
		"aireplay-ng": {
			Path:         "/usr/sbin/aireplay-ng",
			AllowedFlags: []string{"--deauth", "--count", "-a", "-c", "-w", "wlan0mon"},
			AllowBSSID:   true,
			AllowCounts:  true,
		},
		"reaver": {
			Path:         "/usr/sbin/reaver",
			AllowedFlags: []string{"-i", "-b", "-vv", "-K", "-N", "-t", "wlan0mon"},
			AllowBSSID:   true,
			AllowCounts:  true,
		},
		"iwconfig": {
			Path:         "/sbin/iwconfig",
			AllowedFlags: []string{"wlan0", "wlan1", "mode", "monitor", "managed"},
		},
		"nmcli": {
			Path:         "/usr/bin/nmcli",
			AllowedFlags: []string{"-t", "-f", "SSID,BSSID,SIGNAL,SECURITY", "dev", "wifi", "list", "rescan", "connect"},
		},
		"bluetoothctl": {
			Path:         "/usr/bin/bluetoothctl",
			AllowedFlags: []string{"scan", "on", "off", "devices", "power"},
		},
		"shutdown": {
			Path:         "/usr/sbin/shutdown",
			AllowedFlags: []string{"-h", "now"},
		},
		"reboot": {
			Path:         "/usr/sbin/reboot",
			AllowedFlags: []string{},
		},
	}
}

// WithExtraFlags returns a copy of the whitelist with additional literal
// flags merged into existing entries. Unknown command names are ignored:
// configuration may extend the argument surface of a whitelisted tool but
// can never introduce a new command.
func (w Whitelist) WithExtraFlags(extra map[string][]string) Whitelist {
	merged := make(Whitelist, len(w))
	for name, spec := range w {
		flags := make([]string, len(spec.AllowedFlags))
		copy(flags, spec.AllowedFlags)
		for _, flag := range extra[name] {
			if !containsString(flags, flag) {
				flags = append(flags, flag)
			}
		}
		spec.AllowedFlags = flags
		merged[name] = spec
	}
	return merged
}

func containsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
