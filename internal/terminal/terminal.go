// Package terminal detects whether deckctl is talking to an interactive
// terminal and whether colored output should be emitted. The answers feed
// the console log handler and the CLI renderers.
package terminal

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ciEnvVars are environment variables set by common CI systems. Any of
// them present means the session is non-interactive even on a pty.
var ciEnvVars = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"BUILDKITE",
	"DRONE",
}

// colorTerminals are TERM values (or prefixes) known to support colors.
var colorTerminals = []string{
	"xterm",
	"screen",
	"tmux",
	"rxvt",
	"vt100",
	"vt220",
	"ansi",
	"linux",
}

// Options force the detection outcome from command line flags.
type Options struct {
	ForceInteractive    bool
	ForceNonInteractive bool
	ForceColor          bool
	NoColor             bool
}

// Capabilities reports the detected terminal features.
type Capabilities struct {
	options Options
	// isTerminalFd is swapped in tests.
	isTerminalFd func(fd int) bool
	getenv       func(string) string
}

// NewCapabilities detects against the real stdout and environment.
func NewCapabilities(options Options) *Capabilities {
	return &Capabilities{
		options:      options,
		isTerminalFd: term.IsTerminal,
		getenv:       os.Getenv,
	}
}

// IsInteractive reports whether the session should be treated as
// interactive: stdout is a terminal and no CI indicator is set, unless a
// flag forces the answer.
func (c *Capabilities) IsInteractive() bool {
	if c.options.ForceInteractive {
		return true
	}
	if c.options.ForceNonInteractive {
		return false
	}
	if c.isCIEnvironment() {
		return false
	}
	return c.isTerminalFd(int(os.Stdout.Fd()))
}

// SupportsColor reports whether colored output should be emitted.
// Priority: command line flags, then NO_COLOR and CLICOLOR_FORCE, then
// TERM-based detection in interactive sessions.
func (c *Capabilities) SupportsColor() bool {
	if c.options.NoColor {
		return false
	}
	if c.options.ForceColor {
		return true
	}
	if c.getenv("NO_COLOR") != "" {
		return false
	}
	if isTruthy(c.getenv("CLICOLOR_FORCE")) {
		return true
	}
	if !c.IsInteractive() {
		return false
	}
	return c.termSupportsColor()
}

func (c *Capabilities) isCIEnvironment() bool {
	for _, v := range ciEnvVars {
		if c.getenv(v) != "" {
			return true
		}
	}
	return false
}

func (c *Capabilities) termSupportsColor() bool {
	termVal := strings.ToLower(strings.TrimSpace(c.getenv("TERM")))
	if termVal == "" || termVal == "dumb" {
		return false
	}
	for _, known := range colorTerminals {
		if termVal == known || strings.HasPrefix(termVal, known+"-") {
			return true
		}
	}
	return strings.Contains(termVal, "color")
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
