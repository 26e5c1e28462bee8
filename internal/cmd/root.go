// Package cmd implements the deckctl CLI commands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dedsec-deck/deckd/internal/bootstrap"
	"github.com/dedsec-deck/deckd/internal/terminal"
)

// Global flag values.
var (
	flagConfig  string
	flagOutput  string
	flagVerbose bool
	flagNoColor bool
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "deckctl",
	Short: "Whitelisted network and system tooling for the deck",
	Long: `deckctl drives the deck's reconnaissance and control tools through a
strict command whitelist. Every subprocess is validated argument by
argument, executed with resource limits and a timeout, and recorded in
an append-only audit log.`,
	SilenceUsage: true,
}

// Execute runs the root command and returns any error.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command under ctx so an interrupt cancels
// in-flight tool invocations through the supervisor's kill path.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", defaultConfigPath(), "path to the deckd configuration file")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log at debug level on the console")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/deckd/deckd.toml"
	}
	return home + "/.deckd/deckd.toml"
}

// newApp assembles the application container for a subcommand run.
func newApp() (*bootstrap.App, error) {
	var console io.Writer
	if flagVerbose {
		console = os.Stderr
	}
	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath:    flagConfig,
		ConsoleWriter: console,
	})
	if err != nil {
		return nil, fmt.Errorf("startup failed: %w", err)
	}
	return app, nil
}

// recordExecution updates the registry's last-run bookkeeping. A failure
// here never fails the command itself; it is logged and dropped.
func recordExecution(app *bootstrap.App, toolID, status string) {
	if err := app.Registry.RecordExecution(toolID, status); err != nil {
		app.Logger.Warn("tool execution not recorded", "tool", toolID, "error", err)
	}
}

// colorEnabled reports whether table output may use ANSI colors.
func colorEnabled() bool {
	caps := terminal.NewCapabilities(terminal.Options{NoColor: flagNoColor})
	return caps.SupportsColor()
}

// render writes v in the selected output format. Table rendering is the
// caller's job; render handles the structured formats and returns false
// when the caller should print its table instead.
func render(w io.Writer, v any) (bool, error) {
	switch flagOutput {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return true, enc.Encode(v)
	case "table", "":
		return false, nil
	default:
		return true, fmt.Errorf("unknown output format %q", flagOutput)
	}
}
