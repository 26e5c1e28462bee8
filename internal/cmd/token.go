package cmd

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ErrNoTerminal is returned when the token must be read interactively but
// stdin is not a terminal.
var ErrNoTerminal = errors.New("token entry requires an interactive terminal")

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the cached elevation credential",
	Long: `Manage the in-memory elevation credential. The value is held only for
the configured TTL, is never written to disk and never appears in any
log output.

The cache lives inside a single process and is dropped when it exits;
each deckctl invocation starts with an empty cache.`,
}

var tokenSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Cache a credential, read from the terminal without echo",
	RunE:  runTokenSet,
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop the cached credential immediately",
	RunE:  runTokenClear,
}

var tokenStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether this process holds a valid credential",
	RunE:  runTokenStatus,
}

func init() {
	tokenCmd.AddCommand(tokenSetCmd, tokenClearCmd, tokenStatusCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runTokenSet(cmd *cobra.Command, args []string) error {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		return ErrNoTerminal
	}

	fmt.Fprint(os.Stderr, "Token: ")
	value, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	app.Tokens.Set(string(value))
	fmt.Println(tokenCachedMessage(app.Config.Token.TTL()))
	return nil
}

// tokenCachedMessage reports the cache lifetime honestly: the cache is
// process-local, so the TTL only matters for as long as this process runs.
func tokenCachedMessage(ttl time.Duration) string {
	return fmt.Sprintf("Credential cached for up to %s; it is discarded when this process exits.", ttl)
}

func runTokenClear(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	app.Tokens.Clear()
	fmt.Println("Credential cleared.")
	return nil
}

func runTokenStatus(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if app.Tokens.Valid() {
		fmt.Println("A valid credential is cached.")
	} else {
		fmt.Println("No credential cached in this process.")
	}
	return nil
}
