package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagArpGateway string
	flagArpIface   string
)

var arpCmd = &cobra.Command{
	Use:   "arp",
	Short: "ARP spoofing sessions",
}

var arpStartCmd = &cobra.Command{
	Use:   "start <target-ip>",
	Short: "Start an ARP spoofing session against a target",
	Long: `Start poisoning the ARP cache of the target so its traffic routes
through this host. Without --gateway the default gateway is detected
from the route table.

The session lives inside this process: it runs in the foreground until
interrupted with Ctrl-C, or until the one-hour backstop expires.`,
	Args: cobra.ExactArgs(1),
	RunE: runArpStart,
}

var arpStopCmd = &cobra.Command{
	Use:   "stop [target-ip]",
	Short: "Stop one or all ARP spoofing sessions",
	Long: `Stop spoofing sessions started by this process. Sessions are not
shared across deckctl invocations; a session started in another
terminal is stopped by interrupting that process.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runArpStop,
}

var arpListCmd = &cobra.Command{
	Use:   "list",
	Short: "List this process's active ARP spoofing sessions",
	RunE:  runArpList,
}

func init() {
	arpStartCmd.Flags().StringVar(&flagArpGateway, "gateway", "", "gateway IP to impersonate (default: detected)")
	arpStartCmd.Flags().StringVar(&flagArpIface, "iface", "eth0", "network interface")
	arpCmd.AddCommand(arpStartCmd, arpStopCmd, arpListCmd)
	rootCmd.AddCommand(arpCmd)
}

func runArpStart(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	gateway := flagArpGateway
	if gateway == "" {
		gateway, err = app.Hosts.DefaultGateway(cmd.Context())
		if err != nil {
			return fmt.Errorf("gateway detection failed, pass --gateway: %w", err)
		}
	}

	if err := app.Spoofer.Start(cmd.Context(), args[0], gateway, flagArpIface); err != nil {
		recordExecution(app, "arp_spoof", "error")
		return err
	}
	recordExecution(app, "arp_spoof", "success")
	fmt.Println(spoofStartBanner(args[0], gateway, flagArpIface))

	// The session lives inside this process; wait until interrupted so
	// the poisoning keeps running.
	<-cmd.Context().Done()
	return nil
}

// spoofStartBanner is the line printed once a session is running. The
// session dies with this process, so the stop instruction must point at
// the interrupt, not at a separate deckctl invocation.
func spoofStartBanner(target, gateway, iface string) string {
	return fmt.Sprintf("Spoofing %s as %s on %s. Press Ctrl-C to stop.", target, gateway, iface)
}

func runArpStop(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if len(args) == 0 {
		return app.Spoofer.StopAll(cmd.Context())
	}
	return app.Spoofer.Stop(cmd.Context(), args[0])
}

func runArpList(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	sessions := app.Spoofer.Active()
	if done, err := render(os.Stdout, sessions); done {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("No active sessions.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TARGET\tGATEWAY\tIFACE\tUPTIME")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Target, s.Gateway, s.Interface, time.Since(s.StartedAt).Round(time.Second))
	}
	return w.Flush()
}
