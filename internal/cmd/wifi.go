package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dedsec-deck/deckd/internal/tools"
)

var (
	flagDeauthCount  int
	flagMonitorIface string
)

var wifiCmd = &cobra.Command{
	Use:   "wifi",
	Short: "Wireless network operations",
}

var wifiScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List visible wireless networks",
	RunE:  runWifiScan,
}

var wifiDeauthCmd = &cobra.Command{
	Use:   "deauth <bssid>",
	Short: "Send deauthentication frames to a network",
	Long: `Send a bounded burst of deauthentication frames to the network at the
given BSSID. Requires monitor mode (see "deckctl wifi monitor").`,
	Args: cobra.ExactArgs(1),
	RunE: runWifiDeauth,
}

var wifiMonitorCmd = &cobra.Command{
	Use:       "monitor <start|stop>",
	Short:     "Toggle monitor mode on the wireless interface",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"start", "stop"},
	RunE:      runWifiMonitor,
}

func init() {
	wifiDeauthCmd.Flags().IntVar(&flagDeauthCount, "count", 5, "number of deauth frames to send (1-100)")
	wifiMonitorCmd.Flags().StringVar(&flagMonitorIface, "iface", "wlan0", "wireless interface")
	wifiCmd.AddCommand(wifiScanCmd, wifiDeauthCmd, wifiMonitorCmd)
	rootCmd.AddCommand(wifiCmd)
}

func runWifiScan(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	var (
		networks []tools.Network
		scanErr  error
	)
	if err := app.RunBlocking(cmd.Context(), func() {
		networks, scanErr = app.WiFi.Scan(cmd.Context())
	}); err != nil {
		return err
	}
	if scanErr != nil {
		recordExecution(app, "wifi_scan", "error")
		return scanErr
	}
	recordExecution(app, "wifi_scan", "success")

	if done, err := render(os.Stdout, networks); done {
		return err
	}

	if len(networks) == 0 {
		fmt.Println("No networks found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SSID\tBSSID\tSIGNAL\tSECURITY")
	for _, n := range networks {
		fmt.Fprintf(w, "%s\t%s\t%d%%\t%s\n", n.SSID, n.BSSID, n.Signal, n.Security)
	}
	return w.Flush()
}

func runWifiDeauth(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.WiFi.Deauth(cmd.Context(), args[0], flagDeauthCount); err != nil {
		recordExecution(app, "wifi_deauth", "error")
		return err
	}
	recordExecution(app, "wifi_deauth", "success")
	fmt.Printf("Sent %d deauth frames to %s.\n", flagDeauthCount, args[0])
	return nil
}

func runWifiMonitor(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	enable := args[0] == "start"
	if err := app.WiFi.MonitorMode(cmd.Context(), flagMonitorIface, enable); err != nil {
		return err
	}
	if enable {
		fmt.Printf("Monitor mode enabled on %s.\n", flagMonitorIface)
	} else {
		fmt.Printf("Monitor mode disabled on %s.\n", flagMonitorIface)
	}
	return nil
}
