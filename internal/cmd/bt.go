package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dedsec-deck/deckd/internal/tools"
)

var btCmd = &cobra.Command{
	Use:   "bt",
	Short: "Bluetooth operations",
}

var btScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover nearby Bluetooth devices",
	RunE:  runBtScan,
}

var btPowerCmd = &cobra.Command{
	Use:       "power <on|off>",
	Short:     "Switch the Bluetooth controller on or off",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runBtPower,
}

func init() {
	btCmd.AddCommand(btScanCmd, btPowerCmd)
	rootCmd.AddCommand(btCmd)
}

func runBtScan(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	var (
		devices []tools.Device
		scanErr error
	)
	if err := app.RunBlocking(cmd.Context(), func() {
		devices, scanErr = app.Bluetooth.Scan(cmd.Context())
	}); err != nil {
		return err
	}
	if scanErr != nil {
		recordExecution(app, "bt_scan", "error")
		return scanErr
	}
	recordExecution(app, "bt_scan", "success")

	if done, err := render(os.Stdout, devices); done {
		return err
	}

	if len(devices) == 0 {
		fmt.Println("No devices found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MAC\tNAME")
	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s\n", d.MAC, d.Name)
	}
	return w.Flush()
}

func runBtPower(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	on := args[0] == "on"
	if err := app.Bluetooth.Power(cmd.Context(), on); err != nil {
		return err
	}
	fmt.Printf("Bluetooth controller powered %s.\n", args[0])
	return nil
}
