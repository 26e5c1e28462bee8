package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dedsec-deck/deckd/internal/tools"
)

var flagScanPorts string

var scanCmd = &cobra.Command{
	Use:   "scan <target>",
	Short: "Port-scan a host or network",
	Long: `Scan a target for open ports. The target must be an IPv4 address, a
CIDR network or a hostname; anything else is rejected before any
process is spawned.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&flagScanPorts, "ports", "p", "", "port range to scan, e.g. 1-1000 or 21,22,80 (default: fast profile)")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	var (
		report  *tools.ScanReport
		scanErr error
	)
	if err := app.RunBlocking(cmd.Context(), func() {
		report, scanErr = app.Scanner.Scan(cmd.Context(), args[0], flagScanPorts)
	}); err != nil {
		return err
	}
	if scanErr != nil {
		recordExecution(app, "port_scan", "error")
		return scanErr
	}
	recordExecution(app, "port_scan", "success")

	if done, err := render(os.Stdout, report); done {
		return err
	}

	if report.Cached {
		fmt.Println("(cached result)")
	}
	if len(report.Ports) == 0 {
		fmt.Printf("No open ports found on %s.\n", report.Target)
		return nil
	}

	color := colorEnabled()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PORT\tPROTO\tSTATE\tSERVICE\tVERSION")
	for _, p := range report.Ports {
		state := p.State
		if color && state == "open" {
			state = "\x1b[32m" + state + "\x1b[0m"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Port, p.Protocol, state, p.Service, p.Version)
	}
	return w.Flush()
}
