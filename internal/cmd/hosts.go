package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagHostsNetwork string

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "Discover live hosts on the LAN",
	Long: `Ping-scan a network for live hosts. Without --network the default
gateway's /24 is scanned.`,
	RunE: runHosts,
}

func init() {
	hostsCmd.Flags().StringVarP(&flagHostsNetwork, "network", "n", "", "network to scan in CIDR notation, e.g. 192.168.1.0/24")
	rootCmd.AddCommand(hostsCmd)
}

type hostReport struct {
	Network string   `json:"network" yaml:"network"`
	Hosts   []string `json:"hosts" yaml:"hosts"`
}

func runHosts(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	network := flagHostsNetwork
	if network == "" {
		network, err = app.Hosts.GatewayNetwork(cmd.Context())
		if err != nil {
			return fmt.Errorf("gateway detection failed, pass --network: %w", err)
		}
	}

	var (
		hosts   []string
		scanErr error
	)
	if err := app.RunBlocking(cmd.Context(), func() {
		hosts, scanErr = app.Hosts.ActiveHosts(cmd.Context(), network)
	}); err != nil {
		return err
	}
	if scanErr != nil {
		recordExecution(app, "host_discovery", "error")
		return scanErr
	}
	recordExecution(app, "host_discovery", "success")

	report := hostReport{Network: network, Hosts: hosts}
	if done, err := render(os.Stdout, report); done {
		return err
	}

	fmt.Printf("%d live hosts on %s:\n", len(hosts), network)
	for _, host := range hosts {
		fmt.Println("  " + host)
	}
	return nil
}
