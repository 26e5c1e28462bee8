package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var flagSysYes bool

var sysCmd = &cobra.Command{
	Use:   "sys",
	Short: "Host power control",
}

var sysShutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Shut the deck down",
	RunE:  runSysShutdown,
}

var sysRebootCmd = &cobra.Command{
	Use:   "reboot",
	Short: "Reboot the deck",
	RunE:  runSysReboot,
}

func init() {
	sysCmd.PersistentFlags().BoolVarP(&flagSysYes, "yes", "y", false, "skip the confirmation prompt")
	sysCmd.AddCommand(sysShutdownCmd, sysRebootCmd)
	rootCmd.AddCommand(sysCmd)
}

func confirmPower(action string) bool {
	if flagSysYes {
		return true
	}
	fmt.Printf("Really %s the deck? [y/N] ", action)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func runSysShutdown(cmd *cobra.Command, args []string) error {
	if !confirmPower("shut down") {
		fmt.Println("Aborted.")
		return nil
	}
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	recordExecution(app, "sys_power", "success")
	return app.System.Shutdown(cmd.Context())
}

func runSysReboot(cmd *cobra.Command, args []string) error {
	if !confirmPower("reboot") {
		fmt.Println("Aborted.")
		return nil
	}
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	recordExecution(app, "sys_power", "success")
	return app.System.Reboot(cmd.Context())
}
