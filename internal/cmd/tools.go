package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dedsec-deck/deckd/internal/registry"
)

var flagToolsCategory string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the registered tools and their availability",
	RunE:  runTools,
}

var toolsEnableCmd = &cobra.Command{
	Use:   "enable <tool-id>",
	Short: "Enable a tool",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return toggleTool(args[0], true) },
}

var toolsDisableCmd = &cobra.Command{
	Use:   "disable <tool-id>",
	Short: "Disable a tool",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return toggleTool(args[0], false) },
}

func init() {
	toolsCmd.Flags().StringVarP(&flagToolsCategory, "category", "c", "", "only list tools in this category")
	toolsCmd.AddCommand(toolsEnableCmd, toolsDisableCmd)
	rootCmd.AddCommand(toolsCmd)
}

type toolStatus struct {
	registry.Tool `yaml:",inline"`
	Available     bool     `json:"available" yaml:"available"`
	Missing       []string `json:"missing,omitempty" yaml:"missing,omitempty"`
}

func runTools(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	var listed []registry.Tool
	if flagToolsCategory != "" {
		listed = app.Registry.ByCategory(registry.Category(flagToolsCategory))
	} else {
		listed = app.Registry.All()
	}

	statuses := make([]toolStatus, 0, len(listed))
	for _, tool := range listed {
		missing, _ := app.Registry.MissingBinaries(tool.ID)
		statuses = append(statuses, toolStatus{
			Tool:      tool,
			Available: app.Registry.Available(tool.ID),
			Missing:   missing,
		})
	}

	if done, err := render(os.Stdout, statuses); done {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tAVAILABLE\tMISSING")
	for _, s := range statuses {
		available := "yes"
		if !s.Available {
			available = "no"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Category, available, strings.Join(s.Missing, ","))
	}
	return w.Flush()
}

func toggleTool(id string, enabled bool) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Registry.SetEnabled(id, enabled); err != nil {
		return err
	}
	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	fmt.Printf("Tool %s %s.\n", id, state)
	return nil
}
