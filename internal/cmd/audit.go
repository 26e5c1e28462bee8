package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dedsec-deck/deckd/internal/audit"
	"github.com/dedsec-deck/deckd/internal/config"
	"github.com/dedsec-deck/deckd/internal/safepath"
)

var flagAuditTail int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Summarize the audit trail",
	Long: `Read the append-only audit log and summarize it: totals per event
type, per gate status and per command, plus the most recent records.`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().IntVar(&flagAuditTail, "tail", 10, "number of recent records to show")
	rootCmd.AddCommand(auditCmd)
}

type auditReport struct {
	Summary audit.Summary  `json:"summary" yaml:"summary"`
	Blocked int            `json:"blocked" yaml:"blocked"`
	Recent  []audit.Record `json:"recent,omitempty" yaml:"recent,omitempty"`
}

func runAudit(cmd *cobra.Command, args []string) error {
	// The audit command only reads; it must not spin up the execution
	// stack or touch process identity.
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	paths := safepath.NewResolver(cfg.RootDir)
	logPath, err := paths.Join(safepath.CategoryLogs, "audit.log")
	if err != nil {
		return err
	}

	file, err := os.Open(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No audit records yet.")
			return nil
		}
		return fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	records, err := audit.ReadLog(file)
	if err != nil {
		return fmt.Errorf("read audit log: %w", err)
	}

	summary := audit.Summarize(records)
	recent := records
	if flagAuditTail >= 0 && len(recent) > flagAuditTail {
		recent = recent[len(recent)-flagAuditTail:]
	}

	report := auditReport{Summary: summary, Blocked: summary.Blocked(), Recent: recent}
	if done, err := render(os.Stdout, report); done {
		return err
	}

	fmt.Printf("%d audit records, %d blocked before execution.\n\n", summary.Total, report.Blocked)

	printCounts("BY EVENT", summary.ByEvent)
	printCounts("BY STATUS", summary.ByStatus)
	printCounts("BY COMMAND", summary.ByCommand)

	if len(recent) > 0 {
		fmt.Println("RECENT")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tEVENT\tCOMMAND\tSTATUS\tACTION")
		for _, r := range recent {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Time, r.EventType, r.Command, r.Status, r.Action)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func printCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Println(title)
	for _, key := range keys {
		fmt.Printf("  %-28s %d\n", key, counts[key])
	}
	fmt.Println()
}
