package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/cloud"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/regions"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List configured accounts, channels and schedules",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	cfg := a.Config
	out := cmd.OutOrStdout()
	table := regions.Default()

	fmt.Fprintf(out, "=== Accounts (%d) ===\n", len(cfg.Accounts))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  NAME\tPROVIDER\tREGION\tINSTANCE\tCAP\n")
	for _, acc := range cfg.Accounts {
		provider := acc.Provider
		if provider == "" {
			provider = cloud.DefaultProvider
		}
		fmt.Fprintf(w, "  %s\t%s\t%s (%s)\t%s\t%s\n",
			acc.DisplayName(),
			provider,
			table.Name(provider, acc.Region),
			acc.Region,
			acc.InstanceID,
			model.FormatGB(acc.MaxTrafficGB),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nThreshold:  %s\n", model.FormatPct(cfg.Monitor.ThresholdPct))
	fmt.Fprintf(out, "Run log:    %s\n", cfg.Monitor.LogPath)
	fmt.Fprintf(out, "Channels:   %v\n", a.Dispatcher.Channels())
	fmt.Fprintf(out, "Check cron: %q\n", cfg.Schedule.Check)
	fmt.Fprintf(out, "Daily cron: %q\n", cfg.Schedule.Daily)
	return nil
}
