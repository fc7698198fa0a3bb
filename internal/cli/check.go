package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check every account once and print the run log",
	Long: `Check polls traffic for every configured account, toggles the ingress
rule when needed, sends notifications for transitions, writes the run log to
monitor.log_path and echoes it to stdout.`,
	RunE: runCheck,
}

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Send the daily usage digest",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(dailyCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}

	data, err := a.RunCheck(cmd.Context())
	if data != nil {
		cmd.OutOrStdout().Write(data)
	}
	if err != nil {
		return fmt.Errorf("write run log: %w", err)
	}
	return nil
}

func runDaily(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, res := range a.RunDigest(cmd.Context()) {
		switch {
		case res.Err != nil:
			fmt.Fprintf(out, "%s: %v\n", res.Account, res.Err)
		case res.Skipped:
			fmt.Fprintf(out, "%s: 安全组规则已禁用，跳过\n", res.Account)
		default:
			fmt.Fprintf(out, "%s: %s\n", res.Account, res.Outcome)
		}
	}
	return nil
}
