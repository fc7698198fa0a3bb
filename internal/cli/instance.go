package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/cloud"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/tracker"
)

var instanceCmd = &cobra.Command{
	Use:   "instance <start|stop|status> [account]",
	Short: "Start, stop or query an instance",
	Long: `Instance runs a power action on the instance of the account given by name
or instance id. The account may be omitted when only one is configured.`,
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{string(tracker.PowerStart), string(tracker.PowerStop), string(tracker.PowerStatus)},
	RunE:      runInstance,
}

func init() {
	rootCmd.AddCommand(instanceCmd)
}

func runInstance(cmd *cobra.Command, args []string) error {
	action, err := tracker.ParsePowerAction(args[0])
	if err != nil {
		return err
	}
	ref := ""
	if len(args) > 1 {
		ref = args[1]
	}

	a, err := initApp()
	if err != nil {
		return err
	}

	result, err := a.Power(cmd.Context(), ref, action)
	if err != nil {
		return errors.New(cloud.Describe(err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}
