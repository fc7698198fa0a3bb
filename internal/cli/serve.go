package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the scheduler",
	Long: `Serve exposes /healthz, /api/v1/check, /api/v1/log and /metrics and runs
the check and daily jobs on their cron schedules until interrupted.`,
	RunE: runServe,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run only the scheduler",
	RunE:  runSchedule,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scheduleCmd)

	serveCmd.Flags().StringP("listen", "l", "", "Listen address (default from config)")
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}

	listen, _ := cmd.Flags().GetString("listen")
	if listen != "" {
		a.Config.Server.Listen = listen
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	err = a.Serve(ctx)
	a.Logger.Info("guardian stopped")
	return err
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()
	return a.Schedule(ctx)
}
