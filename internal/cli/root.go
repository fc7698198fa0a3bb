package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/cdt-guardian/internal/app"
	"github.com/ogulcanaydogan/cdt-guardian/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "cdtg",
	Short: "CDT Guardian - cloud CDT traffic monitoring and auto shut-off",
	Long: `CDT Guardian polls the monthly CDT internet traffic of each configured
instance, closes the allow-all ingress rule when usage crosses the threshold,
reopens it when usage drops back, and notifies through email, Bark, Telegram,
webhook and WeCom.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.cdtg/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// initApp loads configuration and wires the application.
func initApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, app.NewLogger(cfg.Logging, os.Stderr))
}
