// Command cdt-check runs one traffic check pass with ./config.yaml, writes
// the run log and echoes it to stdout.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ogulcanaydogan/cdt-guardian/internal/app"
	"github.com/ogulcanaydogan/cdt-guardian/internal/config"
)

const configFile = "config.yaml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := app.New(cfg, app.NewLogger(cfg.Logging, os.Stderr))
	if err != nil {
		return err
	}

	data, err := a.RunCheck(context.Background())
	if data != nil {
		os.Stdout.Write(data)
	}
	return err
}
