package cli

import (
	"os/signal"
	"syscall"

	"github.com/ogulcanaydogan/SafetyRing/internal/app"
	"github.com/ogulcanaydogan/SafetyRing/internal/config"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the alert daemon",
	Long:  `Run the alert engine with the HTTP API, the connectivity probe and, when enabled, the MQTT ring bridge.`,
	RunE:  runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closer := config.NewLogger(cfg.Logging)
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	d, err := app.NewDaemon(cfg, stores, logger)
	if err != nil {
		return err
	}
	return d.Run(ctx)
}
