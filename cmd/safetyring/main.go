package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ogulcanaydogan/SafetyRing/internal/app"
	"github.com/ogulcanaydogan/SafetyRing/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgFile := flag.String("config", "", "config file (default: ~/.safetyring/config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closer := config.NewLogger(cfg.Logging)
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	daemon, err := app.NewDaemon(cfg, stores, logger)
	if err != nil {
		return err
	}
	return daemon.Run(ctx)
}
