package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"custody/internal/app"
	"custody/internal/platform/config"
	"custody/internal/platform/logger"
)

// main wires configuration and logging, then hands the lifecycle to app.Run
// until SIGINT or SIGTERM.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("failed to release resources", "error", err)
		}
	}()

	if err := a.Run(ctx); err != nil {
		log.Error("server stopped with error", "error", err)
		stop()
		_ = a.Close()
		os.Exit(1)
	}
	log.Info("server stopped")
}
