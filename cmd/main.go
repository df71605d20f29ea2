package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orgball2608/crosspost/internal/app"
	"github.com/orgball2608/crosspost/pkg/logger"
	"go.uber.org/fx"
)

const shutdownTimeout = time.Minute

func main() {
	log := logger.New(logger.Opts{})

	app := fx.New(
		fx.Logger(log),
		fx.StopTimeout(shutdownTimeout),
		app.Module,
	)

	// Start the application
	if err := app.Start(context.Background()); err != nil {
		log.Error("Failed to start application", "error", err)
		os.Exit(1)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	// Give in-flight dispatches time to record their outcomes
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		log.Error("Failed to stop application", "error", err)
		os.Exit(1)
	}
}
