// Package main provides the HTTP API server for the entity scanner.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/entity-scanner/internal/app"
	"github.com/raphaelgruber/entity-scanner/internal/config"
	"github.com/raphaelgruber/entity-scanner/internal/server"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = cleanup() }()

	logger.Info("scanner-server starting",
		"version", version,
		"port", cfg.ServerPort,
		"config", cfg.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	a, err := app.New(initCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to initialize scanner", "error", err)
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.Error("failed to close scanner", "error", err)
		}
	}()

	api := server.NewAPI(a.Service, logger, version)

	errCh := make(chan error, 1)
	go func() {
		errCh <- api.Start(":" + cfg.ServerPort)
	}()
	logger.Info("server ready", "url", "http://localhost:"+cfg.ServerPort+"/")

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	return shutdown(api, logger)
}

func shutdown(api *server.API, logger *slog.Logger) error {
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := api.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}
