// Package main provides the MCP server entry point for the entity scanner.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/entity-scanner/internal/app"
	"github.com/raphaelgruber/entity-scanner/internal/config"
	"github.com/raphaelgruber/entity-scanner/internal/server"
	"github.com/raphaelgruber/entity-scanner/internal/tools"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg := config.Load()

	// Stderr text + file JSON; stdout carries the protocol
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = cleanup() }()

	logger.Info("scanner-mcp starting", "version", version, "config", cfg.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize scanner", "error", err)
		return err
	}
	defer func() {
		logger.Info("closing stores")
		_ = a.Close(context.Background())
	}()

	srv := server.New(version, logger)
	srv.Setup()

	count := tools.RegisterAll(srv.MCPServer(), &tools.Dependencies{
		Service: a.Service,
		Logger:  logger,
	})
	logger.Info("tools registered", "count", count)

	logger.Info("server ready, awaiting connections")

	// Blocks until the client disconnects or the context is cancelled
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		return err
	}

	logger.Info("shutdown complete")
	return nil
}
