package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aevon-lab/aggcache/internal/app"
	corecfg "github.com/aevon-lab/aggcache/internal/core/config"
	"github.com/aevon-lab/aggcache/internal/server"
)

func main() {
	configPath := flag.String("config", "aggcache.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config",
		"cache_backend", cfg.Cache.Backend,
		"default_ttl", cfg.Cache.DefaultTTL,
		"schema_version", cfg.Cache.SchemaVersion,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize storage, cache tier and services
	application, err := app.New(ctx, cfg, nil)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := application.Close(); err != nil {
			slog.Error("Failed to release resources", "error", err)
		}
	}()

	// 3. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), cfg.Server.Mode, application.Checks)
	application.RegisterRoutes(srv.Engine)

	// 4. Start the sweeper in background if enabled
	var wg sync.WaitGroup
	if application.Sweeper != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := application.Sweeper.Start(ctx); err != nil {
				slog.Error("Sweeper stopped with error", "error", err)
			}
		}()
	} else {
		slog.Info("Expired-entry sweeper disabled by config")
	}

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
		cancel()
	}

	// The final sweep must finish before connections close.
	wg.Wait()
	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
