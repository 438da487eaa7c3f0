package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aevon-lab/aggcache/internal/app"
	"github.com/aevon-lab/aggcache/internal/backfill"
	corecfg "github.com/aevon-lab/aggcache/internal/core/config"
)

func main() {
	configPath := flag.String("config", "aggcache.yaml", "Path to configuration file")
	planPath := flag.String("plan", "backfill.yaml", "Path to backfill plan")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, *planPath); err != nil {
		slog.Error("Backfill failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, planPath string) error {
	cfg, err := corecfg.Load(configPath)
	if err != nil {
		return err
	}

	plan, err := backfill.LoadPlan(planPath)
	if err != nil {
		return err
	}

	if cfg.Database.DSN == "" {
		slog.Warn("No database.dsn configured, backfill runs over an empty record store")
	}
	if cfg.Cache.Backend == corecfg.BackendNone || cfg.Cache.Backend == corecfg.BackendMemory {
		slog.Warn("Backfill results will not outlive this process", "cache_backend", cfg.Cache.Backend)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer application.Close()

	start := time.Now()
	total := 0
	for _, runCfg := range plan.Configs(cfg.Backfill.BatchSize, cfg.Backfill.Workers, logProgress) {
		summary, err := application.Backfill.Run(ctx, runCfg)
		if err != nil {
			return err
		}
		total += summary.Refreshed
	}

	slog.Info("Backfill complete",
		"users", len(plan.Users),
		"refreshed", total,
		"duration", time.Since(start),
	)
	return nil
}

func logProgress(p backfill.Progress) {
	if p.Completed == p.Total || p.Completed%100 == 0 {
		slog.Info("Backfill progress",
			"user_id", p.UserID,
			"completed", p.Completed,
			"total", p.Total,
		)
	}
}
