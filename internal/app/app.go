// Package app assembles the aggregation cache from configuration. Both the
// HTTP server and the backfill CLI are built on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aevon-lab/aggcache/internal/aggregation"
	"github.com/aevon-lab/aggcache/internal/backfill"
	"github.com/aevon-lab/aggcache/internal/cache"
	cachebadger "github.com/aevon-lab/aggcache/internal/cache/badger"
	cacheredis "github.com/aevon-lab/aggcache/internal/cache/redis"
	"github.com/aevon-lab/aggcache/internal/core/config"
	"github.com/aevon-lab/aggcache/internal/core/storage"
	"github.com/aevon-lab/aggcache/internal/core/storage/memory"
	"github.com/aevon-lab/aggcache/internal/core/storage/postgres"
	"github.com/aevon-lab/aggcache/internal/flags"
	"github.com/aevon-lab/aggcache/internal/ingestion"
	"github.com/aevon-lab/aggcache/internal/migrations"
	"github.com/aevon-lab/aggcache/internal/server"
	"github.com/aevon-lab/aggcache/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

// App holds every long-lived component. Close releases the connections it opened.
type App struct {
	Config   *config.Config
	Flags    *flags.Registry
	Records  storage.RecordStore
	Registry *aggregation.Registry
	Cache    *cache.Manager
	Service  *service.Service
	Backfill *backfill.Job
	Importer *ingestion.Service

	// Sweeper is nil when cache.sweep_interval is zero.
	Sweeper *cache.Sweeper

	// Checks are the dependencies reported by /health.
	Checks map[string]server.HealthChecker

	closers []func() error
}

// New builds the application. A nil clock uses the real clock.
func New(ctx context.Context, cfg *config.Config, clock clockwork.Clock) (*App, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	a := &App{
		Config: cfg,
		Checks: make(map[string]server.HealthChecker),
	}
	ready := false
	defer func() {
		if !ready {
			a.Close()
		}
	}()

	// 1. Feature flags
	a.Flags = flags.NewRegistry(flags.Defaults(), cfg.Flags.Overrides, clock)

	// 2. Record source (PostgreSQL or in-process)
	var pg *postgres.Adapter
	if cfg.Database.DSN != "" {
		var err error
		pg, err = openPostgres(cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		a.Checks["database"] = pg
		a.Records = pg
	} else {
		slog.Warn("[App] No database.dsn configured, serving records from memory")
		a.Records = memory.NewRecordStore(clock)
	}

	// 3. Aggregation registry
	a.Registry = aggregation.NewRegistry(a.Records)
	a.Registry.UsePreprocessor(aggregation.FillDefaults)
	if err := aggregation.RegisterBuiltins(a.Registry); err != nil {
		return nil, fmt.Errorf("failed to register builtin aggregations: %w", err)
	}

	// 4. Cache tier
	durable, err := a.openDurable(ctx, cfg, pg)
	if err != nil {
		return nil, err
	}
	a.Cache = cache.NewManager(durable, cache.Options{
		Capacity:       cfg.Cache.MemoryCapacity,
		DurableTimeout: cfg.Cache.DurableTimeout,
		SchemaVersion:  cfg.Cache.SchemaVersion,
		Clock:          clock,
	})
	if cfg.Cache.SweepInterval > 0 {
		a.Sweeper = cache.NewSweeper(a.Cache, cfg.Cache.SweepInterval)
	}

	// 5. Service, backfill and record import
	a.Service = service.NewService(a.Registry, a.Cache, a.Flags, service.Options{
		DefaultTTL:    cfg.Cache.DefaultTTL,
		TTLOverrides:  cfg.Cache.TTLOverrides,
		SchemaVersion: cfg.Cache.SchemaVersion,
		Clock:         clock,
	})
	a.Backfill = backfill.NewJob(a.Service, a.Flags, clock)
	a.Importer = ingestion.NewService(a.Records, cfg.Server.MaxBodySizeMB)

	slog.Info("[App] Initialized",
		"cache_backend", cfg.Cache.Backend,
		"aggregations", a.Registry.List(),
		"sweep_interval", cfg.Cache.SweepInterval,
	)
	ready = true
	return a, nil
}

// RegisterRoutes mounts the aggregation, flag and record import routes.
func (a *App) RegisterRoutes(r gin.IRouter) {
	a.Service.RegisterRoutes(r)
	a.Importer.RegisterRoutes(r)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openPostgres(cfg config.DatabaseConfig) (*postgres.Adapter, error) {
	db, err := postgres.Open(cfg.DSN, cfg.MaxOpenConns, cfg.MaxIdleConns)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := migrations.Run(db, cfg.AutoMigrate); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	adapter, err := postgres.NewAdapter(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return adapter, nil
}

// openDurable returns the durable layer for the configured backend, or nil
// for a memory-only tier.
func (a *App) openDurable(ctx context.Context, cfg *config.Config, pg *postgres.Adapter) (*cache.Storage, error) {
	var adapter cache.Adapter

	switch cfg.Cache.Backend {
	case config.BackendNone:
		slog.Info("[App] Durable cache layer disabled")
		return nil, nil

	case config.BackendMemory:
		adapter = cache.NewMemoryAdapter()

	case config.BackendPostgres:
		if pg == nil {
			return nil, fmt.Errorf("cache.backend %q requires database.dsn", cfg.Cache.Backend)
		}
		adapter = postgres.NewCacheAdapter(pg.DB())

	case config.BackendRedis:
		client, err := cacheredis.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)

		r := cacheredis.NewAdapter(client, cacheredis.Options{
			Prefix:    cfg.Redis.Prefix,
			Retention: cfg.Redis.Retention,
		})
		a.Checks["redis"] = r
		adapter = r

	case config.BackendBadger:
		b, err := cachebadger.Open(cachebadger.Config{
			Path:     cfg.Badger.Path,
			InMemory: cfg.Badger.InMemory,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, b.Close)
		adapter = b

	default:
		return nil, fmt.Errorf("unsupported cache.backend %q", cfg.Cache.Backend)
	}

	if cfg.Cache.Breaker.Enabled {
		adapter = cache.NewBreakerAdapter(adapter, cache.BreakerSettings{
			Name:                "durable-" + cfg.Cache.Backend,
			ConsecutiveFailures: cfg.Cache.Breaker.ConsecutiveFailures,
			OpenTimeout:         cfg.Cache.Breaker.OpenTimeout,
		})
	}

	return cache.NewStorage(adapter), nil
}
