// Package backfill forces recomputation of many (filter set, aggregation
// type) pairs, to warm the cache or to validate compute changes.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aevon-lab/aggcache/internal/cache"
	"github.com/aevon-lab/aggcache/internal/filters"
	"github.com/aevon-lab/aggcache/internal/flags"
	"github.com/aevon-lab/aggcache/internal/metrics"
	"github.com/aevon-lab/aggcache/internal/service"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

const DefaultBatchSize = 10

// ErrBackfillDisabled is returned by Run while the backfill flag is off.
var ErrBackfillDisabled = errors.New("aggregation backfill disabled")

// Refresher recomputes and persists one aggregation. *service.Service implements it.
type Refresher interface {
	RefreshAggregation(ctx context.Context, req service.Request) (*cache.Envelope, error)
}

// Progress is reported once per refreshed pair. Completed is strictly
// increasing within a run and ends at Total.
type Progress struct {
	Completed int
	Total     int
	UserID    string
	Type      string
	Filters   filters.Filters
}

// Config describes one backfill run for a single user.
type Config struct {
	UserID           string
	AggregationTypes []string
	FilterSets       []filters.Filters

	// BatchSize is the number of filter sets per batch. Zero uses DefaultBatchSize.
	BatchSize int

	// Workers bounds the refreshes running at once within a batch. Zero or
	// one runs sequentially.
	Workers int

	OnProgress func(Progress)
}

// Summary describes a finished run.
type Summary struct {
	Total     int
	Refreshed int
	Batches   int
	Duration  time.Duration
}

// Job runs backfills against a Refresher. It never consults a fallback.
type Job struct {
	refresher Refresher
	flags     *flags.Registry
	clock     clockwork.Clock
}

// NewJob creates a backfill job.
func NewJob(refresher Refresher, flagRegistry *flags.Registry, clock clockwork.Clock) *Job {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Job{refresher: refresher, flags: flagRegistry, clock: clock}
}

// Run refreshes every (filter set, type) pair of cfg, batch by batch. The
// first refresh error aborts the run; the returned summary counts the pairs
// refreshed before it. Empty input is a no-op whatever the backfill flag says.
func (j *Job) Run(ctx context.Context, cfg Config) (*Summary, error) {
	start := j.clock.Now()
	summary := &Summary{Total: len(cfg.FilterSets) * len(cfg.AggregationTypes)}
	if summary.Total == 0 {
		return summary, nil
	}

	if !j.flags.IsEnabled(flags.Backfill) {
		return nil, ErrBackfillDisabled
	}
	if cfg.UserID == "" {
		return nil, fmt.Errorf("backfill: user id is required")
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	slog.Info("[Backfill] Starting run",
		"user_id", cfg.UserID,
		"types", len(cfg.AggregationTypes),
		"filter_sets", len(cfg.FilterSets),
		"batch_size", batchSize,
		"workers", cfg.Workers,
	)

	reporter := &progressReporter{total: summary.Total, onProgress: cfg.OnProgress}

	for offset := 0; offset < len(cfg.FilterSets); offset += batchSize {
		end := min(offset+batchSize, len(cfg.FilterSets))
		batch := cfg.FilterSets[offset:end]

		var err error
		if cfg.Workers > 1 {
			err = j.runConcurrent(ctx, cfg, batch, reporter)
		} else {
			err = j.runSequential(ctx, cfg, batch, reporter)
		}

		summary.Batches++
		summary.Refreshed = reporter.completed
		if err != nil {
			summary.Duration = j.clock.Since(start)
			slog.Error("[Backfill] Run aborted",
				"user_id", cfg.UserID, "completed", summary.Refreshed, "total", summary.Total, "error", err)
			return summary, err
		}
	}

	summary.Duration = j.clock.Since(start)
	slog.Info("[Backfill] Run complete",
		"user_id", cfg.UserID, "refreshed", summary.Refreshed, "batches", summary.Batches, "duration", summary.Duration)
	return summary, nil
}

func (j *Job) runSequential(ctx context.Context, cfg Config, batch []filters.Filters, reporter *progressReporter) error {
	for _, f := range batch {
		for _, aggregationType := range cfg.AggregationTypes {
			if err := j.refresh(ctx, cfg.UserID, aggregationType, f, reporter); err != nil {
				return err
			}
		}
	}
	return nil
}

func (j *Job) runConcurrent(ctx context.Context, cfg Config, batch []filters.Filters, reporter *progressReporter) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for _, f := range batch {
		for _, aggregationType := range cfg.AggregationTypes {
			g.Go(func() error {
				return j.refresh(gctx, cfg.UserID, aggregationType, f, reporter)
			})
		}
	}
	return g.Wait()
}

func (j *Job) refresh(ctx context.Context, userID, aggregationType string, f filters.Filters, reporter *progressReporter) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := service.Request{UserID: userID, Type: aggregationType, Filters: f}
	if _, err := j.refresher.RefreshAggregation(ctx, req); err != nil {
		return fmt.Errorf("backfill %s for %s (%s): %w", aggregationType, userID, f, err)
	}

	metrics.BackfillCompleted.WithLabelValues(aggregationType).Inc()
	reporter.report(userID, aggregationType, f)
	return nil
}

// progressReporter serializes progress callbacks so the counter stays
// monotonic when refreshes run concurrently.
type progressReporter struct {
	mu         sync.Mutex
	completed  int
	total      int
	onProgress func(Progress)
}

func (p *progressReporter) report(userID, aggregationType string, f filters.Filters) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completed++
	if p.onProgress != nil {
		p.onProgress(Progress{
			Completed: p.completed,
			Total:     p.total,
			UserID:    userID,
			Type:      aggregationType,
			Filters:   f,
		})
	}
}
