package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

const finalSweepTimeout = 30 * time.Second

// Sweeper periodically removes expired envelopes from a Manager.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	clock    clockwork.Clock
}

// NewSweeper creates a sweeper that runs every interval on the manager's clock.
func NewSweeper(manager *Manager, interval time.Duration) *Sweeper {
	return &Sweeper{
		manager:  manager,
		interval: interval,
		clock:    manager.Clock(),
	}
}

// Start sweeps on every tick until ctx is cancelled, then runs one final
// sweep with a fresh deadline.
func (s *Sweeper) Start(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Sweeper] Starting expired-entry sweeper", "interval", s.interval)

	for {
		select {
		case <-ticker.Chan():
			s.sweep(ctx)
		case <-ctx.Done():
			slog.Info("[Sweeper] Stopping (context cancelled)")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), finalSweepTimeout)
			defer cancel()

			s.sweep(shutdownCtx)
			slog.Info("[Sweeper] Final sweep complete")
			return nil
		}
	}
}

// RunOnce performs a single sweep and returns the number of entries removed.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	return s.manager.SweepExpired(ctx, s.clock.Now())
}

func (s *Sweeper) sweep(ctx context.Context) {
	removed, err := s.RunOnce(ctx)
	if err != nil {
		slog.Error("[Sweeper] Sweep failed",
			"removed", removed,
			"error", err,
		)
		return
	}
	if removed > 0 {
		slog.Info("[Sweeper] Removed expired entries", "removed", removed)
	}
}
