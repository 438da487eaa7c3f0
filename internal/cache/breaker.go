package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aevon-lab/aggcache/internal/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerSettings tunes a BreakerAdapter.
type BreakerSettings struct {
	Name string

	// ConsecutiveFailures opens the circuit. Zero uses 5.
	ConsecutiveFailures uint32

	// OpenTimeout is how long the circuit stays open before probing. Zero uses 30s.
	OpenTimeout time.Duration

	// HalfOpenRequests is the probe budget while half-open. Zero uses 1.
	HalfOpenRequests uint32
}

// BreakerAdapter guards an Adapter with a circuit breaker so that an
// unavailable store fails fast instead of stalling every lookup.
// ErrNotFound and context cancellation do not count as failures.
type BreakerAdapter struct {
	next Adapter
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreakerAdapter wraps next.
func NewBreakerAdapter(next Adapter, s BreakerSettings) *BreakerAdapter {
	if s.Name == "" {
		s.Name = "durable-cache"
	}
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	if s.HalfOpenRequests == 0 {
		s.HalfOpenRequests = 1
	}

	metrics.BreakerState.WithLabelValues(s.Name).Set(float64(gobreaker.StateClosed))

	threshold := s.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.HalfOpenRequests,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("[CacheBreaker] State transition",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	return &BreakerAdapter{next: next, cb: cb}
}

// State reports the current breaker state.
func (b *BreakerAdapter) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerAdapter) Store(ctx context.Context, rec StoredRecord) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Store(ctx, rec)
	})
	return err
}

func (b *BreakerAdapter) Fetch(ctx context.Context, key string) (*StoredRecord, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.Fetch(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return res.(*StoredRecord), nil
}

func (b *BreakerAdapter) Remove(ctx context.Context, key string) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Remove(ctx, key)
	})
	return err
}

func (b *BreakerAdapter) RemoveIfUnchanged(ctx context.Context, rec StoredRecord) (bool, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return removeIfUnchanged(ctx, b.next, rec)
	})
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

func (b *BreakerAdapter) FetchExpired(ctx context.Context, before time.Time) ([]StoredRecord, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.FetchExpired(ctx, before)
	})
	if err != nil {
		return nil, err
	}
	return res.([]StoredRecord), nil
}
