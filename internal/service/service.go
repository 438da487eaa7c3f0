// Package service is the public entry point of the aggregation cache. It
// ties feature flags, the cache tier and the aggregation registry together
// and is the only component that builds envelopes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/aevon-lab/aggcache/internal/aggregation"
	"github.com/aevon-lab/aggcache/internal/cache"
	"github.com/aevon-lab/aggcache/internal/filters"
	"github.com/aevon-lab/aggcache/internal/flags"
	"github.com/aevon-lab/aggcache/internal/metrics"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL           = 15 * time.Minute
	DefaultSchemaVersion = 1
)

var (
	// ErrInvalidRequest marks request validation errors that should return HTTP 400.
	ErrInvalidRequest = errors.New("invalid aggregation request")

	// ErrCacheDisabled is returned when the cache flag is off and the caller
	// supplied no fallback.
	ErrCacheDisabled = errors.New("aggregation cache disabled and no fallback supplied")
)

// Computer produces aggregation results. *aggregation.Registry implements it.
type Computer interface {
	Compute(ctx context.Context, userID, aggregationType string, f filters.Filters) (any, error)
	Has(aggregationType string) bool
}

// Cache is the cache tier as seen by the service. *cache.Manager implements it.
type Cache interface {
	Get(ctx context.Context, key filters.Key) (*cache.Envelope, cache.Source, bool)
	Set(ctx context.Context, key filters.Key, env *cache.Envelope)
	Delete(ctx context.Context, key filters.Key) error
}

// Options configures envelope stamping.
type Options struct {
	// DefaultTTL applies to types without an override. Zero uses DefaultTTL.
	DefaultTTL time.Duration

	// TTLOverrides maps aggregation types to their own TTL.
	TTLOverrides map[string]time.Duration

	// SchemaVersion is stamped on every envelope. Zero uses DefaultSchemaVersion.
	SchemaVersion int

	Clock clockwork.Clock

	// Metadata is optional.
	Metadata MetadataFunc
}

// Service implements the aggregation read, refresh and clear paths.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	computer Computer
	cache    Cache
	flags    *flags.Registry

	clock        clockwork.Clock
	defaultTTL   time.Duration
	ttlOverrides map[string]time.Duration
	version      int
	metadata     MetadataFunc

	inflight singleflight.Group
}

// NewService creates a new aggregation service.
func NewService(computer Computer, c Cache, flagRegistry *flags.Registry, opts Options) *Service {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}
	if opts.SchemaVersion == 0 {
		opts.SchemaVersion = DefaultSchemaVersion
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	overrides := make(map[string]time.Duration, len(opts.TTLOverrides))
	for t, ttl := range opts.TTLOverrides {
		overrides[t] = ttl
	}

	return &Service{
		computer:     computer,
		cache:        c,
		flags:        flagRegistry,
		clock:        opts.Clock,
		defaultTTL:   opts.DefaultTTL,
		ttlOverrides: overrides,
		version:      opts.SchemaVersion,
		metadata:     opts.Metadata,
	}
}

// GetAggregation serves req from the cache when possible and computes it
// otherwise. With the cache flag off, only the caller's fallback can serve
// the request.
func (s *Service) GetAggregation(ctx context.Context, req Request) (*cache.Envelope, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	if !s.flags.IsEnabled(flags.Cache) {
		if req.Fallback == nil {
			return nil, ErrCacheDisabled
		}
		slog.Debug("[AggregationService] Cache disabled, serving fallback",
			"user_id", req.UserID, "type", req.Type)
		return s.runFallback(ctx, req, ErrCacheDisabled)
	}

	key := req.Key()
	if !req.ForceRefresh {
		if env, _, ok := s.cache.Get(ctx, key); ok && env.Version == s.version {
			return env, nil
		}
	}

	return s.computeWithFallback(ctx, req, key)
}

// RefreshAggregation always recomputes and persists, bypassing the cache
// read and the cache flag.
func (s *Service) RefreshAggregation(ctx context.Context, req Request) (*cache.Envelope, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	req.ForceRefresh = true
	return s.computeWithFallback(ctx, req, req.Key())
}

// ClearAggregation deletes the cached entry for req. It does not recompute.
func (s *Service) ClearAggregation(ctx context.Context, req Request) error {
	if err := s.validate(req); err != nil {
		return err
	}

	key := req.Key()
	if err := s.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("clear aggregation %s: %w", key, err)
	}

	slog.Info("[AggregationService] Cleared aggregation", "key", key.String())
	return nil
}

// DirectFallback computes through the registry without touching the cache.
// HTTP callers pass it as their fallback so a disabled cache degrades to
// direct computation.
func (s *Service) DirectFallback() FallbackFunc {
	return func(ctx context.Context, req Request) (any, error) {
		return s.computer.Compute(ctx, req.UserID, req.Type, req.Filters)
	}
}

// TTL returns the time-to-live of aggregationType.
func (s *Service) TTL(aggregationType string) time.Duration {
	if ttl, ok := s.ttlOverrides[aggregationType]; ok && ttl > 0 {
		return ttl
	}
	return s.defaultTTL
}

// Flags returns the flag registry the service consults.
func (s *Service) Flags() *flags.Registry {
	return s.flags
}

func (s *Service) validate(req Request) error {
	if req.UserID == "" {
		return invalidRequestf("user_id is required")
	}
	if req.Type == "" {
		return invalidRequestf("type is required")
	}
	if !s.computer.Has(req.Type) {
		return fmt.Errorf("%w: %s", aggregation.ErrUnregisteredType, req.Type)
	}
	return nil
}

func (s *Service) computeWithFallback(ctx context.Context, req Request, key filters.Key) (*cache.Envelope, error) {
	env, err := s.computeShared(ctx, req, key)
	if err == nil {
		return env, nil
	}

	if aggregation.IsHardError(err) || ctx.Err() != nil {
		return nil, err
	}
	if req.Fallback == nil || !s.flags.IsEnabled(flags.Fallback) {
		return nil, err
	}

	slog.Warn("[AggregationService] Compute failed, serving fallback",
		"user_id", req.UserID, "type", req.Type, "error", err)
	return s.runFallback(ctx, req, err)
}

// computeShared coalesces concurrent computations of the same key. Forced
// refreshes only join other forced refreshes, so a refresh never returns a
// result computed from records loaded before it was requested. The shared
// computation runs detached from any single caller's cancellation; each
// caller still stops waiting when its own context ends.
func (s *Service) computeShared(ctx context.Context, req Request, key filters.Key) (*cache.Envelope, error) {
	flight := key.String()
	if req.ForceRefresh {
		flight = "refresh|" + flight
	}

	detached := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(flight, func() (interface{}, error) {
		return s.computeAndPersist(detached, req, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			metrics.CoalescedRequests.Inc()
		}
		return res.Val.(*cache.Envelope).Clone(), nil
	}
}

func (s *Service) computeAndPersist(ctx context.Context, req Request, key filters.Key) (*cache.Envelope, error) {
	start := s.clock.Now()
	result, err := s.computer.Compute(ctx, req.UserID, req.Type, req.Filters)
	metrics.ComputeDuration.WithLabelValues(req.Type).Observe(s.clock.Since(start).Seconds())
	if err != nil {
		metrics.Computations.WithLabelValues(req.Type, metrics.OutcomeError).Inc()
		return nil, err
	}
	metrics.Computations.WithLabelValues(req.Type, metrics.OutcomeOK).Inc()

	env := s.newEnvelope(result, req)
	s.cache.Set(ctx, key, env)

	slog.Debug("[AggregationService] Computed aggregation",
		"key", key.String(), "expires_at", env.ExpiresAt)
	return env, nil
}

// runFallback wraps the fallback result in a degraded envelope. Degraded
// envelopes are never written to the cache.
func (s *Service) runFallback(ctx context.Context, req Request, reason error) (*cache.Envelope, error) {
	result, err := req.Fallback(ctx, req)
	if err != nil {
		metrics.Computations.WithLabelValues(req.Type, metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("fallback after %v: %w", reason, err)
	}
	metrics.Computations.WithLabelValues(req.Type, metrics.OutcomeFallback).Inc()

	env := s.newEnvelope(result, req)
	if env.Metadata == nil {
		env.Metadata = make(map[string]any, 2)
	}
	env.Metadata[cache.MetaFallback] = true
	env.Metadata[cache.MetaReason] = reason.Error()
	return env, nil
}

func (s *Service) newEnvelope(result any, req Request) *cache.Envelope {
	now := s.clock.Now()
	env := &cache.Envelope{
		Data:       result,
		ComputedAt: now,
		ExpiresAt:  now.Add(s.TTL(req.Type)),
		Version:    s.version,
		Source:     cache.SourceComputed,
	}
	if s.metadata != nil {
		env.Metadata = maps.Clone(s.metadata(result, req))
	}
	return env
}

func invalidRequestf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
