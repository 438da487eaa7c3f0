package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aevon-lab/aggcache/internal/filters"
	"github.com/aevon-lab/aggcache/internal/metrics"
	"github.com/jonboulle/clockwork"
)

const (
	DefaultCapacity       = 1024
	DefaultDurableTimeout = 2 * time.Second
)

// Options configures a Manager.
type Options struct {
	// Capacity bounds the fast layer. Zero uses DefaultCapacity.
	Capacity int

	// DurableTimeout bounds each durable read and write. Zero uses
	// DefaultDurableTimeout.
	DurableTimeout time.Duration

	// SchemaVersion, when set, turns entries stamped with any other version
	// into misses in both layers.
	SchemaVersion int

	Clock clockwork.Clock
}

func (o Options) normalized() Options {
	if o.Capacity == 0 {
		o.Capacity = DefaultCapacity
	}
	if o.DurableTimeout <= 0 {
		o.DurableTimeout = DefaultDurableTimeout
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	return o
}

// Manager is the two-layer cache tier: a bounded in-process LRU in front of
// an optional durable Storage.
type Manager struct {
	fast           *LRU
	durable        *Storage
	clock          clockwork.Clock
	durableTimeout time.Duration
	version        int
}

// NewManager builds a manager. durable may be nil for a memory-only tier.
func NewManager(durable *Storage, opts Options) *Manager {
	opts = opts.normalized()
	return &Manager{
		fast:           NewLRU(opts.Capacity),
		durable:        durable,
		clock:          opts.Clock,
		durableTimeout: opts.DurableTimeout,
		version:        opts.SchemaVersion,
	}
}

// Get returns a fresh envelope for key. The fast layer is consulted first,
// then the durable layer; a durable hit is promoted into the fast layer.
// Durable read failures are reported as misses.
func (m *Manager) Get(ctx context.Context, key filters.Key) (*Envelope, Source, bool) {
	k := key.String()
	now := m.clock.Now()

	if env, ok := m.fast.Get(k); ok {
		if !env.Expired(now) && m.current(env) {
			metrics.CacheLookups.WithLabelValues(metrics.LookupMemory).Inc()
			env.Source = SourceMemory
			return env, SourceMemory, true
		}
		m.fast.Invalidate(k)
		m.reportSize()
	}

	if m.durable == nil {
		metrics.CacheLookups.WithLabelValues(metrics.LookupMiss).Inc()
		return nil, "", false
	}

	readCtx, cancel := context.WithTimeout(ctx, m.durableTimeout)
	defer cancel()

	env, err := m.durable.Get(readCtx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			metrics.DurableErrors.WithLabelValues("read").Inc()
			slog.Warn("[CacheManager] Durable read failed, treating as miss",
				"key", k,
				"error", err,
			)
		}
		metrics.CacheLookups.WithLabelValues(metrics.LookupMiss).Inc()
		return nil, "", false
	}

	if env.Expired(now) || !m.current(env) {
		metrics.CacheLookups.WithLabelValues(metrics.LookupMiss).Inc()
		return nil, "", false
	}

	m.fast.Put(k, env)
	m.reportSize()

	metrics.CacheLookups.WithLabelValues(metrics.LookupDurable).Inc()
	out := env.Clone()
	out.Source = SourceDurable
	return out, SourceDurable, true
}

// Set writes env to the fast layer, then to the durable layer. Durable
// failures and timeouts are logged and counted but never returned.
func (m *Manager) Set(ctx context.Context, key filters.Key, env *Envelope) {
	k := key.String()
	m.fast.Put(k, env)
	m.reportSize()

	if m.durable == nil {
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, m.durableTimeout)
	defer cancel()

	if err := m.durable.Put(writeCtx, key, env); err != nil {
		metrics.DurableErrors.WithLabelValues("write").Inc()
		slog.Warn("[CacheManager] Durable write failed",
			"key", k,
			"error", err,
		)
	}
}

// Delete removes key from both layers. A missing durable entry is not an
// error; any other durable failure is returned.
func (m *Manager) Delete(ctx context.Context, key filters.Key) error {
	k := key.String()
	m.fast.Invalidate(k)
	m.reportSize()

	if m.durable == nil {
		return nil
	}

	if err := m.durable.Remove(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		metrics.DurableErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("delete %s: %w", k, err)
	}
	return nil
}

// SweepExpired drops entries expired at before from both layers and returns
// the number removed.
func (m *Manager) SweepExpired(ctx context.Context, before time.Time) (int, error) {
	removed := m.fast.PurgeExpired(before)
	m.reportSize()

	if m.durable != nil {
		n, err := m.durable.RemoveExpired(ctx, before)
		removed += n
		if err != nil {
			metrics.DurableErrors.WithLabelValues("sweep").Inc()
			metrics.SweptEntries.Add(float64(removed))
			return removed, err
		}
	}

	metrics.SweptEntries.Add(float64(removed))
	return removed, nil
}

// Len returns the number of entries in the fast layer.
func (m *Manager) Len() int {
	return m.fast.Len()
}

// Clock returns the clock used for freshness checks.
func (m *Manager) Clock() clockwork.Clock {
	return m.clock
}

func (m *Manager) current(env *Envelope) bool {
	return m.version == 0 || env.Version == m.version
}

func (m *Manager) reportSize() {
	metrics.CacheEntries.Set(float64(m.fast.Len()))
}
