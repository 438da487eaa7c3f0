package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aevon-lab/aggcache/internal/filters"
	"github.com/google/uuid"
)

// Storage is the durable tier: it converts envelopes to stored records and
// delegates persistence to an Adapter.
type Storage struct {
	adapter Adapter
}

// NewStorage wraps adapter.
func NewStorage(adapter Adapter) *Storage {
	if adapter == nil {
		panic("cache: storage adapter must not be nil")
	}
	return &Storage{adapter: adapter}
}

// Put persists env under key. Each write gets a fresh persistence id.
func (s *Storage) Put(ctx context.Context, key filters.Key, env *Envelope) error {
	rec, err := ToRecord(key, env)
	if err != nil {
		return err
	}
	rec.ID = uuid.New().String()

	if err := s.adapter.Store(ctx, rec); err != nil {
		return fmt.Errorf("store %s: %w", rec.Key, err)
	}
	return nil
}

// Get loads the envelope stored under key. Returns ErrNotFound when absent.
func (s *Storage) Get(ctx context.Context, key filters.Key) (*Envelope, error) {
	rec, err := s.adapter.Fetch(ctx, key.String())
	if err != nil {
		return nil, err
	}
	return FromRecord(*rec)
}

// Remove deletes the record stored under key.
func (s *Storage) Remove(ctx context.Context, key filters.Key) error {
	return s.adapter.Remove(ctx, key.String())
}

// RemoveExpired deletes every record expired at before and returns how many
// were removed. A record rewritten after the sweep fetched it is left alone.
// A failed removal stops the sweep.
func (s *Storage) RemoveExpired(ctx context.Context, before time.Time) (int, error) {
	expired, err := s.adapter.FetchExpired(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("fetch expired: %w", err)
	}

	removed := 0
	for _, rec := range expired {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		ok, err := removeIfUnchanged(ctx, s.adapter, rec)
		if err != nil {
			return removed, fmt.Errorf("remove expired %s: %w", rec.Key, err)
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

func removeIfUnchanged(ctx context.Context, a Adapter, rec StoredRecord) (bool, error) {
	if cr, ok := a.(ConditionalRemover); ok {
		return cr.RemoveIfUnchanged(ctx, rec)
	}

	current, err := a.Fetch(ctx, rec.Key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if current.ID != rec.ID || current.ExpiresAt != rec.ExpiresAt {
		return false, nil
	}

	if err := a.Remove(ctx, rec.Key); err != nil {
		return false, err
	}
	return true, nil
}
