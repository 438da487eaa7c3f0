package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryAdapter is an in-process Adapter with the same semantics as the
// external stores. Useful for tests and single-node development.
type MemoryAdapter struct {
	mu      sync.RWMutex
	records map[string]StoredRecord
}

// NewMemoryAdapter creates an empty adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		records: make(map[string]StoredRecord),
	}
}

func (a *MemoryAdapter) Store(ctx context.Context, rec StoredRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.records[rec.Key] = copyRecord(rec)
	return nil
}

func (a *MemoryAdapter) Fetch(ctx context.Context, key string) (*StoredRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	rec, ok := a.records[key]
	if !ok {
		return nil, ErrNotFound
	}

	c := copyRecord(rec)
	return &c, nil
}

func (a *MemoryAdapter) Remove(ctx context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.records, key)
	return nil
}

func (a *MemoryAdapter) RemoveIfUnchanged(ctx context.Context, rec StoredRecord) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	current, ok := a.records[rec.Key]
	if !ok || current.ID != rec.ID {
		return false, nil
	}
	delete(a.records, rec.Key)
	return true, nil
}

func (a *MemoryAdapter) FetchExpired(ctx context.Context, before time.Time) ([]StoredRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var expired []StoredRecord
	for _, rec := range a.records {
		expiresAt, err := rec.ExpiresAtTime()
		if err != nil {
			return nil, err
		}
		if !before.Before(expiresAt) {
			expired = append(expired, copyRecord(rec))
		}
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].Key < expired[j].Key
	})
	return expired, nil
}

// Len returns the number of stored records.
func (a *MemoryAdapter) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.records)
}

func copyRecord(rec StoredRecord) StoredRecord {
	c := rec
	c.Data = append([]byte(nil), rec.Data...)
	if rec.Metadata != nil {
		c.Metadata = make(map[string]any, len(rec.Metadata))
		for k, v := range rec.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}
