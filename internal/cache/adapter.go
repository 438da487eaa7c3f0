package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Adapter.Fetch when no record exists for a key.
var ErrNotFound = errors.New("cache: record not found")

// Adapter is the contract a durable store must satisfy to back the cache tier.
// Embed UnimplementedAdapter to inherit no-op Remove and empty FetchExpired
// when the store cannot support them.
type Adapter interface {
	// Store upserts a record under rec.Key.
	Store(ctx context.Context, rec StoredRecord) error

	// Fetch returns the record stored under key, or ErrNotFound.
	Fetch(ctx context.Context, key string) (*StoredRecord, error)

	// Remove deletes the record under key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// FetchExpired returns records whose expiry is at or before the given time.
	// Used by maintenance sweeps only.
	FetchExpired(ctx context.Context, before time.Time) ([]StoredRecord, error)
}

// ConditionalRemover is implemented by adapters that can delete a record
// only while it is still the exact version a sweep fetched. Storage falls
// back to a fetch-and-compare when an adapter does not implement it.
type ConditionalRemover interface {
	// RemoveIfUnchanged deletes the record under rec.Key when its persistence
	// id still equals rec.ID, and reports whether a record was deleted.
	RemoveIfUnchanged(ctx context.Context, rec StoredRecord) (bool, error)
}

// UnimplementedAdapter provides the optional Adapter methods.
type UnimplementedAdapter struct{}

// Remove is a no-op.
func (UnimplementedAdapter) Remove(ctx context.Context, key string) error {
	return nil
}

// FetchExpired reports nothing to sweep.
func (UnimplementedAdapter) FetchExpired(ctx context.Context, before time.Time) ([]StoredRecord, error) {
	return nil, nil
}
