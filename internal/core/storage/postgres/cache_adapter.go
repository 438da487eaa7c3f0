package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aevon-lab/aggcache/internal/cache"
)

// CacheAdapter implements cache.Adapter on the aggregation_cache table.
// Timestamps are stored as timestamptz, so read-back stamps carry
// microsecond precision.
type CacheAdapter struct {
	db *sql.DB
}

// NewCacheAdapter creates a CacheAdapter sharing the given connection.
func NewCacheAdapter(db *sql.DB) *CacheAdapter {
	return &CacheAdapter{db: db}
}

// Store upserts rec keyed by its cache key.
func (a *CacheAdapter) Store(ctx context.Context, rec cache.StoredRecord) error {
	computedAt, err := time.Parse(cache.TimeFormat, rec.ComputedAt)
	if err != nil {
		return fmt.Errorf("aggregation_cache store: parse computed_at: %w", err)
	}
	expiresAt, err := rec.ExpiresAtTime()
	if err != nil {
		return fmt.Errorf("aggregation_cache store: %w", err)
	}

	metadataJSON, err := marshalMetadata(rec.Metadata)
	if err != nil {
		return fmt.Errorf("aggregation_cache store: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, queryUpsertCacheEntry,
		rec.Key,
		rec.ID,
		rec.UserID,
		rec.AggregationType,
		rec.FilterHash,
		[]byte(rec.Data),
		computedAt,
		expiresAt,
		rec.Version,
		metadataJSON,
		string(rec.Source),
	); err != nil {
		return fmt.Errorf("aggregation_cache store %s: %w", rec.Key, err)
	}

	slog.Debug("[CacheAdapter] Stored entry", "key", rec.Key, "expires_at", rec.ExpiresAt)
	return nil
}

// Fetch returns the entry stored under key, or cache.ErrNotFound.
func (a *CacheAdapter) Fetch(ctx context.Context, key string) (*cache.StoredRecord, error) {
	rec, err := scanCacheRow(a.db.QueryRowContext(ctx, queryFetchCacheEntry, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("aggregation_cache fetch %s: %w", key, err)
	}
	return rec, nil
}

// Remove deletes the entry under key. Deleting a missing key is a no-op.
func (a *CacheAdapter) Remove(ctx context.Context, key string) error {
	if _, err := a.db.ExecContext(ctx, queryDeleteCacheEntry, key); err != nil {
		return fmt.Errorf("aggregation_cache remove %s: %w", key, err)
	}
	return nil
}

// RemoveIfUnchanged deletes the entry under rec.Key only while it still
// carries rec.ID, so a sweep never drops an entry rewritten after it was
// fetched.
func (a *CacheAdapter) RemoveIfUnchanged(ctx context.Context, rec cache.StoredRecord) (bool, error) {
	res, err := a.db.ExecContext(ctx, queryDeleteCacheEntryIfUnchanged, rec.Key, rec.ID)
	if err != nil {
		return false, fmt.Errorf("aggregation_cache remove %s: %w", rec.Key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("aggregation_cache remove %s: rows affected: %w", rec.Key, err)
	}
	return n > 0, nil
}

// FetchExpired returns entries whose expires_at is at or before before,
// oldest first.
func (a *CacheAdapter) FetchExpired(ctx context.Context, before time.Time) ([]cache.StoredRecord, error) {
	rows, err := a.db.QueryContext(ctx, queryFetchExpiredCacheEntries, before)
	if err != nil {
		return nil, fmt.Errorf("aggregation_cache fetch expired: %w", err)
	}
	defer rows.Close()

	var expired []cache.StoredRecord
	for rows.Next() {
		rec, err := scanCacheRow(rows)
		if err != nil {
			return nil, fmt.Errorf("aggregation_cache fetch expired: scan row: %w", err)
		}
		expired = append(expired, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("aggregation_cache fetch expired: iterate rows: %w", err)
	}

	return expired, nil
}
