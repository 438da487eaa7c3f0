package badger

import (
	"context"
	"testing"
	"time"

	"github.com/aevon-lab/aggcache/internal/cache"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()

	a, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func record(key string, expiresAt time.Time) cache.StoredRecord {
	return cache.StoredRecord{
		ID:              "id-" + key,
		Key:             key,
		UserID:          "user-1",
		AggregationType: "channel_breakdown",
		FilterHash:      "f00d",
		Data:            []byte(`[{"name":"a","count":2}]`),
		ComputedAt:      expiresAt.Add(-time.Minute).Format(cache.TimeFormat),
		ExpiresAt:       expiresAt.Format(cache.TimeFormat),
		Version:         4,
		Source:          cache.SourceComputed,
	}
}

func TestAdapter_StoreFetchRemove(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	exp := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)

	require.NoError(t, a.Store(ctx, record("k1", exp)))

	got, err := a.Fetch(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, "id-k1", got.ID)
	require.Equal(t, 4, got.Version)
	require.JSONEq(t, `[{"name":"a","count":2}]`, string(got.Data))

	require.NoError(t, a.Remove(ctx, "k1"))
	_, err = a.Fetch(ctx, "k1")
	require.ErrorIs(t, err, cache.ErrNotFound)

	require.NoError(t, a.Remove(ctx, "k1"), "removing a missing key is a no-op")
}

func TestAdapter_StoreOverwrites(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	exp := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)

	require.NoError(t, a.Store(ctx, record("k1", exp)))
	newer := record("k1", exp.Add(time.Hour))
	newer.Version = 5
	require.NoError(t, a.Store(ctx, newer))

	got, err := a.Fetch(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, 5, got.Version)
	require.Equal(t, newer.ExpiresAt, got.ExpiresAt)
}

func TestAdapter_FetchExpired(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	now := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)

	require.NoError(t, a.Store(ctx, record("old", now.Add(-time.Hour))))
	require.NoError(t, a.Store(ctx, record("edge", now)))
	require.NoError(t, a.Store(ctx, record("new", now.Add(time.Hour))))

	expired, err := a.FetchExpired(ctx, now)
	require.NoError(t, err)

	keys := make([]string, 0, len(expired))
	for _, rec := range expired {
		keys = append(keys, rec.Key)
	}
	require.ElementsMatch(t, []string{"old", "edge"}, keys)
}

func TestAdapter_SweepThroughStorage(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	now := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)

	require.NoError(t, a.Store(ctx, record("old", now.Add(-time.Hour))))
	require.NoError(t, a.Store(ctx, record("new", now.Add(time.Hour))))

	removed, err := cache.NewStorage(a).RemoveExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = a.Fetch(ctx, "old")
	require.ErrorIs(t, err, cache.ErrNotFound)
	_, err = a.Fetch(ctx, "new")
	require.NoError(t, err)
}
