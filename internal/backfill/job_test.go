package backfill

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aevon-lab/aggcache/internal/aggregation"
	v1 "github.com/aevon-lab/aggcache/internal/api/v1"
	"github.com/aevon-lab/aggcache/internal/cache"
	"github.com/aevon-lab/aggcache/internal/core/storage/memory"
	"github.com/aevon-lab/aggcache/internal/filters"
	"github.com/aevon-lab/aggcache/internal/flags"
	backfillmocks "github.com/aevon-lab/aggcache/internal/mocks/backfill"
	"github.com/aevon-lab/aggcache/internal/service"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var filterSets = []filters.Filters{
	{Timeframe: "All", Product: "All"},
	{Timeframe: "Month", Product: "YouTube"},
	{Timeframe: "Week", Product: "YouTube Music", Topics: []string{"Music"}},
}

func newJob(t *testing.T, refresher Refresher) (*Job, *flags.Registry) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	registry := flags.NewRegistry(nil, "", clock)
	return NewJob(refresher, registry, clock), registry
}

func TestRun_ProgressIsMonotonic(t *testing.T) {
	refresher := backfillmocks.NewRefresher(t)
	refresher.EXPECT().
		RefreshAggregation(mock.Anything, mock.Anything).
		Return(&cache.Envelope{}, nil).
		Times(6)

	job, _ := newJob(t, refresher)

	var seen []Progress
	summary, err := job.Run(context.Background(), Config{
		UserID:           "u1",
		AggregationTypes: []string{"kpi", "channel_breakdown"},
		FilterSets:       filterSets,
		BatchSize:        2,
		OnProgress:       func(p Progress) { seen = append(seen, p) },
	})
	require.NoError(t, err)

	require.Len(t, seen, 6)
	for i, p := range seen {
		assert.Equal(t, i+1, p.Completed)
		assert.Equal(t, 6, p.Total)
		assert.Equal(t, "u1", p.UserID)
	}
	assert.Equal(t, "kpi", seen[0].Type)
	assert.Equal(t, "channel_breakdown", seen[1].Type)
	assert.Equal(t, filterSets[2], seen[5].Filters)

	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 6, summary.Refreshed)
	assert.Equal(t, 2, summary.Batches)
}

func TestRun_ConcurrentWorkersKeepProgressMonotonic(t *testing.T) {
	refresher := backfillmocks.NewRefresher(t)
	refresher.EXPECT().
		RefreshAggregation(mock.Anything, mock.Anything).
		Return(&cache.Envelope{}, nil).
		Times(6)

	job, _ := newJob(t, refresher)

	var mu sync.Mutex
	var counters []int
	summary, err := job.Run(context.Background(), Config{
		UserID:           "u1",
		AggregationTypes: []string{"kpi", "channel_breakdown"},
		FilterSets:       filterSets,
		Workers:          3,
		OnProgress: func(p Progress) {
			mu.Lock()
			counters = append(counters, p.Completed)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, counters)
	assert.Equal(t, 1, summary.Batches)
}

func TestRun_EmptyInputsAreNoop(t *testing.T) {
	job, _ := newJob(t, backfillmocks.NewRefresher(t))

	called := false
	onProgress := func(Progress) { called = true }

	summary, err := job.Run(context.Background(), Config{
		UserID:           "u1",
		AggregationTypes: []string{"kpi"},
		OnProgress:       onProgress,
	})
	require.NoError(t, err)
	assert.Zero(t, summary.Total)

	_, err = job.Run(context.Background(), Config{FilterSets: filterSets, OnProgress: onProgress})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestRun_FlagDisabled(t *testing.T) {
	job, registry := newJob(t, backfillmocks.NewRefresher(t))
	registry.SetRuntimeOverride(flags.Backfill, false)

	_, err := job.Run(context.Background(), Config{
		UserID:           "u1",
		AggregationTypes: []string{"kpi"},
		FilterSets:       filterSets,
	})
	require.ErrorIs(t, err, ErrBackfillDisabled)

	summary, err := job.Run(context.Background(), Config{UserID: "u1", FilterSets: filterSets})
	require.NoError(t, err, "empty input is a no-op even with the flag off")
	assert.Zero(t, summary.Total)
}

func TestRun_MissingUser(t *testing.T) {
	job, _ := newJob(t, backfillmocks.NewRefresher(t))

	_, err := job.Run(context.Background(), Config{
		AggregationTypes: []string{"kpi"},
		FilterSets:       filterSets,
	})
	require.Error(t, err)
}

func TestRun_FirstErrorAborts(t *testing.T) {
	boom := errors.New("compute exploded")
	refresher := backfillmocks.NewRefresher(t)
	refresher.EXPECT().
		RefreshAggregation(mock.Anything, mock.Anything).
		Return(&cache.Envelope{}, nil).
		Once()
	refresher.EXPECT().
		RefreshAggregation(mock.Anything, mock.Anything).
		Return(nil, boom).
		Once()

	job, _ := newJob(t, refresher)

	summary, err := job.Run(context.Background(), Config{
		UserID:           "u1",
		AggregationTypes: []string{"kpi", "channel_breakdown"},
		FilterSets:       filterSets,
	})
	require.ErrorIs(t, err, boom)
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Refreshed)
	assert.Equal(t, 6, summary.Total)
}

func TestRun_RequestsNeverCarryFallback(t *testing.T) {
	refresher := backfillmocks.NewRefresher(t)
	refresher.EXPECT().
		RefreshAggregation(mock.Anything, mock.MatchedBy(func(req service.Request) bool {
			return req.UserID == "u1" && req.Type == "kpi" && req.Fallback == nil && !req.ForceRefresh
		})).
		Return(&cache.Envelope{}, nil).
		Times(len(filterSets))

	job, _ := newJob(t, refresher)

	_, err := job.Run(context.Background(), Config{
		UserID:           "u1",
		AggregationTypes: []string{"kpi"},
		FilterSets:       filterSets,
	})
	require.NoError(t, err)
}

func TestRun_WarmsServiceCache(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC))
	records := memory.NewRecordStore(clock)
	require.NoError(t, records.SaveRecord(context.Background(), &v1.Record{
		ID: "r1", UserID: "u1", Product: "YouTube", Channel: "alpha", OccurredAt: clock.Now().Add(-time.Hour),
	}))

	registry := aggregation.NewRegistry(records)
	require.NoError(t, aggregation.RegisterBuiltins(registry))

	flagRegistry := flags.NewRegistry(nil, "", clock)
	durable := cache.NewMemoryAdapter()
	manager := cache.NewManager(cache.NewStorage(durable), cache.Options{Clock: clock})
	svc := service.NewService(registry, manager, flagRegistry, service.Options{Clock: clock})

	job := NewJob(svc, flagRegistry, clock)
	summary, err := job.Run(context.Background(), Config{
		UserID:           "u1",
		AggregationTypes: []string{aggregation.TypeKPI, aggregation.TypeChannelBreakdown},
		FilterSets:       filterSets[:2],
	})
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Refreshed)
	assert.Equal(t, 4, durable.Len())

	env, err := svc.GetAggregation(context.Background(), service.Request{
		UserID: "u1", Type: aggregation.TypeKPI, Filters: filterSets[0],
	})
	require.NoError(t, err)
	assert.Equal(t, cache.SourceMemory, env.Source)
	assert.Equal(t, 1, env.Data.(aggregation.KPI).Total)
}
