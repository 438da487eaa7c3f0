package aggregation

import (
	"context"
	"testing"
	"time"

	v1 "github.com/aevon-lab/aggcache/internal/api/v1"
	"github.com/aevon-lab/aggcache/internal/core/storage/memory"
	"github.com/aevon-lab/aggcache/internal/filters"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var builtinNow = time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)

func newBuiltinRegistry(t *testing.T, records ...*v1.Record) *Registry {
	t.Helper()

	store := memory.NewRecordStore(clockwork.NewFakeClockAt(builtinNow))
	for _, rec := range records {
		require.NoError(t, store.SaveRecord(context.Background(), rec))
	}

	r := NewRegistry(store)
	require.NoError(t, RegisterBuiltins(r))
	r.UsePreprocessor(FillDefaults)
	return r
}

func watch(id, channel string, at time.Time, topics ...string) *v1.Record {
	return &v1.Record{
		ID:         id,
		UserID:     "user-1",
		Product:    "YouTube",
		Title:      "video " + id,
		Channel:    channel,
		Topics:     topics,
		OccurredAt: at,
	}
}

func TestRegisterBuiltins_Types(t *testing.T) {
	r := newBuiltinRegistry(t)
	assert.Equal(t, []string{TypeChannelBreakdown, TypeHourlyActivity, TypeKPI, TypeTopicBreakdown}, r.List())

	assert.ErrorIs(t, RegisterBuiltins(r), ErrDuplicateType)
}

func TestKPI(t *testing.T) {
	first := builtinNow.Add(-48 * time.Hour)
	r := newBuiltinRegistry(t,
		watch("1", "alpha", first, "Music"),
		watch("2", "beta", builtinNow.Add(-2*time.Hour), "Music", "Gaming"),
		watch("3", "alpha", builtinNow.Add(-time.Hour)),
	)

	got, err := r.Compute(context.Background(), "user-1", TypeKPI, filters.Filters{})
	require.NoError(t, err)

	kpi := got.(KPI)
	assert.Equal(t, 3, kpi.Total)
	assert.Equal(t, 2, kpi.DistinctChannels)
	assert.Equal(t, 2, kpi.DistinctTopics)
	require.NotNil(t, kpi.FirstAt)
	require.NotNil(t, kpi.LastAt)
	assert.True(t, kpi.FirstAt.Equal(first))
	assert.True(t, kpi.LastAt.Equal(builtinNow.Add(-time.Hour)))
}

func TestKPI_RespectsTimeframe(t *testing.T) {
	r := newBuiltinRegistry(t,
		watch("old", "alpha", builtinNow.AddDate(0, 0, -10)),
		watch("new", "alpha", builtinNow.Add(-time.Hour)),
	)

	got, err := r.Compute(context.Background(), "user-1", TypeKPI, filters.Filters{Timeframe: filters.TimeframeWeek})
	require.NoError(t, err)
	assert.Equal(t, 1, got.(KPI).Total)
}

func TestKPI_Empty(t *testing.T) {
	r := newBuiltinRegistry(t)

	got, err := r.Compute(context.Background(), "user-1", TypeKPI, filters.Filters{})
	require.NoError(t, err)

	kpi := got.(KPI)
	assert.Zero(t, kpi.Total)
	assert.Nil(t, kpi.FirstAt)
	assert.Nil(t, kpi.LastAt)
}

func TestChannelBreakdown(t *testing.T) {
	at := builtinNow.Add(-time.Hour)
	r := newBuiltinRegistry(t,
		watch("1", "beta", at),
		watch("2", "alpha", at),
		watch("3", "beta", at),
		watch("4", "", at),
	)

	got, err := r.Compute(context.Background(), "user-1", TypeChannelBreakdown, filters.Filters{})
	require.NoError(t, err)

	shares := got.(Breakdown)
	require.Len(t, shares, 2)
	assert.Equal(t, "beta", shares[0].Name)
	assert.Equal(t, 2, shares[0].Count)
	assert.Equal(t, "66.66", shares[0].Percent.StringFixed(2))
	assert.Equal(t, "alpha", shares[1].Name)
	assert.Equal(t, "33.33", shares[1].Percent.StringFixed(2))
}

func TestTopicBreakdown_TiesSortByName(t *testing.T) {
	at := builtinNow.Add(-time.Hour)
	r := newBuiltinRegistry(t,
		watch("1", "alpha", at, "Music", "Gaming"),
		watch("2", "alpha", at, "Comedy"),
	)

	got, err := r.Compute(context.Background(), "user-1", TypeTopicBreakdown, filters.Filters{})
	require.NoError(t, err)

	shares := got.(Breakdown)
	names := make([]string, len(shares))
	sum := decimal.Zero
	for i, s := range shares {
		names[i] = s.Name
		sum = sum.Add(s.Percent)
	}
	assert.Equal(t, []string{"Comedy", "Gaming", "Music"}, names)
	assert.True(t, sum.LessThanOrEqual(decimal.NewFromInt(100)))
}

func TestValidateBreakdown(t *testing.T) {
	tests := []struct {
		name    string
		shares  Breakdown
		wantErr bool
	}{
		{
			name:   "empty",
			shares: Breakdown{},
		},
		{
			name: "exactly one hundred",
			shares: Breakdown{
				{Name: "a", Count: 1, Percent: decimal.NewFromInt(50)},
				{Name: "b", Count: 1, Percent: decimal.NewFromInt(50)},
			},
		},
		{
			name:    "zero count",
			shares:  Breakdown{{Name: "a", Count: 0, Percent: decimal.Zero}},
			wantErr: true,
		},
		{
			name:    "negative percent",
			shares:  Breakdown{{Name: "a", Count: 1, Percent: decimal.NewFromInt(-1)}},
			wantErr: true,
		},
		{
			name: "over one hundred",
			shares: Breakdown{
				{Name: "a", Count: 1, Percent: decimal.NewFromInt(60)},
				{Name: "b", Count: 1, Percent: decimal.NewFromInt(41)},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateBreakdown(tt.shares, ValidationContext{})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHourlyActivity(t *testing.T) {
	day := time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC)
	r := newBuiltinRegistry(t,
		watch("1", "alpha", day.Add(9*time.Hour)),
		watch("2", "alpha", day.Add(9*time.Hour+30*time.Minute)),
		watch("3", "alpha", day.Add(23*time.Hour)),
	)

	got, err := r.Compute(context.Background(), "user-1", TypeHourlyActivity, filters.Filters{})
	require.NoError(t, err)

	hours := got.(HourlyActivity)
	assert.Equal(t, 2, hours[9])
	assert.Equal(t, 1, hours[23])
	assert.Zero(t, hours[0])
}

func TestFillDefaults(t *testing.T) {
	got, err := FillDefaults(context.Background(), "user-1", filters.Filters{Topics: []string{"Music"}})
	require.NoError(t, err)
	assert.Equal(t, filters.TimeframeAll, got.Timeframe)
	assert.Equal(t, filters.ProductAll, got.Product)
	assert.Equal(t, []string{"Music"}, got.Topics)

	got, err = FillDefaults(context.Background(), "user-1", filters.Filters{Timeframe: "Day", Product: "YouTube"})
	require.NoError(t, err)
	assert.Equal(t, "Day", got.Timeframe)
	assert.Equal(t, "YouTube", got.Product)
}
