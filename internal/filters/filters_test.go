package filters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildKey_IndependentOfCollectionOrder(t *testing.T) {
	f1 := Filters{
		Timeframe: "All",
		Product:   "YouTube",
		Topics:    []string{"music", "gaming", "news"},
		Channels:  []string{"chan-b", "chan-a"},
	}
	f2 := Filters{
		Timeframe: "All",
		Product:   "YouTube",
		Topics:    []string{"news", "music", "gaming"},
		Channels:  []string{"chan-a", "chan-b"},
	}

	require.Equal(t, BuildKey("u1", "kpi", f1), BuildKey("u1", "kpi", f2))
}

func TestBuildKey_NilAndEmptyCollectionsMatch(t *testing.T) {
	f1 := Filters{Timeframe: "All", Product: "All"}
	f2 := Filters{Timeframe: "All", Product: "All", Topics: []string{}, Channels: []string{}}

	require.Equal(t, BuildKey("u1", "kpi", f1), BuildKey("u1", "kpi", f2))
}

func TestBuildKey_DuplicatesCollapse(t *testing.T) {
	f1 := Filters{Timeframe: "All", Product: "All", Topics: []string{"music", "music"}}
	f2 := Filters{Timeframe: "All", Product: "All", Topics: []string{"music"}}

	require.Equal(t, BuildKey("u1", "kpi", f1), BuildKey("u1", "kpi", f2))
}

func TestBuildKey_DistinguishesEffectiveFilters(t *testing.T) {
	base := Filters{Timeframe: "All", Product: "All", Topics: []string{"music"}}

	tests := []struct {
		name  string
		other Filters
	}{
		{name: "timeframe", other: Filters{Timeframe: "Year", Product: "All", Topics: []string{"music"}}},
		{name: "product", other: Filters{Timeframe: "All", Product: "YouTube", Topics: []string{"music"}}},
		{name: "topics", other: Filters{Timeframe: "All", Product: "All", Topics: []string{"news"}}},
		{name: "topics moved to channels", other: Filters{Timeframe: "All", Product: "All", Channels: []string{"music"}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotEqual(t, BuildKey("u1", "kpi", base).FilterHash, BuildKey("u1", "kpi", tc.other).FilterHash)
		})
	}

	assert.NotEqual(t, BuildKey("u1", "kpi", base), BuildKey("u2", "kpi", base))
	assert.NotEqual(t, BuildKey("u1", "kpi", base), BuildKey("u1", "topic_breakdown", base))
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	topics := []string{"b", "a"}
	n := Normalize(Filters{Topics: topics})

	require.Equal(t, []string{"b", "a"}, topics)
	require.Equal(t, []string{"a", "b"}, n.Topics)
}

func TestKey_String(t *testing.T) {
	k := Key{UserID: "u1", Type: "kpi", FilterHash: "00ff"}
	require.Equal(t, "u1:kpi:00ff", k.String())
}

func TestKey_StringEscapesSeparators(t *testing.T) {
	a := Key{UserID: "u1:kpi", Type: "x", FilterHash: "00ff"}
	b := Key{UserID: "u1", Type: "kpi:x", FilterHash: "00ff"}
	require.NotEqual(t, a.String(), b.String())
	require.Equal(t, "u1%3Akpi:x:00ff", a.String())

	c := Key{UserID: "u1%3Akpi", Type: "x", FilterHash: "00ff"}
	require.NotEqual(t, a.String(), c.String())
}

func TestHash_StableHexDigest(t *testing.T) {
	h := Hash(Normalize(Filters{Timeframe: "All", Product: "All"}))
	require.Len(t, h, 16)
	require.Equal(t, h, Hash(Normalize(Filters{Timeframe: "All", Product: "All"})))
}

func TestNormalized_Matches(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-time.Hour)
	old := now.AddDate(-2, 0, 0)

	tests := []struct {
		name     string
		filters  Filters
		product  string
		channel  string
		topics   []string
		occurred time.Time
		want     bool
	}{
		{name: "all matches everything", filters: Filters{Timeframe: "All", Product: "All"}, product: "YouTube", occurred: old, want: true},
		{name: "empty scalars match everything", filters: Filters{}, product: "YouTube", occurred: old, want: true},
		{name: "product mismatch", filters: Filters{Product: "YouTube Music"}, product: "YouTube", occurred: recent, want: false},
		{name: "timeframe excludes old", filters: Filters{Timeframe: "Year"}, occurred: old, want: false},
		{name: "timeframe includes recent", filters: Filters{Timeframe: "Week"}, occurred: recent, want: true},
		{name: "channel filter", filters: Filters{Channels: []string{"c1"}}, channel: "c2", occurred: recent, want: false},
		{name: "topic overlap", filters: Filters{Topics: []string{"music", "news"}}, topics: []string{"gaming", "news"}, occurred: recent, want: true},
		{name: "no topic overlap", filters: Filters{Topics: []string{"music"}}, topics: []string{"gaming"}, occurred: recent, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.filters).Matches(tc.product, tc.channel, tc.topics, tc.occurred, now)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSince(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, ok := Since(TimeframeAll, now)
	require.False(t, ok)

	since, ok := Since(TimeframeDay, now)
	require.True(t, ok)
	require.Equal(t, now.Add(-24*time.Hour), since)

	since, ok = Since(TimeframeMonth, now)
	require.True(t, ok)
	require.Equal(t, time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC), since)
}
