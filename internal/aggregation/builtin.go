package aggregation

import (
	"context"
	"fmt"
	"sort"
	"time"

	v1 "github.com/aevon-lab/aggcache/internal/api/v1"
	"github.com/aevon-lab/aggcache/internal/filters"
	"github.com/shopspring/decimal"
)

// Built-in aggregation types.
const (
	TypeKPI              = "kpi"
	TypeChannelBreakdown = "channel_breakdown"
	TypeTopicBreakdown   = "topic_breakdown"
	TypeHourlyActivity   = "hourly_activity"
)

const sharePlaces = 2

var hundred = decimal.NewFromInt(100)

// KPI summarizes a user's filtered history.
type KPI struct {
	Total            int        `json:"total"`
	DistinctChannels int        `json:"distinct_channels"`
	DistinctTopics   int        `json:"distinct_topics"`
	FirstAt          *time.Time `json:"first_at,omitempty"`
	LastAt           *time.Time `json:"last_at,omitempty"`
}

// Share is one slice of a breakdown. Percent is truncated to two places so
// the slices of a breakdown never sum past 100.
type Share struct {
	Name    string          `json:"name"`
	Count   int             `json:"count"`
	Percent decimal.Decimal `json:"percent"`
}

// Breakdown is ordered by Count descending, then Name.
type Breakdown []Share

// HourlyActivity counts records per UTC hour of day.
type HourlyActivity [24]int

// RegisterBuiltins registers every built-in aggregation on r.
func RegisterBuiltins(r *Registry) error {
	if err := Register(r, Registration[KPI]{
		Type:    TypeKPI,
		Compute: computeKPI,
		Validate: func(result KPI, vc ValidationContext) error {
			if result.Total != vc.RecordCount {
				return fmt.Errorf("total %d does not match %d loaded records", result.Total, vc.RecordCount)
			}
			return nil
		},
	}); err != nil {
		return err
	}

	if err := Register(r, Registration[Breakdown]{
		Type: TypeChannelBreakdown,
		Compute: func(ctx context.Context, f filters.Filters, records []*v1.Record) (Breakdown, error) {
			return breakdown(records, func(r *v1.Record) []string {
				if r.Channel == "" {
					return nil
				}
				return []string{r.Channel}
			}), nil
		},
		Validate: validateBreakdown,
	}); err != nil {
		return err
	}

	if err := Register(r, Registration[Breakdown]{
		Type: TypeTopicBreakdown,
		Compute: func(ctx context.Context, f filters.Filters, records []*v1.Record) (Breakdown, error) {
			return breakdown(records, func(r *v1.Record) []string { return r.Topics }), nil
		},
		Validate: validateBreakdown,
	}); err != nil {
		return err
	}

	return Register(r, Registration[HourlyActivity]{
		Type:    TypeHourlyActivity,
		Compute: computeHourly,
	})
}

// FillDefaults resolves empty timeframe and product to "All" so that an
// omitted filter and an explicit "All" load the same records.
func FillDefaults(ctx context.Context, userID string, f filters.Filters) (filters.Filters, error) {
	if f.Timeframe == "" {
		f.Timeframe = filters.TimeframeAll
	}
	if f.Product == "" {
		f.Product = filters.ProductAll
	}
	return f, nil
}

func computeKPI(ctx context.Context, f filters.Filters, records []*v1.Record) (KPI, error) {
	kpi := KPI{Total: len(records)}
	channels := make(map[string]struct{})
	topics := make(map[string]struct{})

	for _, r := range records {
		if r.Channel != "" {
			channels[r.Channel] = struct{}{}
		}
		for _, t := range r.Topics {
			topics[t] = struct{}{}
		}

		at := r.OccurredAt
		if kpi.FirstAt == nil || at.Before(*kpi.FirstAt) {
			kpi.FirstAt = &at
		}
		if kpi.LastAt == nil || at.After(*kpi.LastAt) {
			kpi.LastAt = &at
		}
	}

	kpi.DistinctChannels = len(channels)
	kpi.DistinctTopics = len(topics)
	return kpi, nil
}

func breakdown(records []*v1.Record, names func(*v1.Record) []string) Breakdown {
	counts := make(map[string]int)
	total := 0
	for _, r := range records {
		for _, name := range names(r) {
			counts[name]++
			total++
		}
	}

	out := make(Breakdown, 0, len(counts))
	for name, count := range counts {
		out = append(out, Share{
			Name:    name,
			Count:   count,
			Percent: decimal.NewFromInt(int64(count)).Mul(hundred).Div(decimal.NewFromInt(int64(total))).Truncate(sharePlaces),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func validateBreakdown(result Breakdown, vc ValidationContext) error {
	sum := decimal.Zero
	for _, s := range result {
		if s.Count <= 0 {
			return fmt.Errorf("share %q has non-positive count %d", s.Name, s.Count)
		}
		if s.Percent.IsNegative() {
			return fmt.Errorf("share %q has negative percent %s", s.Name, s.Percent)
		}
		sum = sum.Add(s.Percent)
	}
	if sum.GreaterThan(hundred) {
		return fmt.Errorf("shares sum to %s%%", sum)
	}
	return nil
}

func computeHourly(ctx context.Context, f filters.Filters, records []*v1.Record) (HourlyActivity, error) {
	var hours HourlyActivity
	for _, r := range records {
		hours[r.OccurredAt.UTC().Hour()]++
	}
	return hours, nil
}
