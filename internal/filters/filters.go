package filters

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	json "github.com/goccy/go-json"
)

// Well-known scalar values. "All" disables the corresponding constraint.
const (
	TimeframeAll   = "All"
	TimeframeYear  = "Year"
	TimeframeMonth = "Month"
	TimeframeWeek  = "Week"
	TimeframeDay   = "Day"

	ProductAll = "All"
)

// Filters is the caller-facing filter set of an aggregation request.
type Filters struct {
	Timeframe string   `json:"timeframe" yaml:"timeframe"`
	Product   string   `json:"product" yaml:"product"`
	Topics    []string `json:"topics,omitempty" yaml:"topics"`
	Channels  []string `json:"channels,omitempty" yaml:"channels"`
}

// Normalized is the canonical form of a Filters value. Two filter sets that
// denote the same effective filter normalize to equal values.
//
// Field order is part of the hash input and must not change without bumping
// the cache schema version.
type Normalized struct {
	Timeframe string   `json:"timeframe"`
	Product   string   `json:"product"`
	Topics    []string `json:"topics,omitempty"`
	Channels  []string `json:"channels,omitempty"`
}

// Key identifies one cached aggregation value.
type Key struct {
	UserID     string
	Type       string
	FilterHash string
}

// keyEscaper percent-escapes the separator so that distinct keys never
// share a storage key. Ordinary ids pass through unchanged.
var keyEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

// String returns the canonical storage key.
func (k Key) String() string {
	return keyEscaper.Replace(k.UserID) + ":" + keyEscaper.Replace(k.Type) + ":" + k.FilterHash
}

// Normalize copies f into its canonical form. Collection fields are sorted
// and de-duplicated; scalar fields are copied verbatim.
func Normalize(f Filters) Normalized {
	return Normalized{
		Timeframe: f.Timeframe,
		Product:   f.Product,
		Topics:    sortedSet(f.Topics),
		Channels:  sortedSet(f.Channels),
	}
}

// Hash returns a stable hex digest of the normalized filter set.
func Hash(n Normalized) string {
	// Marshalling a struct of strings and string slices cannot fail.
	data, _ := json.Marshal(n)
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// BuildKey derives the cache key for a (user, aggregation type, filters) triple.
func BuildKey(userID, aggregationType string, f Filters) Key {
	return Key{
		UserID:     userID,
		Type:       aggregationType,
		FilterHash: Hash(Normalize(f)),
	}
}

// Since resolves a timeframe label into the earliest timestamp it includes.
// ok is false when the timeframe places no lower bound on records.
func Since(timeframe string, now time.Time) (since time.Time, ok bool) {
	switch timeframe {
	case TimeframeYear:
		return now.AddDate(-1, 0, 0), true
	case TimeframeMonth:
		return now.AddDate(0, -1, 0), true
	case TimeframeWeek:
		return now.AddDate(0, 0, -7), true
	case TimeframeDay:
		return now.Add(-24 * time.Hour), true
	default:
		return time.Time{}, false
	}
}

// Matches reports whether a record with the given attributes passes the filter set.
func (n Normalized) Matches(product, channel string, topics []string, occurredAt, now time.Time) bool {
	if n.Product != "" && n.Product != ProductAll && n.Product != product {
		return false
	}
	if since, ok := Since(n.Timeframe, now); ok && occurredAt.Before(since) {
		return false
	}
	if len(n.Channels) > 0 && !contains(n.Channels, channel) {
		return false
	}
	if len(n.Topics) > 0 {
		for _, topic := range topics {
			if contains(n.Topics, topic) {
				return true
			}
		}
		return false
	}
	return true
}

// Filters converts the normalized set back into a request filter set.
func (n Normalized) Filters() Filters {
	return Filters{
		Timeframe: n.Timeframe,
		Product:   n.Product,
		Topics:    append([]string(nil), n.Topics...),
		Channels:  append([]string(nil), n.Channels...),
	}
}

// String is used in log lines only.
func (f Filters) String() string {
	return fmt.Sprintf("timeframe=%q product=%q topics=%v channels=%v", f.Timeframe, f.Product, f.Topics, f.Channels)
}

func sortedSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)

	// Collections are sets: drop adjacent duplicates after sorting.
	uniq := out[:1]
	for _, v := range out[1:] {
		if v != uniq[len(uniq)-1] {
			uniq = append(uniq, v)
		}
	}
	return uniq
}

// contains expects a sorted slice.
func contains(sorted []string, v string) bool {
	i := sort.SearchStrings(sorted, v)
	return i < len(sorted) && sorted[i] == v
}
