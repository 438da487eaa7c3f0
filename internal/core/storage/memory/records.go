package memory

import (
	"context"
	"sort"
	"sync"

	v1 "github.com/aevon-lab/aggcache/internal/api/v1"
	"github.com/aevon-lab/aggcache/internal/core/storage"
	"github.com/aevon-lab/aggcache/internal/filters"
	"github.com/jonboulle/clockwork"
)

// RecordStore is an in-process storage.RecordStore.
type RecordStore struct {
	mu      sync.RWMutex
	clock   clockwork.Clock
	records map[string][]*v1.Record
	ids     map[string]struct{}
}

// NewRecordStore creates an empty store. Timeframe filters are resolved
// against clock.
func NewRecordStore(clock clockwork.Clock) *RecordStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RecordStore{
		clock:   clock,
		records: make(map[string][]*v1.Record),
		ids:     make(map[string]struct{}),
	}
}

func (s *RecordStore) SaveRecord(ctx context.Context, record *v1.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := record.UserID + "/" + record.ID
	if _, exists := s.ids[id]; exists {
		return storage.ErrDuplicate
	}
	s.ids[id] = struct{}{}

	c := *record
	c.Topics = append([]string(nil), record.Topics...)
	s.records[record.UserID] = append(s.records[record.UserID], &c)
	return nil
}

func (s *RecordStore) LoadRecords(ctx context.Context, userID string, f filters.Filters) ([]*v1.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := filters.Normalize(f)
	now := s.clock.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*v1.Record
	for _, r := range s.records[userID] {
		if n.Matches(r.Product, r.Channel, r.Topics, r.OccurredAt, now) {
			c := *r
			out = append(out, &c)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out, nil
}
