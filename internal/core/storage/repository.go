package storage

import (
	"context"
	"errors"

	v1 "github.com/aevon-lab/aggcache/internal/api/v1"
	"github.com/aevon-lab/aggcache/internal/filters"
)

// ErrDuplicate is returned when a record with the same (user_id, id) already exists.
var ErrDuplicate = errors.New("record already exists")

// RecordSource yields the raw activity records an aggregation runs over.
type RecordSource interface {
	// LoadRecords returns the user's records matching f, oldest first.
	LoadRecords(ctx context.Context, userID string, f filters.Filters) ([]*v1.Record, error)
}

// RecordStore is a RecordSource that can also be written to by the importer.
type RecordStore interface {
	RecordSource

	// SaveRecord persists a record. Returns ErrDuplicate if it already exists.
	SaveRecord(ctx context.Context, record *v1.Record) error
}
