package postgres

import (
	"fmt"
	"time"

	v1 "github.com/aevon-lab/aggcache/internal/api/v1"
	"github.com/aevon-lab/aggcache/internal/cache"
	json "github.com/goccy/go-json"
	"github.com/lib/pq"
)

// marshalMetadata encodes a metadata map for a JSONB column.
// Empty metadata produces nil (SQL NULL) rather than JSON "null".
func marshalMetadata[M ~map[string]V, V any](metadata M) ([]byte, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return raw, nil
}

// nonNil keeps pq.Array from sending NULL for an absent collection.
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecordRow scans an activity_records row.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanRecordRow(row scanner) (*v1.Record, error) {
	var rec v1.Record
	var metadataJSON []byte

	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Product,
		&rec.Title,
		&rec.Channel,
		pq.Array(&rec.Topics),
		&rec.OccurredAt,
		&metadataJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan record row: %w", err)
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &rec, nil
}

// scanCacheRow scans an aggregation_cache row back into its portable shape.
func scanCacheRow(row scanner) (*cache.StoredRecord, error) {
	var rec cache.StoredRecord
	var data, metadataJSON []byte
	var computedAt, expiresAt time.Time
	var source string

	err := row.Scan(
		&rec.Key,
		&rec.ID,
		&rec.UserID,
		&rec.AggregationType,
		&rec.FilterHash,
		&data,
		&computedAt,
		&expiresAt,
		&rec.Version,
		&metadataJSON,
		&source,
	)
	if err != nil {
		return nil, err
	}

	rec.Data = data
	rec.ComputedAt = computedAt.UTC().Format(cache.TimeFormat)
	rec.ExpiresAt = expiresAt.UTC().Format(cache.TimeFormat)
	rec.Source = cache.Source(source)

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cache metadata: %w", err)
		}
	}

	return &rec, nil
}
