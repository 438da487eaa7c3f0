package cache

import (
	"fmt"
	"time"

	"github.com/aevon-lab/aggcache/internal/filters"
	json "github.com/goccy/go-json"
)

// TimeFormat is the portable timestamp encoding of stored records.
const TimeFormat = time.RFC3339Nano

// StoredRecord is the durable-tier shape of an Envelope.
type StoredRecord struct {
	ID              string          `json:"id,omitempty"`
	Key             string          `json:"key"`
	UserID          string          `json:"user_id"`
	AggregationType string          `json:"aggregation_type"`
	FilterHash      string          `json:"filter_hash"`
	Data            json.RawMessage `json:"data"`
	ComputedAt      string          `json:"computed_at"`
	ExpiresAt       string          `json:"expires_at"`
	Version         int             `json:"version"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
	Source          Source          `json:"source"`
}

// CacheKey rebuilds the key the record was stored under.
func (r StoredRecord) CacheKey() filters.Key {
	return filters.Key{UserID: r.UserID, Type: r.AggregationType, FilterHash: r.FilterHash}
}

// ExpiresAtTime parses the record's expiry stamp.
func (r StoredRecord) ExpiresAtTime() (time.Time, error) {
	t, err := time.Parse(TimeFormat, r.ExpiresAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse expires_at %q: %w", r.ExpiresAt, err)
	}
	return t, nil
}

// ToRecord converts an envelope into its durable shape.
func ToRecord(key filters.Key, env *Envelope) (StoredRecord, error) {
	data, err := json.Marshal(env.Data)
	if err != nil {
		return StoredRecord{}, fmt.Errorf("marshal envelope data for %s: %w", key, err)
	}

	return StoredRecord{
		Key:             key.String(),
		UserID:          key.UserID,
		AggregationType: key.Type,
		FilterHash:      key.FilterHash,
		Data:            data,
		ComputedAt:      env.ComputedAt.UTC().Format(TimeFormat),
		ExpiresAt:       env.ExpiresAt.UTC().Format(TimeFormat),
		Version:         env.Version,
		Metadata:        env.Metadata,
		Source:          env.Source,
	}, nil
}

// FromRecord converts a durable record back into an envelope. The source is
// always rewritten to SourceDurable; Data stays raw JSON until decoded with
// DecodeData.
func FromRecord(rec StoredRecord) (*Envelope, error) {
	computedAt, err := time.Parse(TimeFormat, rec.ComputedAt)
	if err != nil {
		return nil, fmt.Errorf("parse computed_at %q: %w", rec.ComputedAt, err)
	}
	expiresAt, err := rec.ExpiresAtTime()
	if err != nil {
		return nil, err
	}

	return &Envelope{
		Data:       rec.Data,
		ComputedAt: computedAt,
		ExpiresAt:  expiresAt,
		Version:    rec.Version,
		Metadata:   rec.Metadata,
		Source:     SourceDurable,
	}, nil
}
