package cache

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// Source tags where an envelope was served from.
type Source string

const (
	SourceMemory   Source = "memory"
	SourceDurable  Source = "durable"
	SourceComputed Source = "computed"
)

// Metadata keys written by the aggregation service.
const (
	MetaFallback = "fallback"
	MetaReason   = "reason"
)

// Envelope is the cached unit: an aggregation result plus the stamps needed
// to judge its freshness and shape.
type Envelope struct {
	Data       any            `json:"data"`
	ComputedAt time.Time      `json:"computed_at"`
	ExpiresAt  time.Time      `json:"expires_at"`
	Version    int            `json:"version"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Source     Source         `json:"source"`
}

// Expired reports whether the envelope is no longer fresh at now.
func (e *Envelope) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// IsFallback reports whether the envelope carries a degraded result.
func (e *Envelope) IsFallback() bool {
	v, _ := e.Metadata[MetaFallback].(bool)
	return v
}

// Clone returns a copy whose metadata map can be modified independently.
// Data is shared.
func (e *Envelope) Clone() *Envelope {
	c := *e
	if e.Metadata != nil {
		c.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// DecodeData returns the envelope payload as T. Payloads read back from the
// durable tier are raw JSON and are decoded on demand.
func DecodeData[T any](e *Envelope) (T, error) {
	var out T
	switch v := e.Data.(type) {
	case T:
		return v, nil
	case json.RawMessage:
		if err := json.Unmarshal(v, &out); err != nil {
			return out, fmt.Errorf("decode envelope data: %w", err)
		}
		return out, nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return out, fmt.Errorf("encode envelope data: %w", err)
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return out, fmt.Errorf("decode envelope data: %w", err)
		}
		return out, nil
	}
}
