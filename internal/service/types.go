package service

import (
	"context"
	"time"

	"github.com/aevon-lab/aggcache/internal/cache"
	"github.com/aevon-lab/aggcache/internal/filters"
	"github.com/aevon-lab/aggcache/internal/flags"
)

// FallbackFunc produces a degraded result when the primary compute path
// fails or the cache is disabled.
type FallbackFunc func(ctx context.Context, req Request) (any, error)

// MetadataFunc derives envelope metadata from a computed result.
type MetadataFunc func(result any, req Request) map[string]any

// Request identifies one aggregation and how to serve it.
type Request struct {
	UserID       string
	Type         string
	Filters      filters.Filters
	ForceRefresh bool

	// Fallback is optional. It is only consulted after a compute failure
	// (with the fallback flag on) or while the cache flag is off.
	Fallback FallbackFunc
}

// Key returns the canonical cache key of the request.
func (r Request) Key() filters.Key {
	return filters.BuildKey(r.UserID, r.Type, r.Filters)
}

// AggregationQuery is the query string of the aggregation endpoints.
type AggregationQuery struct {
	Timeframe string   `form:"timeframe"`
	Product   string   `form:"product"`
	Topics    []string `form:"topic"`
	Channels  []string `form:"channel"`
	Refresh   bool     `form:"refresh"`

	// NoFallback disables the direct-compute fallback for this request.
	NoFallback bool `form:"no_fallback"`
}

func (q AggregationQuery) filters() filters.Filters {
	return filters.Filters{
		Timeframe: q.Timeframe,
		Product:   q.Product,
		Topics:    q.Topics,
		Channels:  q.Channels,
	}
}

// AggregationResponse is the body of a successful aggregation request.
type AggregationResponse struct {
	UserID     string          `json:"user_id"`
	Type       string          `json:"type"`
	FilterHash string          `json:"filter_hash"`
	Filters    filters.Filters `json:"filters"`
	Data       any             `json:"data"`
	ComputedAt time.Time       `json:"computed_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
	Version    int             `json:"version"`
	Source     cache.Source    `json:"source"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
}

func newAggregationResponse(req Request, env *cache.Envelope) AggregationResponse {
	return AggregationResponse{
		UserID:     req.UserID,
		Type:       req.Type,
		FilterHash: req.Key().FilterHash,
		Filters:    req.Filters,
		Data:       env.Data,
		ComputedAt: env.ComputedAt,
		ExpiresAt:  env.ExpiresAt,
		Version:    env.Version,
		Source:     env.Source,
		Metadata:   env.Metadata,
	}
}

// FlagUpdate is the body of PUT /v1/flags/:name.
type FlagUpdate struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// FlagsResponse lists the resolved state of every known flag.
type FlagsResponse struct {
	Flags map[flags.Flag]flags.State `json:"flags"`
}
