package backfill

import (
	"fmt"
	"os"

	"github.com/aevon-lab/aggcache/internal/filters"
	"gopkg.in/yaml.v3"
)

// Plan is the on-disk description of a backfill: every listed user gets
// every filter set refreshed for every type.
//
//	users: [u1, u2]
//	types: [kpi, channel_breakdown]
//	batch_size: 20
//	workers: 4
//	filter_sets:
//	  - timeframe: All
//	    product: All
//	  - timeframe: Month
//	    product: YouTube
//	    topics: [Music]
type Plan struct {
	Users      []string          `yaml:"users"`
	Types      []string          `yaml:"types"`
	FilterSets []filters.Filters `yaml:"filter_sets"`
	BatchSize  int               `yaml:"batch_size"`
	Workers    int               `yaml:"workers"`
}

// LoadPlan reads and validates a YAML plan file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading backfill plan %s: %w", path, err)
	}
	return ParsePlan(data)
}

// ParsePlan decodes and validates a YAML plan.
func ParsePlan(data []byte) (*Plan, error) {
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parsing backfill plan: %w", err)
	}

	if len(plan.Users) == 0 {
		return nil, fmt.Errorf("backfill plan: at least one user is required")
	}
	for i, u := range plan.Users {
		if u == "" {
			return nil, fmt.Errorf("backfill plan: users[%d] is empty", i)
		}
	}
	if plan.BatchSize < 0 {
		return nil, fmt.Errorf("backfill plan: batch_size must not be negative")
	}
	if plan.Workers < 0 {
		return nil, fmt.Errorf("backfill plan: workers must not be negative")
	}
	return &plan, nil
}

// Configs expands the plan into one run config per user. Defaults from the
// service configuration fill an unset batch size or worker count.
func (p *Plan) Configs(defaultBatchSize, defaultWorkers int, onProgress func(Progress)) []Config {
	batchSize := p.BatchSize
	if batchSize == 0 {
		batchSize = defaultBatchSize
	}
	workers := p.Workers
	if workers == 0 {
		workers = defaultWorkers
	}

	configs := make([]Config, 0, len(p.Users))
	for _, u := range p.Users {
		configs = append(configs, Config{
			UserID:           u,
			AggregationTypes: p.Types,
			FilterSets:       p.FilterSets,
			BatchSize:        batchSize,
			Workers:          workers,
			OnProgress:       onProgress,
		})
	}
	return configs
}
