package aggregation

import (
	"context"
	"fmt"
	"sort"
	"sync"

	v1 "github.com/aevon-lab/aggcache/internal/api/v1"
	"github.com/aevon-lab/aggcache/internal/core/storage"
	"github.com/aevon-lab/aggcache/internal/filters"
)

// ComputeFunc turns a user's records into an aggregation result. It must be
// pure with respect to its inputs.
type ComputeFunc[T any] func(ctx context.Context, f filters.Filters, records []*v1.Record) (T, error)

// ValidateFunc rejects a computed result by returning an error.
type ValidateFunc[T any] func(result T, vc ValidationContext) error

// ValidationContext is what a validator knows about the computation.
type ValidationContext struct {
	UserID      string
	Type        string
	Filters     filters.Filters
	RecordCount int
}

// Registration binds an aggregation type to its compute function and
// optional validator.
type Registration[T any] struct {
	Type     string
	Compute  ComputeFunc[T]
	Validate ValidateFunc[T]
}

// Preprocessor resolves derived or implicit filter values before records
// are loaded. Preprocessors run in registration order.
type Preprocessor func(ctx context.Context, userID string, f filters.Filters) (filters.Filters, error)

type registration struct {
	compute  func(ctx context.Context, f filters.Filters, records []*v1.Record) (any, error)
	validate func(result any, vc ValidationContext) error
}

// Registry maps aggregation types to their compute pipeline.
type Registry struct {
	mu            sync.RWMutex
	source        storage.RecordSource
	types         map[string]registration
	preprocessors []Preprocessor
}

// NewRegistry creates a registry loading records from source.
func NewRegistry(source storage.RecordSource) *Registry {
	return &Registry{
		source: source,
		types:  make(map[string]registration),
	}
}

// Register adds a typed registration. Registering the same type twice fails.
func Register[T any](r *Registry, reg Registration[T]) error {
	if reg.Type == "" {
		return fmt.Errorf("aggregation type is required")
	}
	if reg.Compute == nil {
		return fmt.Errorf("aggregation %q: compute function is required", reg.Type)
	}

	entry := registration{
		compute: func(ctx context.Context, f filters.Filters, records []*v1.Record) (any, error) {
			return reg.Compute(ctx, f, records)
		},
	}
	if reg.Validate != nil {
		entry.validate = func(result any, vc ValidationContext) error {
			typed, _ := result.(T)
			return reg.Validate(typed, vc)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[reg.Type]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, reg.Type)
	}
	r.types[reg.Type] = entry
	return nil
}

// MustRegister is Register for boot-time wiring.
func MustRegister[T any](r *Registry, reg Registration[T]) {
	if err := Register(r, reg); err != nil {
		panic(err)
	}
}

// UsePreprocessor appends p to the filter pipeline.
func (r *Registry) UsePreprocessor(p Preprocessor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preprocessors = append(r.preprocessors, p)
}

// Has reports whether aggregationType is registered.
func (r *Registry) Has(aggregationType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[aggregationType]
	return ok
}

// List returns the registered types, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.types))
	for t := range r.types {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Compute runs the pipeline for one aggregation: preprocess filters, load
// records, compute, validate.
func (r *Registry) Compute(ctx context.Context, userID, aggregationType string, f filters.Filters) (any, error) {
	r.mu.RLock()
	entry, ok := r.types[aggregationType]
	preprocessors := r.preprocessors
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredType, aggregationType)
	}

	resolved := f
	for _, p := range preprocessors {
		next, err := p(ctx, userID, resolved)
		if err != nil {
			return nil, fmt.Errorf("preprocess filters for %s: %w", aggregationType, err)
		}
		resolved = next
	}

	records, err := r.source.LoadRecords(ctx, userID, resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecordSource, err)
	}

	result, err := entry.compute(ctx, resolved, records)
	if err != nil {
		return nil, fmt.Errorf("compute %s: %w", aggregationType, err)
	}

	if entry.validate != nil {
		vc := ValidationContext{
			UserID:      userID,
			Type:        aggregationType,
			Filters:     resolved,
			RecordCount: len(records),
		}
		if err := entry.validate(result, vc); err != nil {
			return nil, &ValidationError{Type: aggregationType, Reason: err}
		}
	}

	return result, nil
}
