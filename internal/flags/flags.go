package flags

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
)

// Flag names a feature switch.
type Flag string

const (
	// Cache is the master switch for the cached read path.
	Cache Flag = "aggregation_cache"
	// Fallback permits caller-supplied fallback computation after a compute failure.
	Fallback Flag = "aggregation_fallback"
	// Backfill permits batch recomputation jobs.
	Backfill Flag = "aggregation_backfill"
)

// Source records which layer of the precedence chain produced a flag value.
type Source string

const (
	SourceDefault Source = "default"
	SourceEnv     Source = "env"
	SourceRuntime Source = "runtime"
)

// State is the resolved value of one flag.
type State struct {
	Enabled     bool      `json:"enabled"`
	LastUpdated time.Time `json:"last_updated"`
	Source      Source    `json:"source"`
}

// Defaults returns the built-in flag values.
func Defaults() map[Flag]bool {
	return map[Flag]bool{
		Cache:    true,
		Fallback: true,
		Backfill: true,
	}
}

// Registry resolves flags with the precedence runtime > env > default.
// Env overrides are parsed once at construction; runtime overrides live for
// the lifetime of the process.
type Registry struct {
	mu       sync.RWMutex
	clock    clockwork.Clock
	defaults map[Flag]State
	env      map[Flag]State
	runtime  map[Flag]State
}

// NewRegistry builds a registry from built-in defaults and an optional env
// override document: a JSON object mapping flag names to booleans, e.g.
// {"aggregation_cache": false}. Malformed input is logged and ignored.
func NewRegistry(defaults map[Flag]bool, envOverrides string, clock clockwork.Clock) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if defaults == nil {
		defaults = Defaults()
	}

	now := clock.Now()
	r := &Registry{
		clock:    clock,
		defaults: make(map[Flag]State, len(defaults)),
		env:      make(map[Flag]State),
		runtime:  make(map[Flag]State),
	}
	for flag, enabled := range defaults {
		r.defaults[flag] = State{Enabled: enabled, LastUpdated: now, Source: SourceDefault}
	}

	for flag, enabled := range parseEnvOverrides(envOverrides, r.defaults) {
		r.env[flag] = State{Enabled: enabled, LastUpdated: now, Source: SourceEnv}
	}

	return r
}

func parseEnvOverrides(raw string, known map[Flag]State) map[Flag]bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var parsed map[string]bool
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		slog.Warn("[FeatureFlags] Ignoring malformed flag overrides", "error", err)
		return nil
	}

	overrides := make(map[Flag]bool, len(parsed))
	for name, enabled := range parsed {
		flag := Flag(name)
		if _, ok := known[flag]; !ok {
			slog.Warn("[FeatureFlags] Ignoring override for unknown flag", "flag", name)
			continue
		}
		overrides[flag] = enabled
	}
	return overrides
}

// IsEnabled reports the resolved value of flag. Unknown flags are disabled.
func (r *Registry) IsEnabled(flag Flag) bool {
	return r.State(flag).Enabled
}

// State returns the resolved state of flag.
func (r *Registry) State(flag Flag) State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(flag)
}

func (r *Registry) resolveLocked(flag Flag) State {
	if s, ok := r.runtime[flag]; ok {
		return s
	}
	if s, ok := r.env[flag]; ok {
		return s
	}
	if s, ok := r.defaults[flag]; ok {
		return s
	}
	return State{Source: SourceDefault}
}

// SetRuntimeOverride pins flag to enabled until ClearRuntimeOverrides.
func (r *Registry) SetRuntimeOverride(flag Flag, enabled bool) {
	r.mu.Lock()
	r.runtime[flag] = State{Enabled: enabled, LastUpdated: r.clock.Now(), Source: SourceRuntime}
	r.mu.Unlock()

	slog.Info("[FeatureFlags] Runtime override set", "flag", flag, "enabled", enabled)
}

// ClearRuntimeOverrides drops every runtime override.
func (r *Registry) ClearRuntimeOverrides() {
	r.mu.Lock()
	cleared := len(r.runtime)
	r.runtime = make(map[Flag]State)
	r.mu.Unlock()

	slog.Info("[FeatureFlags] Runtime overrides cleared", "count", cleared)
}

// Known reports whether flag has a built-in default.
func (r *Registry) Known(flag Flag) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defaults[flag]
	return ok
}

// ListAll returns the resolved state of every known flag.
func (r *Registry) ListAll() map[Flag]State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[Flag]State, len(r.defaults))
	for flag := range r.defaults {
		out[flag] = r.resolveLocked(flag)
	}
	return out
}

// Names returns the known flag names in sorted order.
func (r *Registry) Names() []Flag {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]Flag, 0, len(r.defaults))
	for flag := range r.defaults {
		names = append(names, flag)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
