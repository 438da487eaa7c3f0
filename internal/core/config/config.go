package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Cache backends.
const (
	BackendNone     = "none"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendBadger   = "badger"
)

// EnvPrefix prefixes every environment override. Nested keys use "__",
// e.g. AGGCACHE_CACHE__DEFAULT_TTL=30m.
const EnvPrefix = "AGGCACHE_"

// Config represents the top-level application config.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	Redis    RedisConfig    `koanf:"redis"`
	Badger   BadgerConfig   `koanf:"badger"`
	Flags    FlagsConfig    `koanf:"flags"`
	Backfill BackfillConfig `koanf:"backfill"`
}

type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`
	Mode string `koanf:"mode"` // debug | release

	MaxBodySizeMB int `koanf:"max_body_size_mb"`
}

// DatabaseConfig points at the PostgreSQL database holding activity records
// and, with the postgres backend, the durable cache table. An empty DSN
// serves records from an in-process store.
type DatabaseConfig struct {
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type CacheConfig struct {
	Backend        string                   `koanf:"backend"`
	MemoryCapacity int                      `koanf:"memory_capacity"`
	DefaultTTL     time.Duration            `koanf:"default_ttl"`
	TTLOverrides   map[string]time.Duration `koanf:"ttl_overrides"`
	SchemaVersion  int                      `koanf:"schema_version"`
	SweepInterval  time.Duration            `koanf:"sweep_interval"` // zero disables the sweeper
	DurableTimeout time.Duration            `koanf:"durable_timeout"`
	Breaker        BreakerConfig            `koanf:"breaker"`
}

type BreakerConfig struct {
	Enabled             bool          `koanf:"enabled"`
	ConsecutiveFailures uint32        `koanf:"consecutive_failures"`
	OpenTimeout         time.Duration `koanf:"open_timeout"`
}

type RedisConfig struct {
	Addr      string        `koanf:"addr"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db"`
	Prefix    string        `koanf:"prefix"`
	Retention time.Duration `koanf:"retention"`
}

type BadgerConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// FlagsConfig carries the env-level flag overrides: a JSON object mapping
// flag names to booleans.
type FlagsConfig struct {
	Overrides string `koanf:"overrides"`
}

type BackfillConfig struct {
	BatchSize int `koanf:"batch_size"`
	Workers   int `koanf:"workers"`
}

// Durable reports whether the configured backend has a durable layer.
func (c CacheConfig) Durable() bool {
	return c.Backend != BackendNone
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}

	if c.Database.DSN != "" {
		if c.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("database.max_open_conns must be > 0")
		}
		if c.Database.MaxIdleConns <= 0 {
			return fmt.Errorf("database.max_idle_conns must be > 0")
		}
	}

	switch c.Cache.Backend {
	case BackendNone, BackendMemory:
	case BackendPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required for cache.backend %q", c.Cache.Backend)
		}
	case BackendRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return fmt.Errorf("redis.addr is required for cache.backend %q", c.Cache.Backend)
		}
		if c.Redis.Retention < 0 {
			return fmt.Errorf("redis.retention must be >= 0")
		}
	case BackendBadger:
		if !c.Badger.InMemory && strings.TrimSpace(c.Badger.Path) == "" {
			return fmt.Errorf("badger.path is required unless badger.in_memory is set")
		}
	default:
		return fmt.Errorf("unsupported cache.backend %q", c.Cache.Backend)
	}

	if c.Cache.MemoryCapacity < 0 {
		return fmt.Errorf("cache.memory_capacity must be >= 0")
	}
	if c.Cache.DefaultTTL <= 0 {
		return fmt.Errorf("cache.default_ttl must be > 0")
	}
	for aggregationType, ttl := range c.Cache.TTLOverrides {
		if ttl <= 0 {
			return fmt.Errorf("cache.ttl_overrides.%s must be > 0", aggregationType)
		}
	}
	if c.Cache.SchemaVersion <= 0 {
		return fmt.Errorf("cache.schema_version must be > 0")
	}
	if c.Cache.SweepInterval < 0 {
		return fmt.Errorf("cache.sweep_interval must be >= 0")
	}
	if c.Cache.DurableTimeout <= 0 {
		return fmt.Errorf("cache.durable_timeout must be > 0")
	}
	if c.Cache.Breaker.Enabled && c.Cache.Breaker.OpenTimeout <= 0 {
		return fmt.Errorf("cache.breaker.open_timeout must be > 0")
	}

	if c.Backfill.BatchSize <= 0 {
		return fmt.Errorf("backfill.batch_size must be > 0")
	}
	if c.Backfill.Workers <= 0 {
		return fmt.Errorf("backfill.workers must be > 0")
	}

	return nil
}

// Load parses config from defaults, an optional file and env, then validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":                        8080,
		"server.host":                        "0.0.0.0",
		"server.mode":                        "release",
		"server.max_body_size_mb":            1,
		"database.dsn":                       "",
		"database.max_open_conns":            25,
		"database.max_idle_conns":            25,
		"database.auto_migrate":              true,
		"cache.backend":                      BackendMemory,
		"cache.memory_capacity":              1024,
		"cache.default_ttl":                  "15m",
		"cache.schema_version":               1,
		"cache.sweep_interval":               "1m",
		"cache.durable_timeout":              "2s",
		"cache.breaker.enabled":              true,
		"cache.breaker.consecutive_failures": 5,
		"cache.breaker.open_timeout":         "30s",
		"redis.addr":                         "localhost:6379",
		"redis.db":                           0,
		"redis.prefix":                       "aggcache:",
		"redis.retention":                    "1h",
		"badger.path":                        "./data/badger",
		"badger.in_memory":                   false,
		"flags.overrides":                    "",
		"backfill.batch_size":                10,
		"backfill.workers":                   1,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
