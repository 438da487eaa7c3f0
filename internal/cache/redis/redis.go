// Package redis stores durable cache records in Redis.
//
// Each record is a JSON string under "<prefix>entry:<cache key>". A sorted
// set "<prefix>expiry" scores every cache key by its expiry in Unix
// milliseconds so expired records can be found without a keyspace scan.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aevon-lab/aggcache/internal/cache"
	json "github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"
)

const DefaultPrefix = "aggcache:"

// Options configures an Adapter.
type Options struct {
	// Prefix namespaces every key. Empty uses DefaultPrefix.
	Prefix string

	// Retention keeps a record in Redis for this long past its logical
	// expiry before Redis drops it on its own. Zero disables native expiry
	// and leaves cleanup to the sweeper.
	Retention time.Duration
}

// Adapter implements cache.Adapter on a Redis client.
type Adapter struct {
	client    goredis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewAdapter wraps an existing client.
func NewAdapter(client goredis.UniversalClient, opts Options) *Adapter {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	return &Adapter{
		client:    client,
		prefix:    opts.Prefix,
		retention: opts.Retention,
	}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Ping verifies the connection to Redis.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

func (a *Adapter) entryKey(key string) string {
	return a.prefix + "entry:" + key
}

func (a *Adapter) expiryKey() string {
	return a.prefix + "expiry"
}

func (a *Adapter) Store(ctx context.Context, rec cache.StoredRecord) error {
	expiresAt, err := rec.ExpiresAtTime()
	if err != nil {
		return fmt.Errorf("redis store: %w", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis store: marshal record: %w", err)
	}

	_, err = a.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, a.entryKey(rec.Key), data, 0)
		if a.retention > 0 {
			pipe.PExpireAt(ctx, a.entryKey(rec.Key), expiresAt.Add(a.retention))
		}
		pipe.ZAdd(ctx, a.expiryKey(), goredis.Z{
			Score:  float64(expiresAt.UnixMilli()),
			Member: rec.Key,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis store %s: %w", rec.Key, err)
	}
	return nil
}

func (a *Adapter) Fetch(ctx context.Context, key string) (*cache.StoredRecord, error) {
	raw, err := a.client.Get(ctx, a.entryKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis fetch %s: %w", key, err)
	}

	var rec cache.StoredRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("redis fetch %s: unmarshal record: %w", key, err)
	}
	return &rec, nil
}

func (a *Adapter) Remove(ctx context.Context, key string) error {
	_, err := a.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, a.entryKey(key))
		pipe.ZRem(ctx, a.expiryKey(), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis remove %s: %w", key, err)
	}
	return nil
}

// RemoveIfUnchanged deletes rec only while the stored record still carries
// rec.ID. The entry key is watched, so a Store racing with the sweep aborts
// the removal instead of losing the fresh record. An index member whose
// record Redis already dropped is cleared from the index.
func (a *Adapter) RemoveIfUnchanged(ctx context.Context, rec cache.StoredRecord) (bool, error) {
	entry := a.entryKey(rec.Key)
	removed := false

	err := a.client.Watch(ctx, func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, entry).Bytes()
		switch {
		case errors.Is(err, goredis.Nil):
			_, err := tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				pipe.ZRem(ctx, a.expiryKey(), rec.Key)
				return nil
			})
			removed = err == nil && rec.ID == ""
			return err
		case err != nil:
			return err
		}

		var current cache.StoredRecord
		if err := json.Unmarshal(raw, &current); err != nil {
			return fmt.Errorf("unmarshal record: %w", err)
		}
		if current.ID != rec.ID {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, entry)
			pipe.ZRem(ctx, a.expiryKey(), rec.Key)
			return nil
		})
		removed = err == nil
		return err
	}, entry)

	if errors.Is(err, goredis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis remove %s: %w", rec.Key, err)
	}
	return removed, nil
}

// FetchExpired reads the expiry index up to before. Index members whose
// record has already been dropped by Redis are returned as bare records
// carrying only the key, so the sweeper still clears them from the index.
func (a *Adapter) FetchExpired(ctx context.Context, before time.Time) ([]cache.StoredRecord, error) {
	keys, err := a.client.ZRangeByScore(ctx, a.expiryKey(), &goredis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(before.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis fetch expired: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	entryKeys := make([]string, len(keys))
	for i, key := range keys {
		entryKeys[i] = a.entryKey(key)
	}

	values, err := a.client.MGet(ctx, entryKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis fetch expired: %w", err)
	}

	expired := make([]cache.StoredRecord, 0, len(keys))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			expired = append(expired, cache.StoredRecord{Key: keys[i]})
			continue
		}

		var rec cache.StoredRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("redis fetch expired %s: unmarshal record: %w", keys[i], err)
		}
		expired = append(expired, rec)
	}
	return expired, nil
}
