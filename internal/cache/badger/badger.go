// Package badger stores durable cache records in an embedded BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aevon-lab/aggcache/internal/cache"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	json "github.com/goccy/go-json"
)

const entryPrefix = "aggcache:entry:"

// Config holds BadgerDB configuration.
type Config struct {
	// Path to store database files. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in RAM (for tests).
	InMemory bool
}

// Adapter implements cache.Adapter on BadgerDB.
type Adapter struct {
	db *badger.DB
}

// Open creates the database and returns an adapter owning it.
func Open(cfg Config) (*Adapter, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithCompression(options.Snappy).
		WithNumVersionsToKeep(1).
		WithLogger(nil)

	if cfg.InMemory {
		opts = opts.WithInMemory(true).WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &Adapter{db: db}, nil
}

// Close releases the database.
func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) Store(ctx context.Context, rec cache.StoredRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("badger store: marshal record: %w", err)
	}

	return a.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(entryPrefix+rec.Key), data); err != nil {
			return fmt.Errorf("badger store %s: %w", rec.Key, err)
		}
		return nil
	})
}

func (a *Adapter) Fetch(ctx context.Context, key string) (*cache.StoredRecord, error) {
	var rec cache.StoredRecord

	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(entryPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return cache.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("badger fetch %s: %w", key, err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (a *Adapter) Remove(ctx context.Context, key string) error {
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(entryPrefix + key))
	})
}

// FetchExpired prefix-scans every entry and keeps those expired at before.
func (a *Adapter) FetchExpired(ctx context.Context, before time.Time) ([]cache.StoredRecord, error) {
	var expired []cache.StoredRecord

	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var rec cache.StoredRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("badger fetch expired: decode %s: %w", it.Item().Key(), err)
			}

			expiresAt, err := rec.ExpiresAtTime()
			if err != nil {
				return err
			}
			if !before.Before(expiresAt) {
				expired = append(expired, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}
