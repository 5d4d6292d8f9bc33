package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/inovacc/tsdctl/internal/catalog"
	bolt "go.etcd.io/bbolt"
)

var (
	entriesBucket = []byte("entries")
	metaBucket    = []byte("meta")

	importedAtKey = []byte("imported_at")
	sourceKey     = []byte("source")
)

var ErrNotFound = errors.New("catalog entry not found")

// ImportInfo describes the last catalog import.
type ImportInfo struct {
	Source     string
	ImportedAt time.Time
}

// DB persists the package catalog in BoltDB.
type DB struct {
	db *bolt.DB
}

func Open(path string) (*DB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets if they don't exist
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{entriesBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", string(bucket), err)
			}
		}

		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

// Close closes the database
func (d *DB) Close() error {
	return d.db.Close()
}

// ReplaceEntries swaps the whole catalog for entries in one transaction.
func (d *DB) ReplaceEntries(source string, entries []catalog.Entry) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(entriesBucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return fmt.Errorf("failed to clear entries: %w", err)
		}

		bucket, err := tx.CreateBucket(entriesBucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", string(entriesBucket), err)
		}

		for _, entry := range entries {
			data, err := json.Marshal(entry)
			if err != nil {
				return fmt.Errorf("failed to marshal entry %s: %w", entry.Key(), err)
			}

			if err := bucket.Put([]byte(entry.Key()), data); err != nil {
				return fmt.Errorf("failed to put entry %s: %w", entry.Key(), err)
			}
		}

		meta := tx.Bucket(metaBucket)
		if err := meta.Put(sourceKey, []byte(source)); err != nil {
			return fmt.Errorf("failed to put import source: %w", err)
		}

		stamp := time.Now().UTC().Format(time.RFC3339Nano)

		return meta.Put(importedAtKey, []byte(stamp))
	})
}

// GetEntry retrieves an entry by its key.
func (d *DB) GetEntry(key string) (catalog.Entry, error) {
	var entry catalog.Entry

	err := d.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(entriesBucket).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}

		if err := json.Unmarshal(data, &entry); err != nil {
			return fmt.Errorf("failed to unmarshal entry: %w", err)
		}

		return nil
	})

	return entry, err
}

// ListEntries returns entries ordered by key. A limit of 0 returns all.
func (d *DB) ListEntries(limit int) ([]catalog.Entry, error) {
	var entries []catalog.Entry

	err := d.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(entriesBucket).Cursor()

		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			if limit > 0 && len(entries) >= limit {
				break
			}

			var entry catalog.Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("failed to unmarshal entry %s: %w", string(k), err)
			}

			entries = append(entries, entry)
		}

		return nil
	})

	return entries, err
}

// CountEntries returns the number of stored entries.
func (d *DB) CountEntries() (int64, error) {
	var count int64

	err := d.db.View(func(tx *bolt.Tx) error {
		count = int64(tx.Bucket(entriesBucket).Stats().KeyN)
		return nil
	})

	return count, err
}

// LastImport reports where and when the catalog was last imported. The
// zero value is returned if nothing was imported yet.
func (d *DB) LastImport() (ImportInfo, error) {
	var info ImportInfo

	err := d.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		info.Source = string(meta.Get(sourceKey))

		raw := meta.Get(importedAtKey)
		if raw == nil {
			return nil
		}

		t, err := time.Parse(time.RFC3339Nano, string(raw))
		if err != nil {
			return fmt.Errorf("failed to parse import time: %w", err)
		}

		info.ImportedAt = t

		return nil
	})

	return info, err
}
