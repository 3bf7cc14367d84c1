// Package bolt stores the call cache in a bbolt database, one transaction per update.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ForrestTrepte/SoCloverAI/types"
	"go.etcd.io/bbolt"
)

const defaultBucket = "call_cache"

// BoltBackend implements CacheBackend using BoltDB. Unlike the file backend a
// write touches only the changed key, which suits caches with many small
// entries such as per-document embeddings.
type BoltBackend struct {
	db     *bbolt.DB
	bucket []byte
}

// NewBoltBackend opens (creating if needed) the database at config.Path.
// config.Options["bucket"] overrides the bucket name.
func NewBoltBackend(config types.BackendConfig) (*BoltBackend, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("%w: bolt backend requires a path", types.ErrConfiguration)
	}

	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	db, err := bbolt.Open(config.Path, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB at %s: %w", config.Path, err)
	}

	bucket := defaultBucket
	if b, ok := config.Options["bucket"].(string); ok && b != "" {
		bucket = b
	}

	backend := &BoltBackend{db: db, bucket: []byte(bucket)}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(backend.bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return backend, nil
}

// Get retrieves the responses stored under key
func (b *BoltBackend) Get(ctx context.Context, key string) ([]string, bool, error) {
	var responses []string
	found := false

	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(b.bucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &responses)
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return responses, found, nil
}

// Set stores responses under key in a single committed transaction
func (b *BoltBackend) Set(ctx context.Context, key string, responses []string) error {
	if responses == nil {
		responses = []string{}
	}
	data, err := json.Marshal(responses)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(b.bucket).Put([]byte(key), data)
	})
}

// Len returns the number of entries
func (b *BoltBackend) Len(ctx context.Context) (int, error) {
	var n int
	err := b.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(b.bucket).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the database
func (b *BoltBackend) Close() error {
	return b.db.Close()
}
