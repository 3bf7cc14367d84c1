// Package file stores the call cache as one JSON object rewritten in full on
// every update.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ForrestTrepte/SoCloverAI/types"
)

// FileBackend implements CacheBackend over a JSON file mapping encoded keys
// to response lists. Every Set rewrites the whole file synchronously through
// a temporary file and rename, so a failed or interrupted write leaves the
// previous file intact.
type FileBackend struct {
	mu      sync.RWMutex
	path    string
	entries map[string][]string
}

// NewFileBackend opens the cache file at config.Path. A missing file starts an empty cache.
func NewFileBackend(config types.BackendConfig) (*FileBackend, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("%w: file backend requires a path", types.ErrConfiguration)
	}

	b := &FileBackend{
		path:    config.Path,
		entries: make(map[string][]string),
	}

	data, err := os.ReadFile(config.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return b, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &b.entries); err != nil {
			return nil, fmt.Errorf("failed to parse cache file %s: %w", config.Path, err)
		}
	}
	return b, nil
}

// Get retrieves the responses stored under key
func (b *FileBackend) Get(ctx context.Context, key string) ([]string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	responses, ok := b.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]string(nil), responses...), true, nil
}

// Set stores responses under key and rewrites the file. On a write failure
// the in-memory entry is rolled back so memory and disk agree.
func (b *FileBackend) Set(ctx context.Context, key string, responses []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	previous, existed := b.entries[key]
	b.entries[key] = append([]string(nil), responses...)

	if err := b.persist(); err != nil {
		if existed {
			b.entries[key] = previous
		} else {
			delete(b.entries, key)
		}
		return err
	}
	return nil
}

func (b *FileBackend) persist() error {
	data, err := json.MarshalIndent(b.entries, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}
	if dir := filepath.Dir(b.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

// Len returns the number of entries
func (b *FileBackend) Len(ctx context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.entries), nil
}

// Close is a no-op; every Set has already persisted.
func (b *FileBackend) Close() error {
	return nil
}
