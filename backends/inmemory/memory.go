package inmemory

import (
	"context"
	"sync"

	"github.com/ForrestTrepte/SoCloverAI/types"
)

// MemoryBackend implements CacheBackend with a map and no persistence.
// Entries live for the lifetime of the process and are never evicted.
type MemoryBackend struct {
	mu      *sync.RWMutex
	entries map[string][]string
}

// NewMemoryBackend creates a new in-memory backend
func NewMemoryBackend(config types.BackendConfig) (*MemoryBackend, error) {
	return &MemoryBackend{
		mu:      &sync.RWMutex{},
		entries: make(map[string][]string),
	}, nil
}

// Set stores a copy of responses under key
func (b *MemoryBackend) Set(ctx context.Context, key string, responses []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[key] = append([]string(nil), responses...)
	return nil
}

// Get retrieves a copy of the responses stored under key
func (b *MemoryBackend) Get(ctx context.Context, key string) ([]string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	responses, ok := b.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]string(nil), responses...), true, nil
}

// Len returns the number of entries
func (b *MemoryBackend) Len(ctx context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.entries), nil
}

// Close is a no-op for in-memory storage
func (b *MemoryBackend) Close() error {
	return nil
}
