// Package callcache memoizes expensive external calls (generation and
// embedding) keyed by trial, request fingerprint and target configuration.
package callcache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ForrestTrepte/SoCloverAI/types"
)

// Cache is the lookup/update contract shared by the store and its wrappers.
type Cache interface {
	// Lookup returns the stored responses for key; found is false on a miss.
	Lookup(ctx context.Context, key Key) ([]string, bool, error)
	// Update stores responses under key, replacing any previous value.
	Update(ctx context.Context, key Key, responses []string) error
}

// Store is the durable call cache. Writes are serialized so the backend sees a
// single writer; the entry set only grows.
type Store struct {
	backend types.CacheBackend
	mu      sync.Mutex
}

// New creates a Store over backend.
func New(backend types.CacheBackend) (*Store, error) {
	if backend == nil {
		return nil, errors.New("backend cannot be nil")
	}
	return &Store{backend: backend}, nil
}

// Lookup returns the responses stored under key. An empty stored sequence is
// reported as a miss.
func (s *Store) Lookup(ctx context.Context, key Key) ([]string, bool, error) {
	if err := key.Validate(); err != nil {
		return nil, false, err
	}
	responses, found, err := s.backend.Get(ctx, key.String())
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup failed: %w", err)
	}
	if !found || len(responses) == 0 {
		return nil, false, nil
	}
	return responses, true, nil
}

// Update stores responses under key and persists before returning.
func (s *Store) Update(ctx context.Context, key Key, responses []string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Set(ctx, key.String(), append([]string(nil), responses...)); err != nil {
		return fmt.Errorf("cache update failed: %w", err)
	}
	return nil
}

// Len returns the number of stored entries.
func (s *Store) Len(ctx context.Context) (int, error) {
	return s.backend.Len(ctx)
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
