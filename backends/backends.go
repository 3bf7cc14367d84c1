// Package backends creates call cache storage backends.
package backends

import (
	"errors"

	"github.com/ForrestTrepte/SoCloverAI/backends/bolt"
	"github.com/ForrestTrepte/SoCloverAI/backends/file"
	"github.com/ForrestTrepte/SoCloverAI/backends/inmemory"
	"github.com/ForrestTrepte/SoCloverAI/backends/remote"
	"github.com/ForrestTrepte/SoCloverAI/types"
)

var ErrUnsupportedBackend = errors.New("unsupported backend type")

// NewBackend creates a new cache backend of the specified type
func NewBackend(backendType types.BackendType, config types.BackendConfig) (types.CacheBackend, error) {
	switch backendType {
	case types.BackendFile:
		return NewFileBackend(config)
	case types.BackendBolt:
		return NewBoltBackend(config)
	case types.BackendRedis:
		return NewRedisBackend(config)
	case types.BackendMemory:
		return NewMemoryBackend(config)
	default:
		return nil, ErrUnsupportedBackend
	}
}

// NewFileBackend creates a JSON file backend
func NewFileBackend(config types.BackendConfig) (types.CacheBackend, error) {
	return file.NewFileBackend(config)
}

// NewBoltBackend creates a BoltDB backend
func NewBoltBackend(config types.BackendConfig) (types.CacheBackend, error) {
	return bolt.NewBoltBackend(config)
}

// NewRedisBackend creates a new Redis backend
func NewRedisBackend(config types.BackendConfig) (types.CacheBackend, error) {
	return remote.NewRedisBackend(config)
}

// NewMemoryBackend creates a non-persistent backend
func NewMemoryBackend(config types.BackendConfig) (types.CacheBackend, error) {
	return inmemory.NewMemoryBackend(config)
}
