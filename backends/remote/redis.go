package remote

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ForrestTrepte/SoCloverAI/types"
	"github.com/redis/go-redis/v9"
)

// RedisBackend implements CacheBackend using Redis string keys holding a JSON
// array of responses. Keys are stored without expiry so the cache never evicts
// on its own; Redis durability settings (AOF/RDB) govern persistence.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// parseRedisURL parses a Redis URL and returns redis.Options
func parseRedisURL(connectionString string) (*redis.Options, error) {
	// Handle redis:// or rediss:// URLs
	if strings.HasPrefix(connectionString, "redis://") || strings.HasPrefix(connectionString, "rediss://") {
		parsedURL, err := url.Parse(connectionString)
		if err != nil {
			return nil, fmt.Errorf("invalid Redis URL: %w", err)
		}

		opts := &redis.Options{
			Addr: parsedURL.Host,
		}

		if parsedURL.Scheme == "rediss" {
			opts.TLSConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
		}

		if parsedURL.User != nil {
			opts.Username = parsedURL.User.Username()
			if password, ok := parsedURL.User.Password(); ok {
				opts.Password = password
			}
		}

		// Database number from path
		if parsedURL.Path != "" && parsedURL.Path != "/" {
			dbStr := strings.TrimPrefix(parsedURL.Path, "/")
			db, err := strconv.Atoi(dbStr)
			if err != nil {
				return nil, fmt.Errorf("invalid Redis database %q: %w", dbStr, err)
			}
			opts.DB = db
		}

		return opts, nil
	}

	// For simple address format (host:port), return minimal options
	return &redis.Options{
		Addr: connectionString,
	}, nil
}

// NewRedisBackend creates a new Redis backend and verifies the connection.
func NewRedisBackend(config types.BackendConfig) (*RedisBackend, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("%w: redis backend requires a connection string", types.ErrConfiguration)
	}
	opts, err := parseRedisURL(config.ConnectionString)
	if err != nil {
		return nil, err
	}

	// Override with explicit config values if provided
	if config.Username != "" {
		opts.Username = config.Username
	}
	if config.Password != "" {
		opts.Password = config.Password
	}
	if config.Database != 0 {
		opts.DB = config.Database
	}

	client := redis.NewClient(opts)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := "soclover:"
	if p, ok := config.Options["prefix"].(string); ok && p != "" {
		prefix = p
	}

	return &RedisBackend{
		client: client,
		prefix: prefix,
	}, nil
}

// keyString converts a cache key to a Redis key string
func (b *RedisBackend) keyString(key string) string {
	return b.prefix + key
}

// Get retrieves the responses stored under key
func (b *RedisBackend) Get(ctx context.Context, key string) ([]string, bool, error) {
	data, err := b.client.Get(ctx, b.keyString(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get entry from Redis: %w", err)
	}

	var responses []string
	if err := json.Unmarshal(data, &responses); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return responses, true, nil
}

// Set stores responses under key without expiry
func (b *RedisBackend) Set(ctx context.Context, key string, responses []string) error {
	if responses == nil {
		responses = []string{}
	}
	data, err := json.Marshal(responses)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	if err := b.client.Set(ctx, b.keyString(key), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set entry in Redis: %w", err)
	}
	return nil
}

// Len returns the number of entries in Redis with our prefix
func (b *RedisBackend) Len(ctx context.Context) (int, error) {
	pattern := b.prefix + "*"
	var count int
	var cursor uint64

	for {
		result, nextCursor, err := b.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to count keys in Redis: %w", err)
		}

		count += len(result)
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return count, nil
}

// Close closes the Redis connection
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
