package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/application/report"
	"github.com/storefront/backend/internal/domain/shared"
)

const defaultCSVPrefix = "store:report:csv:"

// RedisCSVStore keeps generated report CSV files in Redis until they expire
type RedisCSVStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCSVStore creates a CSV store on an existing client
func NewRedisCSVStore(client *redis.Client, keyPrefix string) *RedisCSVStore {
	if keyPrefix == "" {
		keyPrefix = defaultCSVPrefix
	}
	return &RedisCSVStore{client: client, keyPrefix: keyPrefix}
}

// Set stores data under key for ttl
func (s *RedisCSVStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("store csv %s: %w", key, err)
	}
	return nil
}

// Get returns the stored file, or shared.ErrNotFound once it expired
func (s *RedisCSVStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load csv %s: %w", key, err)
	}
	return data, nil
}

var _ report.CSVStore = (*RedisCSVStore)(nil)
