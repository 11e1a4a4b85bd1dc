package cache

import (
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/application/report"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// StoreFactory builds the Redis backed stores of the server, falling back to
// in-memory implementations when Redis is unavailable
type StoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool

	once     sync.Once
	client   *redis.Client
	dialErr  error
	dialFunc func(config.RedisConfig) (*redis.Client, error)
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether in-memory stores replace Redis when
// it cannot be reached. Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		dialFunc:              NewRedisClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// redisClient dials once and shares the client between stores
func (f *StoreFactory) redisClient() (*redis.Client, error) {
	f.once.Do(func() {
		f.client, f.dialErr = f.dialFunc(f.redisConfig)
	})
	return f.client, f.dialErr
}

func (f *StoreFactory) fallback(kind string, err error) error {
	if !f.allowInMemoryFallback {
		return fmt.Errorf("redis required for %s but unavailable: %w", kind, err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory "+kind,
		zap.Error(err),
	)
	return nil
}

// CreateIdempotencyStore returns the store used to deduplicate event handling.
// The in-memory store does not share state across instances.
func (f *StoreFactory) CreateIdempotencyStore() (shared.IdempotencyStore, error) {
	client, err := f.redisClient()
	if err == nil {
		f.logger.Info("using Redis idempotency store")
		return NewRedisIdempotencyStore(client, ""), nil
	}
	if ferr := f.fallback("idempotency store", err); ferr != nil {
		return nil, ferr
	}
	return NewInMemoryIdempotencyStore(), nil
}

// CreateCSVStore returns the store holding generated report CSV files
func (f *StoreFactory) CreateCSVStore() (report.CSVStore, error) {
	client, err := f.redisClient()
	if err == nil {
		f.logger.Info("using Redis report CSV store")
		return NewRedisCSVStore(client, ""), nil
	}
	if ferr := f.fallback("report CSV store", err); ferr != nil {
		return nil, ferr
	}
	return NewInMemoryCSVStore(), nil
}

// CreateTokenBlacklist returns the store of revoked access tokens
func (f *StoreFactory) CreateTokenBlacklist() (auth.TokenBlacklist, error) {
	client, err := f.redisClient()
	if err == nil {
		f.logger.Info("using Redis token blacklist")
		return auth.NewRedisTokenBlacklist(client, ""), nil
	}
	if ferr := f.fallback("token blacklist", err); ferr != nil {
		return nil, ferr
	}
	return auth.NewInMemoryTokenBlacklist(), nil
}

// Close closes the shared Redis client, if one was opened
func (f *StoreFactory) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
