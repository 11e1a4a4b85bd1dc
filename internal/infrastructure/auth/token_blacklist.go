package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist records revoked token ids until the tokens would have
// expired anyway
type TokenBlacklist interface {
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

const defaultBlacklistPrefix = "store:token:blacklist:"

// RedisTokenBlacklist shares revocations between server instances
type RedisTokenBlacklist struct {
	client *redis.Client
	prefix string
}

// NewRedisTokenBlacklist uses an existing client. An empty prefix selects
// the default key prefix.
func NewRedisTokenBlacklist(client *redis.Client, prefix string) *RedisTokenBlacklist {
	if prefix == "" {
		prefix = defaultBlacklistPrefix
	}
	return &RedisTokenBlacklist{client: client, prefix: prefix}
}

// AddToBlacklist stores jti for ttl
func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.prefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

// IsBlacklisted reports whether jti was revoked
func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, b.prefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check token blacklist: %w", err)
	}
	return n > 0, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist is the single-instance blacklist
type InMemoryTokenBlacklist struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewInMemoryTokenBlacklist creates an empty blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

// AddToBlacklist stores jti for ttl and drops entries that already expired
func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for id, exp := range b.expires {
		if !now.Before(exp) {
			delete(b.expires, id)
		}
	}
	b.expires[jti] = now.Add(ttl)
	return nil
}

// IsBlacklisted reports whether jti was revoked and has not expired
func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	exp, ok := b.expires[jti]
	if !ok {
		return false, nil
	}
	if !b.now().Before(exp) {
		delete(b.expires, jti)
		return false, nil
	}
	return true, nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
