package cache

import (
	"context"
	"time"

	"github.com/storefront/backend/internal/application/report"
	"github.com/storefront/backend/internal/domain/shared"
)

// InMemoryCSVStore keeps report CSV files in process memory. Files are only
// visible to the instance that generated them.
type InMemoryCSVStore struct {
	files *expiringMap[[]byte]
}

// NewInMemoryCSVStore creates a store that sweeps expired files every ten
// minutes
func NewInMemoryCSVStore() *InMemoryCSVStore {
	return &InMemoryCSVStore{files: newExpiringMap[[]byte](10 * time.Minute)}
}

// Set stores a copy of data under key for ttl
func (s *InMemoryCSVStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	s.files.set(key, append([]byte(nil), data...), ttl)
	return nil
}

// Get returns the stored file, or shared.ErrNotFound once it expired
func (s *InMemoryCSVStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := s.files.get(key)
	if !ok {
		return nil, shared.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Close stops the sweep. Safe to call multiple times.
func (s *InMemoryCSVStore) Close() error {
	s.files.close()
	return nil
}

// Size returns the number of stored files, expired ones included
func (s *InMemoryCSVStore) Size() int {
	return s.files.size()
}

var _ report.CSVStore = (*InMemoryCSVStore)(nil)
