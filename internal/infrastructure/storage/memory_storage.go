package storage

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	reportapp "github.com/storefront/backend/internal/application/report"
)

var _ reportapp.ArchiveStorage = (*MemoryObjectStorage)(nil)

// MemoryObjectStorage keeps archives in process memory. Download URLs point
// at BaseURL and are not served by anything; it exists for local runs and
// tests.
type MemoryObjectStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryObjectStorage creates an empty in-memory archive
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string]memoryObject),
	}
}

// Upload stores a copy of data under storageKey
func (s *MemoryObjectStorage) Upload(_ context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// GenerateDownloadURL returns a fake signed URL for storageKey
func (s *MemoryObjectStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/download/" + storageKey + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339)), expiresAt, nil
}

// ObjectExists reports whether storageKey was uploaded
func (s *MemoryObjectStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}

// Object returns the stored bytes and content type
func (s *MemoryObjectStorage) Object(storageKey string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[storageKey]
	if !ok {
		return nil, "", false
	}
	return append([]byte(nil), obj.data...), obj.contentType, true
}
