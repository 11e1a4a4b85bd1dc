package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryObjectStorage()
	key := "reports/uc_sales_summary/2026-06-30.csv"

	exists, err := s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	data := []byte("date,orders\n2026-06-30,4\n")
	require.NoError(t, s.Upload(ctx, key, data, "text/csv"))
	data[0] = 'X'

	exists, err = s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	stored, contentType, ok := s.Object(key)
	require.True(t, ok)
	assert.Equal(t, "text/csv", contentType)
	assert.True(t, strings.HasPrefix(string(stored), "date,orders"))

	url, expiresAt, err := s.GenerateDownloadURL(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://storage.example.com/download/"+key+"?expires="))
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)
}

func TestMemoryObjectStorage_EmptyKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryObjectStorage()

	assert.EqualError(t, s.Upload(ctx, "", nil, "text/csv"), "storage key is required")
	_, err := s.ObjectExists(ctx, "")
	assert.Error(t, err)
	_, _, err = s.GenerateDownloadURL(ctx, "", 0)
	assert.Error(t, err)
}
