package stock

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevel(t *testing.T) {
	l, err := NewLevel(" SKU-1 ", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", l.SKU)
	assert.False(t, l.Active)
	assert.Zero(t, l.Stock)
	assert.Zero(t, l.Threshold)

	_, err = NewLevel("", uuid.New())
	assert.Error(t, err)
}

func TestLevel_Decrement(t *testing.T) {
	t.Run("inactive levels are untouched", func(t *testing.T) {
		l, _ := NewLevel("SKU-1", uuid.New())
		require.NoError(t, l.Set(false, 10, 0))
		assert.False(t, l.Decrement(3, "Widget"))
		assert.Equal(t, 10, l.Stock)
	})

	t.Run("above threshold", func(t *testing.T) {
		l, _ := NewLevel("SKU-1", uuid.New())
		require.NoError(t, l.Set(true, 100, 5))
		assert.True(t, l.Decrement(10, "Widget"))
		assert.Equal(t, 90, l.Stock)
		assert.Empty(t, l.GetDomainEvents())
	})

	t.Run("reaching threshold raises event", func(t *testing.T) {
		l, _ := NewLevel("SKU-1", uuid.New())
		require.NoError(t, l.Set(true, 21, 20))
		require.True(t, l.Decrement(1, "Widget"))

		events := l.GetDomainEvents()
		require.Len(t, events, 1)
		evt := events[0].(*StockThresholdReachedEvent)
		assert.Equal(t, ThresholdSubject, evt.Subject)
		assert.Contains(t, evt.Body, "Widget")
		assert.Contains(t, evt.Body, "SKU-1")
		assert.Contains(t, evt.Body, "has reached 20")

		l.ClearDomainEvents()
		assert.Empty(t, l.GetDomainEvents())
	})

	t.Run("negative threshold rejected", func(t *testing.T) {
		l, _ := NewLevel("SKU-1", uuid.New())
		assert.Error(t, l.Set(true, 1, -1))
	})
}
