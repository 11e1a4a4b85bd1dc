package shipping

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder(t *testing.T) *order.Order {
	o, err := order.NewOrder("ORD-2024-00001", uuid.New(), "USD", order.DefaultStatusCatalog())
	require.NoError(t, err)
	return o
}

func addProduct(t *testing.T, o *order.Order, qty int, shippable bool) {
	p, err := order.NewOrderProduct(uuid.New(), "SKU", "Item", qty, decimal.NewFromInt(10))
	require.NoError(t, err)
	p.Shippable = shippable
	require.NoError(t, o.AddProduct(p))
}

func TestFlatrateQuote(t *testing.T) {
	m, err := NewFlatrateMethod("ground", "Ground", decimal.NewFromInt(5), decimal.RequireFromString("1.5"))
	require.NoError(t, err)
	assert.Equal(t, PluginFlatrate, m.Plugin)
	assert.True(t, m.Enabled)

	o := testOrder(t)
	assert.True(t, m.Quote(o).IsZero())

	addProduct(t, o, 2, true)
	addProduct(t, o, 3, false)
	assert.True(t, m.Quote(o).Equal(decimal.NewFromInt(8)))
}

func TestFlatrateValidation(t *testing.T) {
	_, err := NewFlatrateMethod("Ground!", "Ground", decimal.Zero, decimal.Zero)
	assert.Error(t, err)
	_, err = NewFlatrateMethod("ground", "", decimal.Zero, decimal.Zero)
	assert.Error(t, err)
	_, err = NewFlatrateMethod("ground", "Ground", decimal.NewFromInt(-1), decimal.Zero)
	assert.Error(t, err)

	m, err := NewFlatrateMethod("ground", "Ground", decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	m.Disable()
	assert.False(t, m.Enabled)
	m.Enable()
	assert.True(t, m.Enabled)
	assert.Equal(t, []string{"Ground"}, m.Accessorials())
}

func TestShippingMethodCondition(t *testing.T) {
	cond := ShippingMethodCondition{MethodID: "ground", Accessorials: []string{"Ground"}}

	t.Run("quote method set", func(t *testing.T) {
		o := testOrder(t)
		o.SetQuoteMethod("ground")
		assert.True(t, cond.Evaluate(o))
		o.SetQuoteMethod("air")
		assert.False(t, cond.Evaluate(o))
	})

	t.Run("falls back to shipping line items", func(t *testing.T) {
		o := testOrder(t)
		assert.False(t, cond.Evaluate(o))

		li, err := order.NewLineItem(order.LineItemShipping, "Ground", decimal.NewFromInt(5), 1)
		require.NoError(t, err)
		require.NoError(t, o.AddLineItem(li))
		assert.True(t, cond.Evaluate(o))
	})

	t.Run("non-shipping line items are ignored", func(t *testing.T) {
		o := testOrder(t)
		li, err := order.NewLineItem(order.LineItemGeneric, "Ground", decimal.NewFromInt(5), 1)
		require.NoError(t, err)
		require.NoError(t, o.AddLineItem(li))
		assert.False(t, cond.Evaluate(o))
	})
}
