package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teeDetails() Details {
	return Details{
		SKU:          " TEE-BLK-M ",
		Title:        "Black tee",
		ProductClass: "apparel",
		Price:        decimal.RequireFromString("19.99"),
		Cost:         decimal.RequireFromString("7.50"),
		Weight:       decimal.RequireFromString("0.4"),
		WeightUnit:   "KG",
		Shippable:    true,
	}
}

func TestNewProduct(t *testing.T) {
	t.Run("valid product", func(t *testing.T) {
		p, err := NewProduct(teeDetails())
		require.NoError(t, err)

		assert.Equal(t, "TEE-BLK-M", p.SKU)
		assert.Equal(t, "kg", p.WeightUnit)
		assert.True(t, p.Active)
		assert.True(t, p.Shippable)
		assert.Equal(t, 1, p.Version)
		require.Len(t, p.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeProductCreated, p.GetDomainEvents()[0].EventType())
	})

	t.Run("weight unit defaults to lb", func(t *testing.T) {
		d := teeDetails()
		d.WeightUnit = ""
		p, err := NewProduct(d)
		require.NoError(t, err)
		assert.Equal(t, "lb", p.WeightUnit)
	})

	tests := []struct {
		name   string
		mutate func(*Details)
		code   string
	}{
		{"empty sku", func(d *Details) { d.SKU = "  " }, "INVALID_SKU"},
		{"empty title", func(d *Details) { d.Title = "" }, "INVALID_TITLE"},
		{"negative price", func(d *Details) { d.Price = decimal.NewFromInt(-1) }, "INVALID_PRICE"},
		{"negative cost", func(d *Details) { d.Cost = decimal.NewFromInt(-1) }, "INVALID_PRICE"},
		{"negative weight", func(d *Details) { d.Weight = decimal.NewFromInt(-1) }, "INVALID_WEIGHT"},
		{"unknown unit", func(d *Details) { d.WeightUnit = "stone" }, "INVALID_WEIGHT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := teeDetails()
			tt.mutate(&d)
			_, err := NewProduct(d)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

func TestProduct_Update(t *testing.T) {
	p, err := NewProduct(teeDetails())
	require.NoError(t, err)
	p.ClearDomainEvents()

	d := teeDetails()
	d.Price = decimal.RequireFromString("24.99")
	d.Shippable = false
	require.NoError(t, p.Update(d))

	assert.True(t, p.Price.Equal(decimal.RequireFromString("24.99")))
	assert.False(t, p.Shippable)
	require.Len(t, p.GetDomainEvents(), 1)
	updated := p.GetDomainEvents()[0].(*ProductUpdatedEvent)
	assert.True(t, updated.PriceChanged())
	assert.True(t, updated.OldPrice.Equal(decimal.RequireFromString("19.99")))

	t.Run("invalid details leave the product unchanged", func(t *testing.T) {
		bad := teeDetails()
		bad.Title = ""
		require.Error(t, p.Update(bad))
		assert.Equal(t, "Black tee", p.Title)
		assert.True(t, p.Price.Equal(decimal.RequireFromString("24.99")))
	})
}

func TestProduct_Availability(t *testing.T) {
	p, err := NewProduct(teeDetails())
	require.NoError(t, err)
	p.ClearDomainEvents()
	require.NoError(t, p.CheckOrderable())

	p.SetActive(false)
	assert.False(t, p.Active)
	assert.Len(t, p.GetDomainEvents(), 1)
	err = p.CheckOrderable()
	assert.ErrorIs(t, err, shared.NewDomainError("PRODUCT_UNAVAILABLE", ""))
	assert.EqualError(t, err, "Black tee is not available.")

	p.SetActive(false)
	assert.Len(t, p.GetDomainEvents(), 1, "no event when nothing changes")

	p.MarkDeleted()
	assert.Equal(t, EventTypeProductDeleted, p.GetDomainEvents()[1].EventType())
}
