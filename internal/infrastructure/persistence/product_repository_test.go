package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogProduct(t *testing.T, sku, title, class string, price int64) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(catalog.Details{
		SKU:          sku,
		Title:        title,
		ProductClass: class,
		Price:        decimal.NewFromInt(price),
		Cost:         decimal.NewFromInt(price / 2),
		Weight:       decimal.RequireFromString("1.5"),
		Shippable:    true,
	})
	require.NoError(t, err)
	return p
}

func TestGormProductRepository(t *testing.T) {
	db := setupStoreTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	tee := newCatalogProduct(t, "TEE-S", "Small tee", "apparel", 20)
	mug := newCatalogProduct(t, "MUG", "Coffee mug", "kitchen", 8)
	poster := newCatalogProduct(t, "POSTER", "Poster", "", 12)
	poster.SetActive(false)
	for _, p := range []*catalog.Product{tee, mug, poster} {
		require.NoError(t, repo.Save(ctx, p))
	}

	t.Run("finds by id and sku", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tee.ID)
		require.NoError(t, err)
		assert.Equal(t, "TEE-S", found.SKU)
		assert.True(t, found.Price.Equal(decimal.NewFromInt(20)))
		assert.True(t, found.Weight.Equal(decimal.RequireFromString("1.5")))
		assert.Equal(t, "lb", found.WeightUnit)
		assert.Equal(t, 1, found.Version)

		found, err = repo.FindBySKU(ctx, "MUG")
		require.NoError(t, err)
		assert.Equal(t, mug.ID, found.ID)

		_, err = repo.FindBySKU(ctx, "NOPE")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("lists with filters and sort", func(t *testing.T) {
		all, err := repo.FindAll(ctx, shared.Filter{OrderBy: "price", OrderDir: "asc"})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"MUG", "POSTER", "TEE-S"}, []string{all[0].SKU, all[1].SKU, all[2].SKU})

		active, err := repo.FindAll(ctx, shared.Filter{Filters: map[string]any{catalog.FilterActive: true}})
		require.NoError(t, err)
		assert.Len(t, active, 2)

		count, err := repo.Count(ctx, shared.Filter{Search: "tee"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		kitchen, err := repo.FindAll(ctx, shared.Filter{Filters: map[string]any{catalog.FilterProductClass: "kitchen"}})
		require.NoError(t, err)
		require.Len(t, kitchen, 1)
		assert.Equal(t, "MUG", kitchen[0].SKU)
	})

	t.Run("sku uniqueness check skips the product itself", func(t *testing.T) {
		exists, err := repo.ExistsBySKU(ctx, "TEE-S", tee.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		exists, err = repo.ExistsBySKU(ctx, "TEE-S", uuid.Nil)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("save with lock bumps the version and rejects stale copies", func(t *testing.T) {
		first, err := repo.FindByID(ctx, mug.ID)
		require.NoError(t, err)
		stale, err := repo.FindByID(ctx, mug.ID)
		require.NoError(t, err)

		d := catalog.Details{SKU: first.SKU, Title: first.Title, Price: decimal.NewFromInt(9), Shippable: true}
		require.NoError(t, first.Update(d))
		require.NoError(t, repo.SaveWithLock(ctx, first))
		assert.Equal(t, 2, first.Version)

		require.NoError(t, stale.Update(d))
		assert.ErrorIs(t, repo.SaveWithLock(ctx, stale), shared.ErrConcurrencyConflict)

		found, err := repo.FindByID(ctx, mug.ID)
		require.NoError(t, err)
		assert.True(t, found.Price.Equal(decimal.NewFromInt(9)))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, poster.ID))
		_, err := repo.FindByID(ctx, poster.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, poster.ID), shared.ErrNotFound)
	})
}
