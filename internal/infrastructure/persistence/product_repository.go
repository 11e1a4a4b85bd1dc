package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindBySKU finds a product by its SKU
func (r *GormProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	return r.findOne(ctx, "sku = ?", sku)
}

func (r *GormProductRepository) findOne(ctx context.Context, query string, arg any) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all products matching the filter
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	var rows []models.ProductModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProductModel{}), filter).
		Order(productSort.clause(filter))
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// Count counts products matching the filter
func (r *GormProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProductModel{}), filter).Count(&count).Error
	return count, err
}

func (r *GormProductRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("LOWER(sku) LIKE LOWER(?) OR LOWER(title) LIKE LOWER(?)", like, like)
	}
	if active, ok := filter.Filters[catalog.FilterActive]; ok {
		query = query.Where("active = ?", active)
	}
	if class, ok := filter.Filters[catalog.FilterProductClass]; ok && class != "" {
		query = query.Where("product_class = ?", class)
	}
	return query
}

// ExistsBySKU checks whether a product other than exceptID uses sku
func (r *GormProductRepository) ExistsBySKU(ctx context.Context, sku string, exceptID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("sku = ? AND id <> ?", sku, exceptID).
		Count(&count).Error
	return count > 0, err
}

// Save creates or overwrites a product
func (r *GormProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	return r.db.WithContext(ctx).Save(models.ProductModelFromDomain(p)).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormProductRepository) SaveWithLock(ctx context.Context, p *catalog.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		result := tx.Model(&models.ProductModel{}).
			Where("id = ?", p.ID).
			Select("version").
			Scan(&currentVersion)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		if currentVersion != p.Version {
			return shared.ErrConcurrencyConflict
		}

		model := models.ProductModelFromDomain(p)
		model.Version = currentVersion + 1
		model.UpdatedAt = time.Now()
		update := tx.Model(&models.ProductModel{}).
			Where("id = ? AND version = ?", p.ID, currentVersion).
			Updates(map[string]any{
				"sku":           model.SKU,
				"title":         model.Title,
				"description":   model.Description,
				"product_class": model.ProductClass,
				"price":         model.Price,
				"cost":          model.Cost,
				"weight":        model.Weight,
				"weight_unit":   model.WeightUnit,
				"shippable":     model.Shippable,
				"active":        model.Active,
				"version":       model.Version,
				"updated_at":    model.UpdatedAt,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		p.Version = model.Version
		p.UpdatedAt = model.UpdatedAt
		return nil
	})
}

// Delete removes a product. Order lines keep their copied details.
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProductModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormProductRepository implements catalog.ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
