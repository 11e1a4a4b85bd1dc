package persistence

import (
	"context"
	"errors"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/stock"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockRepository implements stock.Repository using GORM
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// FindBySKU finds the level of a SKU
func (r *GormStockRepository) FindBySKU(ctx context.Context, sku string) (*stock.Level, error) {
	var model models.StockLevelModel
	if err := r.db.WithContext(ctx).First(&model, "sku = ?", sku).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns every stock level with pagination
func (r *GormStockRepository) FindAll(ctx context.Context, filter shared.Filter) ([]stock.Level, error) {
	var rows []models.StockLevelModel
	query := r.db.WithContext(ctx).Model(&models.StockLevelModel{})

	if filter.Search != "" {
		query = query.Where("LOWER(sku) LIKE LOWER(?)", "%"+filter.Search+"%")
	}
	if active, ok := filter.Filters["active"]; ok {
		query = query.Where("active = ?", active)
	}

	query = query.Order(stockSort.clause(filter))

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	levels := make([]stock.Level, len(rows))
	for i := range rows {
		levels[i] = *rows[i].ToDomain()
	}
	return levels, nil
}

// Save creates or updates a stock level
func (r *GormStockRepository) Save(ctx context.Context, l *stock.Level) error {
	return r.db.WithContext(ctx).Save(models.StockLevelModelFromDomain(l)).Error
}

// DecrementWithLock locks the SKU row, applies the decrement and stores
// the result. Pending threshold events stay on the returned level.
func (r *GormStockRepository) DecrementWithLock(ctx context.Context, sku string, qty int, productTitle string) (*stock.Level, error) {
	var level *stock.Level
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.StockLevelModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, "sku = ?", sku).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		level = model.ToDomain()
		if !level.Decrement(qty, productTitle) {
			return nil
		}
		return tx.Model(&models.StockLevelModel{}).
			Where("sku = ?", sku).
			Updates(map[string]any{
				"stock":      level.Stock,
				"updated_at": level.UpdatedAt,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return level, nil
}

// Ensure GormStockRepository implements stock.Repository
var _ stock.Repository = (*GormStockRepository)(nil)
