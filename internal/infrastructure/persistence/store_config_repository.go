package persistence

import (
	"context"
	"errors"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shipping"
	"github.com/storefront/backend/internal/domain/tax"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormQuoteMethodRepository implements shipping.QuoteMethodRepository using GORM
type GormQuoteMethodRepository struct {
	db *gorm.DB
}

// NewGormQuoteMethodRepository creates a new GormQuoteMethodRepository
func NewGormQuoteMethodRepository(db *gorm.DB) *GormQuoteMethodRepository {
	return &GormQuoteMethodRepository{db: db}
}

func (r *GormQuoteMethodRepository) find(ctx context.Context, enabledOnly bool) ([]shipping.QuoteMethod, error) {
	var rows []models.QuoteMethodModel
	query := r.db.WithContext(ctx).Order("weight ASC, id ASC")
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	methods := make([]shipping.QuoteMethod, len(rows))
	for i := range rows {
		methods[i] = *rows[i].ToDomain()
	}
	return methods, nil
}

// FindAll returns every quote method ordered by weight
func (r *GormQuoteMethodRepository) FindAll(ctx context.Context) ([]shipping.QuoteMethod, error) {
	return r.find(ctx, false)
}

// FindEnabled returns enabled quote methods ordered by weight
func (r *GormQuoteMethodRepository) FindEnabled(ctx context.Context) ([]shipping.QuoteMethod, error) {
	return r.find(ctx, true)
}

// FindByID finds a quote method
func (r *GormQuoteMethodRepository) FindByID(ctx context.Context, id string) (*shipping.QuoteMethod, error) {
	var model models.QuoteMethodModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a quote method
func (r *GormQuoteMethodRepository) Save(ctx context.Context, m *shipping.QuoteMethod) error {
	return r.db.WithContext(ctx).Save(models.QuoteMethodModelFromDomain(m)).Error
}

// Delete removes a quote method
func (r *GormQuoteMethodRepository) Delete(ctx context.Context, id string) error {
	return deleteByStringID(ctx, r.db, &models.QuoteMethodModel{}, id)
}

// GormTaxRateRepository implements tax.RateRepository using GORM
type GormTaxRateRepository struct {
	db *gorm.DB
}

// NewGormTaxRateRepository creates a new GormTaxRateRepository
func NewGormTaxRateRepository(db *gorm.DB) *GormTaxRateRepository {
	return &GormTaxRateRepository{db: db}
}

func (r *GormTaxRateRepository) find(ctx context.Context, enabledOnly bool) ([]tax.Rate, error) {
	var rows []models.TaxRateModel
	query := r.db.WithContext(ctx).Order("weight ASC, id ASC")
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	rates := make([]tax.Rate, len(rows))
	for i := range rows {
		rates[i] = *rows[i].ToDomain()
	}
	return rates, nil
}

// FindAll returns every tax rate ordered by weight
func (r *GormTaxRateRepository) FindAll(ctx context.Context) ([]tax.Rate, error) {
	return r.find(ctx, false)
}

// FindEnabled returns enabled tax rates ordered by weight
func (r *GormTaxRateRepository) FindEnabled(ctx context.Context) ([]tax.Rate, error) {
	return r.find(ctx, true)
}

// FindByID finds a tax rate
func (r *GormTaxRateRepository) FindByID(ctx context.Context, id string) (*tax.Rate, error) {
	var model models.TaxRateModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByID checks if a tax rate exists
func (r *GormTaxRateRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.TaxRateModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a tax rate
func (r *GormTaxRateRepository) Save(ctx context.Context, rate *tax.Rate) error {
	return r.db.WithContext(ctx).Save(models.TaxRateModelFromDomain(rate)).Error
}

// Delete removes a tax rate
func (r *GormTaxRateRepository) Delete(ctx context.Context, id string) error {
	return deleteByStringID(ctx, r.db, &models.TaxRateModel{}, id)
}

func deleteByStringID(ctx context.Context, db *gorm.DB, model any, id string) error {
	result := db.WithContext(ctx).Delete(model, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure the repositories implement the domain interfaces
var (
	_ shipping.QuoteMethodRepository = (*GormQuoteMethodRepository)(nil)
	_ tax.RateRepository             = (*GormTaxRateRepository)(nil)
)
