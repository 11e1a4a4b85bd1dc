package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentMethodRepository implements payment.MethodRepository using GORM
type GormPaymentMethodRepository struct {
	db *gorm.DB
}

// NewGormPaymentMethodRepository creates a new GormPaymentMethodRepository
func NewGormPaymentMethodRepository(db *gorm.DB) *GormPaymentMethodRepository {
	return &GormPaymentMethodRepository{db: db}
}

func (r *GormPaymentMethodRepository) find(ctx context.Context, enabledOnly bool) ([]payment.Method, error) {
	var rows []models.PaymentMethodModel
	query := r.db.WithContext(ctx).Order("weight ASC, id ASC")
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	methods := make([]payment.Method, len(rows))
	for i := range rows {
		methods[i] = *rows[i].ToDomain()
	}
	return methods, nil
}

// FindAll returns every payment method ordered by weight
func (r *GormPaymentMethodRepository) FindAll(ctx context.Context) ([]payment.Method, error) {
	return r.find(ctx, false)
}

// FindEnabled returns enabled payment methods ordered by weight
func (r *GormPaymentMethodRepository) FindEnabled(ctx context.Context) ([]payment.Method, error) {
	return r.find(ctx, true)
}

// FindByID finds a payment method by machine name
func (r *GormPaymentMethodRepository) FindByID(ctx context.Context, id string) (*payment.Method, error) {
	var model models.PaymentMethodModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a payment method
func (r *GormPaymentMethodRepository) Save(ctx context.Context, m *payment.Method) error {
	return r.db.WithContext(ctx).Save(models.PaymentMethodModelFromDomain(m)).Error
}

// Delete removes a payment method
func (r *GormPaymentMethodRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.PaymentMethodModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormReceiptRepository implements payment.ReceiptRepository using GORM
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// FindByID finds a receipt
func (r *GormReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Receipt, error) {
	var model models.PaymentReceiptModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrder returns the receipts of an order, oldest first
func (r *GormReceiptRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]payment.Receipt, error) {
	var rows []models.PaymentReceiptModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("received_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	receipts := make([]payment.Receipt, len(rows))
	for i := range rows {
		receipts[i] = *rows[i].ToDomain()
	}
	return receipts, nil
}

// Save creates or updates a receipt
func (r *GormReceiptRepository) Save(ctx context.Context, receipt *payment.Receipt) error {
	return r.db.WithContext(ctx).Save(models.PaymentReceiptModelFromDomain(receipt)).Error
}

// Delete removes a receipt
func (r *GormReceiptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PaymentReceiptModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByOrder removes every receipt of an order
func (r *GormReceiptRepository) DeleteByOrder(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.PaymentReceiptModel{}).Error
}

// Ensure the repositories implement the payment interfaces
var (
	_ payment.MethodRepository  = (*GormPaymentMethodRepository)(nil)
	_ payment.ReceiptRepository = (*GormReceiptRepository)(nil)
)
