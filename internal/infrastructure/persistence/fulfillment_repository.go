package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPackageRepository implements fulfillment.PackageRepository using GORM
type GormPackageRepository struct {
	db *gorm.DB
}

// NewGormPackageRepository creates a new GormPackageRepository
func NewGormPackageRepository(db *gorm.DB) *GormPackageRepository {
	return &GormPackageRepository{db: db}
}

// FindByID finds a package
func (r *GormPackageRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Package, error) {
	var model models.PackageModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormPackageRepository) findWhere(ctx context.Context, query string, args ...any) ([]fulfillment.Package, error) {
	var rows []models.PackageModel
	if err := r.db.WithContext(ctx).Where(query, args...).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	packages := make([]fulfillment.Package, len(rows))
	for i := range rows {
		packages[i] = *rows[i].ToDomain()
	}
	return packages, nil
}

// FindByOrder returns the packages of an order, oldest first
func (r *GormPackageRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.Package, error) {
	return r.findWhere(ctx, "order_id = ?", orderID)
}

// FindByShipment returns the packages of a shipment
func (r *GormPackageRepository) FindByShipment(ctx context.Context, shipmentID uuid.UUID) ([]fulfillment.Package, error) {
	return r.findWhere(ctx, "shipment_id = ?", shipmentID)
}

// Save creates or updates a package
func (r *GormPackageRepository) Save(ctx context.Context, p *fulfillment.Package) error {
	return r.db.WithContext(ctx).Save(models.PackageModelFromDomain(p)).Error
}

// Delete removes a package
func (r *GormPackageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PackageModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByOrder removes every package of an order
func (r *GormPackageRepository) DeleteByOrder(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.PackageModel{}).Error
}

// GormShipmentRepository implements fulfillment.ShipmentRepository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// FindByID finds a shipment
func (r *GormShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Shipment, error) {
	var model models.ShipmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrder returns the shipments of an order, oldest first
func (r *GormShipmentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.Shipment, error) {
	var rows []models.ShipmentModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	shipments := make([]fulfillment.Shipment, len(rows))
	for i := range rows {
		shipments[i] = *rows[i].ToDomain()
	}
	return shipments, nil
}

// Save creates or updates a shipment
func (r *GormShipmentRepository) Save(ctx context.Context, s *fulfillment.Shipment) error {
	return r.db.WithContext(ctx).Save(models.ShipmentModelFromDomain(s)).Error
}

// Delete removes a shipment
func (r *GormShipmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ShipmentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByOrder removes every shipment of an order
func (r *GormShipmentRepository) DeleteByOrder(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.ShipmentModel{}).Error
}

// Ensure the repositories implement the fulfillment interfaces
var (
	_ fulfillment.PackageRepository  = (*GormPackageRepository)(nil)
	_ fulfillment.ShipmentRepository = (*GormShipmentRepository)(nil)
)
