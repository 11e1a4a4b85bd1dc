package persistence

import (
	"context"
	"errors"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStatusRepository implements order.StatusRepository using GORM
type GormStatusRepository struct {
	db *gorm.DB
}

// NewGormStatusRepository creates a new GormStatusRepository
func NewGormStatusRepository(db *gorm.DB) *GormStatusRepository {
	return &GormStatusRepository{db: db}
}

// FindAll returns every configured status ordered by weight
func (r *GormStatusRepository) FindAll(ctx context.Context) ([]order.Status, error) {
	var rows []models.OrderStatusModel
	if err := r.db.WithContext(ctx).Order("weight ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	statuses := make([]order.Status, len(rows))
	for i := range rows {
		statuses[i] = *rows[i].ToDomain()
	}
	return statuses, nil
}

// FindByID finds a status by machine name
func (r *GormStatusRepository) FindByID(ctx context.Context, id string) (*order.Status, error) {
	var model models.OrderStatusModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a status
func (r *GormStatusRepository) Save(ctx context.Context, s *order.Status) error {
	model := models.OrderStatusModelFromDomain(s)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "state", "weight", "locked", "updated_at"}),
	}).Create(model).Error
}

// Delete removes a status and any state default pointing at it
func (r *GormStatusRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("status_id = ?", id).Delete(&models.OrderStateDefaultModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.OrderStatusModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// StateDefaults returns the configured default status per state
func (r *GormStatusRepository) StateDefaults(ctx context.Context) (map[order.State]string, error) {
	var rows []models.OrderStateDefaultModel
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	defaults := make(map[order.State]string, len(rows))
	for _, row := range rows {
		defaults[order.State(row.State)] = row.StatusID
	}
	return defaults, nil
}

// SetStateDefault configures the default status of a state
func (r *GormStatusRepository) SetStateDefault(ctx context.Context, state order.State, statusID string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state"}},
		DoUpdates: clause.AssignmentColumns([]string{"status_id"}),
	}).Create(&models.OrderStateDefaultModel{State: string(state), StatusID: statusID}).Error
}

// Seed inserts the core statuses when the table is empty
func (r *GormStatusRepository) Seed(ctx context.Context) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OrderStatusModel{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, s := range order.DefaultStatuses() {
		if err := r.Save(ctx, &s); err != nil {
			return err
		}
	}
	return nil
}

// Ensure GormStatusRepository implements order.StatusRepository
var _ order.StatusRepository = (*GormStatusRepository)(nil)
