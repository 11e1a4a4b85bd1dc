package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements order.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) preload(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("weight ASC, created_at ASC") }).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })
}

func (r *GormOrderRepository) findOne(ctx context.Context, includeDeleted bool, query string, args ...any) (*order.Order, error) {
	var model models.OrderModel
	tx := r.preload(r.db.WithContext(ctx)).Where(query, args...)
	if !includeDeleted {
		tx = tx.Where("deleted_at IS NULL")
	}
	if err := tx.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.findOne(ctx, false, "id = ?", id)
}

// FindByIDIncludingDeleted finds an order by ID even if it was soft-deleted
func (r *GormOrderRepository) FindByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.findOne(ctx, true, "id = ?", id)
}

// FindByOrderNumber finds an order by order number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	return r.findOne(ctx, false, "order_number = ?", orderNumber)
}

// FindAll finds all orders with filtering
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	var rows []models.OrderModel
	query := r.applyFilter(r.preload(r.db.WithContext(ctx)).Model(&models.OrderModel{}), filter)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(rows), nil
}

// FindByOwner finds the orders of a customer
func (r *GormOrderRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	var rows []models.OrderModel
	query := r.applyFilter(
		r.preload(r.db.WithContext(ctx)).Model(&models.OrderModel{}).Where("owner_id = ?", ownerID),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(rows), nil
}

// FindStale finds abandoned orders for cleanup
func (r *GormOrderRepository) FindStale(ctx context.Context, statusIDs []string, anonymous bool, before time.Time) ([]order.Order, error) {
	if len(statusIDs) == 0 {
		return nil, nil
	}
	var rows []models.OrderModel
	query := r.db.WithContext(ctx).
		Where("status_id IN ? AND updated_at < ? AND deleted_at IS NULL", statusIDs, before)
	if anonymous {
		query = query.Where("owner_id = ?", uuid.Nil)
	} else {
		query = query.Where("owner_id <> ?", uuid.Nil)
	}
	if err := query.Order("updated_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(rows), nil
}

// Save creates or updates an order with its products, line items and comments
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.OrderModelFromDomain(o)
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		return r.saveChildren(tx, model)
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		result := tx.Model(&models.OrderModel{}).
			Where("id = ?", o.ID).
			Select("version").
			Scan(&currentVersion)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		if currentVersion != o.Version {
			return shared.ErrConcurrencyConflict
		}

		o.Version++
		o.UpdatedAt = time.Now()
		model := models.OrderModelFromDomain(o)

		update := tx.Model(&models.OrderModel{}).
			Where("id = ? AND version = ?", o.ID, currentVersion).
			Updates(map[string]any{
				"primary_email":     model.PrimaryEmail,
				"status_id":         model.StatusID,
				"owner_id":          model.OwnerID,
				"currency":          model.Currency,
				"subtotal":          model.Subtotal,
				"order_total":       model.OrderTotal,
				"product_count":     model.ProductCount,
				"billing_address":   model.BillingAddress,
				"delivery_address":  model.DeliveryAddress,
				"payment_method_id": model.PaymentMethodID,
				"quote_method_id":   model.QuoteMethodID,
				"credit_txns":       model.CreditTxns,
				"host":              model.Host,
				"deleted_at":        model.DeletedAt,
				"version":           model.Version,
				"updated_at":        model.UpdatedAt,
			})
		if update.Error != nil {
			o.Version--
			return update.Error
		}
		if update.RowsAffected == 0 {
			o.Version--
			return shared.ErrConcurrencyConflict
		}
		return r.saveChildren(tx, model)
	})
}

// saveChildren replaces products and line items and appends new comments
func (r *GormOrderRepository) saveChildren(tx *gorm.DB, model *models.OrderModel) error {
	productIDs := make([]uuid.UUID, len(model.Products))
	for i := range model.Products {
		productIDs[i] = model.Products[i].ID
	}
	if err := deleteMissing(tx, &models.OrderProductModel{}, model.ID, productIDs); err != nil {
		return err
	}
	for i := range model.Products {
		if err := tx.Save(&model.Products[i]).Error; err != nil {
			return err
		}
	}

	itemIDs := make([]uuid.UUID, len(model.LineItems))
	for i := range model.LineItems {
		itemIDs[i] = model.LineItems[i].ID
	}
	if err := deleteMissing(tx, &models.OrderLineItemModel{}, model.ID, itemIDs); err != nil {
		return err
	}
	for i := range model.LineItems {
		if err := tx.Save(&model.LineItems[i]).Error; err != nil {
			return err
		}
	}

	if len(model.Comments) > 0 {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Comments).Error; err != nil {
			return err
		}
	}
	return nil
}

func deleteMissing(tx *gorm.DB, value any, orderID uuid.UUID, keep []uuid.UUID) error {
	if len(keep) > 0 {
		return tx.Where("order_id = ? AND id NOT IN ?", orderID, keep).Delete(value).Error
	}
	return tx.Where("order_id = ?", orderID).Delete(value).Error
}

// SoftDelete marks an order as deleted
func (r *GormOrderRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]any{"deleted_at": now, "updated_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Purge permanently deletes an order and its products, line items and comments
func (r *GormOrderRepository) Purge(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []any{&models.OrderProductModel{}, &models.OrderLineItemModel{}, &models.OrderCommentModel{}} {
			if err := tx.Where("order_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		result := tx.Delete(&models.OrderModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByOwner counts the live orders of a customer
func (r *GormOrderRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("owner_id = ? AND deleted_at IS NULL", ownerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts orders in a status, including soft-deleted ones
func (r *GormOrderRepository) CountByStatus(ctx context.Context, statusID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("status_id = ?", statusID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByOrderNumber checks if an order number exists
func (r *GormOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateOrderNumber generates a unique order number
// Format: ORD-YYYY-NNNNN (e.g., ORD-2026-00001). The suffix grows past five
// digits, so the highest number is the longest, then the greatest.
func (r *GormOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("ORD-%d-", time.Now().Year())

	var last models.OrderModel
	err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("LENGTH(order_number) DESC").
		Order("order_number DESC").
		Take(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var next int64 = 1
	if err == nil {
		parts := strings.Split(last.OrderNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, scanErr := fmt.Sscanf(parts[2], "%d", &num); scanErr == nil {
				next = num + 1
			}
		}
	}

	for i := 0; i < 100; i++ {
		candidate := fmt.Sprintf("%s%05d", prefix, next)
		exists, err := r.ExistsByOrderNumber(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		next++
	}
	return "", shared.NewDomainError("ORDER_NUMBER_EXHAUSTED", "Could not allocate a unique order number")
}

// applyFilter applies filtering, sorting and pagination
func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	query = query.Order(orderSort.clause(filter))

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	return query
}

// applyFilterWithoutPagination applies search and field filters
func (r *GormOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(primary_email) LIKE ?", pattern, pattern)
	}
	includeDeleted := false
	for key, value := range filter.Filters {
		switch key {
		case order.FilterStatusID:
			query = query.Where("status_id = ?", value)
		case order.FilterOwnerID:
			query = query.Where("owner_id = ?", value)
		case order.FilterIncludeDeleted:
			if b, ok := value.(bool); ok {
				includeDeleted = b
			}
		}
	}
	if !includeDeleted {
		query = query.Where("deleted_at IS NULL")
	}
	return query
}

func toDomainOrders(rows []models.OrderModel) []order.Order {
	orders := make([]order.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders
}

// Ensure GormOrderRepository implements order.OrderRepository
var _ order.OrderRepository = (*GormOrderRepository)(nil)
