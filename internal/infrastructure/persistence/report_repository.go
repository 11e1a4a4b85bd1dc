package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/report"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormReportRepository implements report.Repository with aggregate
// queries over orders and order_products.
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GormReportRepository
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// orders returns a query over live orders limited to the statuses and
// the date range of the filter. Zero bounds are open.
func (r *GormReportRepository) orders(ctx context.Context, f report.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Table("orders AS o").Where("o.deleted_at IS NULL")
	if len(f.Statuses) > 0 {
		query = query.Where("o.status_id IN ?", f.Statuses)
	}
	if !f.Start.IsZero() {
		query = query.Where("o.created_at >= ?", f.Start)
	}
	if !f.End.IsZero() {
		query = query.Where("o.created_at <= ?", f.End)
	}
	return query
}

// products joins the order products of the filtered orders
func (r *GormReportRepository) products(ctx context.Context, f report.Filter) *gorm.DB {
	return r.orders(ctx, f).Joins("JOIN order_products AS op ON op.order_id = o.id")
}

// Sales returns order count and revenue for orders created within [start, end]
func (r *GormReportRepository) Sales(ctx context.Context, f report.Filter) (report.Sales, error) {
	var row struct {
		Orders  int64
		Revenue decimal.Decimal
	}
	err := r.orders(ctx, f).
		Select("COUNT(*) AS orders, COALESCE(SUM(o.order_total), 0) AS revenue").
		Scan(&row).Error
	if err != nil {
		return report.Sales{}, err
	}
	return report.Sales{Orders: row.Orders, Revenue: row.Revenue}, nil
}

// Customers returns per-owner totals. Anonymous orders are skipped.
func (r *GormReportRepository) Customers(ctx context.Context, statuses []string, filter shared.Filter) ([]report.CustomerRow, int64, error) {
	f := report.Filter{Statuses: statuses}

	var total int64
	if err := r.orders(ctx, f).
		Where("o.owner_id <> ?", uuid.Nil).
		Distinct("o.owner_id").
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []struct {
		OwnerID  uuid.UUID
		Username string
		Orders   int64
		Products int64
		Total    decimal.Decimal
	}
	query := r.orders(ctx, f).
		Where("o.owner_id <> ?", uuid.Nil).
		Select("o.owner_id AS owner_id, MAX(o.primary_email) AS username, COUNT(*) AS orders, " +
			"COALESCE(SUM(o.product_count), 0) AS products, COALESCE(SUM(o.order_total), 0) AS total").
		Group("o.owner_id").
		Order(customerReportSort.clause(filter)).
		Order("o.owner_id ASC")
	offset := paginate(filter)
	if offset >= 0 {
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	result := make([]report.CustomerRow, len(rows))
	for i, row := range rows {
		result[i] = report.CustomerRow{
			Rank:     max(offset, 0) + i + 1,
			OwnerID:  row.OwnerID,
			Username: row.Username,
			Orders:   row.Orders,
			Products: row.Products,
			Total:    row.Total,
		}
	}
	return result, total, nil
}

// Products returns per-product totals
func (r *GormReportRepository) Products(ctx context.Context, statuses []string, filter shared.Filter) ([]report.ProductRow, int64, error) {
	f := report.Filter{Statuses: statuses}

	var total int64
	if err := r.products(ctx, f).Distinct("op.product_id").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []struct {
		ProductID uuid.UUID
		Title     string
		Sold      int64
		Revenue   decimal.Decimal
		Gross     decimal.Decimal
	}
	query := r.products(ctx, f).
		Select("op.product_id AS product_id, MAX(op.title) AS title, COALESCE(SUM(op.qty), 0) AS sold, " +
			"COALESCE(SUM(op.price * op.qty), 0) AS revenue, " +
			"COALESCE(SUM(op.price * op.qty - op.cost * op.qty), 0) AS gross").
		Group("op.product_id").
		Order(productReportSort.clause(filter)).
		Order("op.product_id ASC")
	offset := paginate(filter)
	if offset >= 0 {
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	result := make([]report.ProductRow, len(rows))
	for i, row := range rows {
		result[i] = report.ProductRow{
			Rank:      max(offset, 0) + i + 1,
			ProductID: row.ProductID,
			Title:     row.Title,
			Sold:      row.Sold,
			Revenue:   row.Revenue,
			Gross:     row.Gross,
		}
	}
	return result, total, nil
}

// ProductSKUs returns the SKU breakdown of one product
func (r *GormReportRepository) ProductSKUs(ctx context.Context, productID uuid.UUID, statuses []string) ([]report.SKURow, error) {
	var rows []struct {
		SKU     string
		Sold    int64
		Revenue decimal.Decimal
		Gross   decimal.Decimal
	}
	err := r.products(ctx, report.Filter{Statuses: statuses}).
		Where("op.product_id = ?", productID).
		Select("op.sku AS sku, COALESCE(SUM(op.qty), 0) AS sold, " +
			"COALESCE(SUM(op.price * op.qty), 0) AS revenue, " +
			"COALESCE(SUM(op.price * op.qty - op.cost * op.qty), 0) AS gross").
		Group("op.sku").
		Order("op.sku ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]report.SKURow, len(rows))
	for i, row := range rows {
		result[i] = report.SKURow{SKU: row.SKU, Sold: row.Sold, Revenue: row.Revenue, Gross: row.Gross}
	}
	return result, nil
}

// StatusCounts returns order counts grouped by status over all orders
func (r *GormReportRepository) StatusCounts(ctx context.Context) ([]report.StatusCount, error) {
	return r.StatusCountsBetween(ctx, report.Filter{})
}

// StatusCountsBetween returns order counts by status within the filter range
func (r *GormReportRepository) StatusCountsBetween(ctx context.Context, f report.Filter) ([]report.StatusCount, error) {
	var rows []struct {
		StatusID string
		Count    int64
	}
	err := r.orders(ctx, f).
		Select("o.status_id AS status_id, COUNT(*) AS count").
		Group("o.status_id").
		Order("o.status_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]report.StatusCount, len(rows))
	for i, row := range rows {
		result[i] = report.StatusCount{StatusID: row.StatusID, Count: row.Count}
	}
	return result, nil
}

// ProductsSold returns quantities sold per product within the filter range
func (r *GormReportRepository) ProductsSold(ctx context.Context, f report.Filter) ([]report.ProductQty, error) {
	var rows []struct {
		ProductID uuid.UUID
		Title     string
		Qty       int64
	}
	err := r.products(ctx, f).
		Select("op.product_id AS product_id, MAX(op.title) AS title, COALESCE(SUM(op.qty), 0) AS qty").
		Group("op.product_id").
		Order("qty DESC").
		Order("title ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]report.ProductQty, len(rows))
	for i, row := range rows {
		result[i] = report.ProductQty{ProductID: row.ProductID, Title: row.Title, Qty: row.Qty}
	}
	return result, nil
}

// ProductsSoldTotal returns the number of units sold within the filter range
func (r *GormReportRepository) ProductsSoldTotal(ctx context.Context, f report.Filter) (int64, error) {
	var total int64
	err := r.products(ctx, f).Select("COALESCE(SUM(op.qty), 0)").Scan(&total).Error
	return total, err
}

// GrandTotal returns the revenue of all orders in the statuses
func (r *GormReportRepository) GrandTotal(ctx context.Context, statuses []string) (decimal.Decimal, error) {
	sales, err := r.Sales(ctx, report.Filter{Statuses: statuses})
	if err != nil {
		return decimal.Zero, err
	}
	return sales.Revenue, nil
}

// CustomerCount counts distinct owners; a zero range counts over all time
func (r *GormReportRepository) CustomerCount(ctx context.Context, f report.Filter) (int64, error) {
	var count int64
	err := r.orders(ctx, f).
		Where("o.owner_id <> ?", uuid.Nil).
		Distinct("o.owner_id").
		Count(&count).Error
	return count, err
}

// paginate returns the row offset of the filter, or -1 when unpaginated
func paginate(filter shared.Filter) int {
	if filter.Page <= 0 || filter.PageSize <= 0 {
		return -1
	}
	return (filter.Page - 1) * filter.PageSize
}

// Ensure GormReportRepository implements report.Repository
var _ report.Repository = (*GormReportRepository)(nil)
