package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Report identifiers, used in CSV cache keys and download filenames
const (
	ReportCustomers    = "uc_customers"
	ReportProducts     = "uc_products"
	ReportSalesSummary = "uc_sales_summary"
	ReportSalesYearly  = "uc_sales_yearly"
	ReportSalesCustom  = "uc_sales_custom"
)

// UnknownStatusTitle buckets orders whose status no longer exists
const UnknownStatusTitle = "Unknown status"

// MessageCSVExpired is returned when a cached export is missing or belongs to another user
const MessageCSVExpired = "The CSV data could not be retrieved. It's possible the data might have expired. Refresh the report page and try again."

// IsKnownReport reports whether id names a CSV-producing report
func IsKnownReport(id string) bool {
	switch id {
	case ReportCustomers, ReportProducts, ReportSalesSummary, ReportSalesYearly, ReportSalesCustom:
		return true
	}
	return false
}

// Sales is the order count and revenue of a period
type Sales struct {
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Average returns the revenue per order rounded to cents, zero for no orders
func (s Sales) Average() decimal.Decimal {
	if s.Orders == 0 {
		return decimal.Zero
	}
	return s.Revenue.Div(decimal.NewFromInt(s.Orders)).Round(2)
}

// CustomerRow is one line of the customer report
type CustomerRow struct {
	Rank     int             `json:"rank"`
	OwnerID  uuid.UUID       `json:"owner_id"`
	Name     string          `json:"name"`
	Username string          `json:"username"`
	Orders   int64           `json:"orders"`
	Products int64           `json:"products"`
	Total    decimal.Decimal `json:"total"`
}

// Average returns the order average of the customer
func (r CustomerRow) Average() decimal.Decimal {
	return Sales{Orders: r.Orders, Revenue: r.Total}.Average()
}

// SKURow is the per-SKU breakdown of a product
type SKURow struct {
	SKU     string          `json:"sku"`
	Sold    int64           `json:"sold"`
	Revenue decimal.Decimal `json:"revenue"`
	Gross   decimal.Decimal `json:"gross"`
}

// ProductRow is one line of the product report
type ProductRow struct {
	Rank      int             `json:"rank"`
	ProductID uuid.UUID       `json:"product_id"`
	Title     string          `json:"title"`
	Sold      int64           `json:"sold"`
	Revenue   decimal.Decimal `json:"revenue"`
	Gross     decimal.Decimal `json:"gross"`
	Breakdown []SKURow        `json:"breakdown,omitempty"`
}

// StatusCount is the number of orders in one status
type StatusCount struct {
	StatusID string `json:"status_id"`
	Title    string `json:"title"`
	Weight   int    `json:"-"`
	Count    int64  `json:"count"`
}

// ProductQty is a quantity sold of one product
type ProductQty struct {
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title"`
	Qty       int64     `json:"qty"`
}

// Filter selects the orders a report covers
type Filter struct {
	Statuses []string
	Start    time.Time
	End      time.Time
}

// Repository defines the read-side queries reports are built from
type Repository interface {
	// Sales returns order count and revenue for orders created within [start, end]
	Sales(ctx context.Context, f Filter) (Sales, error)

	// Customers returns per-owner totals ordered by the filter's sort column
	Customers(ctx context.Context, statuses []string, filter shared.Filter) ([]CustomerRow, int64, error)

	// Products returns per-product totals ordered by the filter's sort column
	Products(ctx context.Context, statuses []string, filter shared.Filter) ([]ProductRow, int64, error)

	// ProductSKUs returns the SKU breakdown of one product
	ProductSKUs(ctx context.Context, productID uuid.UUID, statuses []string) ([]SKURow, error)

	// StatusCounts returns order counts grouped by status over all orders
	StatusCounts(ctx context.Context) ([]StatusCount, error)

	// StatusCountsBetween returns order counts by status within the filter range
	StatusCountsBetween(ctx context.Context, f Filter) ([]StatusCount, error)

	// ProductsSold returns quantities sold per product within the filter range
	ProductsSold(ctx context.Context, f Filter) ([]ProductQty, error)

	// ProductsSoldTotal returns the number of units sold within the filter range
	ProductsSoldTotal(ctx context.Context, f Filter) (int64, error)

	// GrandTotal returns the revenue of all orders in the statuses
	GrandTotal(ctx context.Context, statuses []string) (decimal.Decimal, error)

	// CustomerCount counts distinct owners; a zero range counts over all time
	CustomerCount(ctx context.Context, f Filter) (int64, error)
}

// CacheKey returns the cache key of a CSV export
func CacheKey(reportID, userID string) string {
	return fmt.Sprintf("uc_reports_%s_%s", reportID, userID)
}

// ArchiveKey returns the object storage key of an archived export
func ArchiveKey(reportID string, day time.Time) string {
	return fmt.Sprintf("reports/%s/%s.csv", reportID, day.Format(time.DateOnly))
}
