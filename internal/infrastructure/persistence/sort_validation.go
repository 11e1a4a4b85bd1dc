package persistence

import (
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
)

// sortSpec whitelists the sortable fields of a listing. Each API field maps
// to the SQL expression it orders by; user input never reaches the query.
type sortSpec struct {
	columns      map[string]string
	defaultField string
	// defaultDir applies when the filter names no valid direction
	defaultDir string
}

var orderSort = sortSpec{
	columns: map[string]string{
		"id":            "id",
		"created_at":    "created_at",
		"updated_at":    "updated_at",
		"order_number":  "order_number",
		"primary_email": "primary_email",
		"status_id":     "status_id",
		"order_total":   "order_total",
		"product_count": "product_count",
	},
	defaultField: "created_at",
	defaultDir:   "DESC",
}

var stockSort = sortSpec{
	columns: map[string]string{
		"sku":        "sku",
		"stock":      "stock",
		"threshold":  "threshold",
		"updated_at": "updated_at",
	},
	defaultField: "sku",
	defaultDir:   "ASC",
}

var productSort = sortSpec{
	columns: map[string]string{
		"sku":        "sku",
		"title":      "title",
		"price":      "price",
		"created_at": "created_at",
		"updated_at": "updated_at",
	},
	defaultField: "title",
	defaultDir:   "ASC",
}

var customerReportSort = sortSpec{
	columns: map[string]string{
		"name":     "username",
		"username": "username",
		"orders":   "orders",
		"products": "products",
		"total":    "total",
		"average":  "SUM(o.order_total) / COUNT(*)",
	},
	defaultField: "total",
	defaultDir:   "DESC",
}

var productReportSort = sortSpec{
	columns: map[string]string{
		"title":   "title",
		"sold":    "sold",
		"revenue": "revenue",
		"gross":   "gross",
	},
	defaultField: "sold",
	defaultDir:   "DESC",
}

// clause returns the ORDER BY expression for the filter
func (s sortSpec) clause(filter shared.Filter) string {
	column, ok := s.columns[strings.TrimSpace(filter.OrderBy)]
	if !ok {
		column = s.columns[s.defaultField]
	}
	return column + " " + s.direction(filter.OrderDir)
}

func (s sortSpec) direction(dir string) string {
	switch strings.ToUpper(strings.TrimSpace(dir)) {
	case "ASC":
		return "ASC"
	case "DESC":
		return "DESC"
	}
	if s.defaultDir != "" {
		return s.defaultDir
	}
	return "DESC"
}
