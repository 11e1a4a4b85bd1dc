package persistence

import (
	"testing"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestSortSpecClause(t *testing.T) {
	tests := []struct {
		name   string
		spec   sortSpec
		filter shared.Filter
		want   string
	}{
		{"order default", orderSort, shared.Filter{}, "created_at DESC"},
		{"order by total ascending", orderSort, shared.Filter{OrderBy: "order_total", OrderDir: "asc"}, "order_total ASC"},
		{"padded field and direction", orderSort, shared.Filter{OrderBy: "  order_number ", OrderDir: " Desc "}, "order_number DESC"},
		{"unknown field falls back", orderSort, shared.Filter{OrderBy: "password"}, "created_at DESC"},
		{"field is case sensitive", orderSort, shared.Filter{OrderBy: "ORDER_TOTAL"}, "created_at DESC"},
		{"stock defaults ascending", stockSort, shared.Filter{}, "sku ASC"},
		{"stock explicit direction wins", stockSort, shared.Filter{OrderBy: "stock", OrderDir: "desc"}, "stock DESC"},
		{"customer report average", customerReportSort, shared.Filter{OrderBy: "average"}, "SUM(o.order_total) / COUNT(*) DESC"},
		{"customer report name sorts by username", customerReportSort, shared.Filter{OrderBy: "name", OrderDir: "asc"}, "username ASC"},
		{"product report default", productReportSort, shared.Filter{OrderBy: "sku"}, "sold DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.spec.clause(tt.filter))
		})
	}
}

func TestSortSpecRejectsInjection(t *testing.T) {
	payloads := []string{
		"id; DROP TABLE orders;--",
		"id' OR '1'='1",
		"id UNION SELECT * FROM orders",
		"id, (SELECT data FROM payment_methods)",
		"CASE WHEN 1=1 THEN id ELSE sku END",
		"id\n; DROP TABLE orders",
	}
	for _, p := range payloads {
		assert.Equal(t, "created_at DESC", orderSort.clause(shared.Filter{OrderBy: p}), p)
		assert.Equal(t, "sku ASC", stockSort.clause(shared.Filter{OrderDir: p}), p)
	}
}
