package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// EncodeCSV renders rows with every field quoted and inner quotes doubled.
// Each row ends with a newline.
func EncodeCSV(rows [][]string) []byte {
	var b strings.Builder
	for _, row := range rows {
		for i, field := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(field, `"`, `""`))
			b.WriteByte('"')
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

// CustomersCSV returns the CSV rows of the customer report
func CustomersCSV(rows []CustomerRow) [][]string {
	out := [][]string{{"#", "Customer", "Username", "Orders", "Products", "Total", "Average"}}
	for _, r := range rows {
		out = append(out, []string{
			strconv.Itoa(r.Rank), r.Name, r.Username, itoa(r.Orders), itoa(r.Products), money(r.Total), money(r.Average()),
		})
	}
	return out
}

// ProductsCSV returns the CSV rows of the product report, SKU breakdowns
// indented under their product
func ProductsCSV(rows []ProductRow) [][]string {
	out := [][]string{{"#", "Product", "Sold", "Revenue", "Gross"}}
	for _, r := range rows {
		out = append(out, []string{strconv.Itoa(r.Rank), r.Title, itoa(r.Sold), money(r.Revenue), money(r.Gross)})
		if len(r.Breakdown) < 2 {
			continue
		}
		for _, s := range r.Breakdown {
			out = append(out, []string{"", "     " + s.SKU, itoa(s.Sold), money(s.Revenue), money(s.Gross)})
		}
	}
	return out
}

// SummaryCSV returns the CSV rows of the sales summary
func SummaryCSV(s *Summary) [][]string {
	out := [][]string{{"Sales data", "Number of orders", "Total revenue", "Average order"}}
	for _, p := range []PeriodSales{s.Today, s.Yesterday, s.MonthToDate} {
		out = append(out, []string{p.Label, itoa(p.Orders), money(p.Revenue), money(p.Average)})
	}
	out = append(out,
		[]string{s.DailyAverage.Label, s.DailyAverage.Orders.String(), money(s.DailyAverage.Revenue), ""},
		[]string{s.Projected.Label, s.Projected.Orders.String(), money(s.Projected.Revenue), ""},
		[]string{"Grand total sales", money(s.GrandTotal)},
		[]string{"Customers total", itoa(s.CustomersTotal)},
		[]string{"New customers today", itoa(s.NewCustomersToday)},
	)
	for _, c := range s.OrdersByStatus {
		out = append(out, []string{c.Title, itoa(c.Count)})
	}
	return out
}

// YearlyCSV returns the CSV rows of the yearly report
func YearlyCSV(y *Yearly) [][]string {
	out := [][]string{{"Month", "Number of orders", "Total revenue", "Average order"}}
	for _, m := range append(append([]YearlyRow(nil), y.Months...), y.Total) {
		out = append(out, []string{m.Label, itoa(m.Orders), money(m.Revenue), money(m.Average)})
	}
	return out
}

// CustomCSV returns the CSV rows of the custom report. Multi-value cells are
// newline separated.
func CustomCSV(c *Custom) [][]string {
	out := [][]string{{"Date", "Number of orders", "Products sold", "Total revenue"}}
	for _, r := range c.Rows {
		statuses := make([]string, 0, len(r.Statuses))
		for _, s := range r.Statuses {
			statuses = append(statuses, fmt.Sprintf("%d - %s", s.Count, s.Title))
		}
		orders := strings.Join(statuses, "\n")
		if orders == "" {
			orders = "0"
		}

		products := itoa(r.ProductsSold)
		if c.Params.Detail {
			lines := make([]string, 0, len(r.Products))
			for _, p := range r.Products {
				lines = append(lines, fmt.Sprintf("%d x %s", p.Qty, p.Title))
			}
			products = strings.Join(lines, "\n")
			if products == "" {
				products = "0"
			}
		}
		out = append(out, []string{r.Label, orders, products, money(r.Revenue)})
	}
	out = append(out, []string{"Total", itoa(c.Total.Orders), itoa(c.Total.ProductsSold), money(c.Total.Revenue)})
	return out
}
