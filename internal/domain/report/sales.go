package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// Interval is the length of a custom report sub-period
type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

// IsValid checks the interval
func (i Interval) IsValid() bool {
	switch i {
	case IntervalDay, IntervalWeek, IntervalMonth, IntervalYear:
		return true
	}
	return false
}

// Next returns the start of the following period
func (i Interval) Next(start time.Time) time.Time {
	switch i {
	case IntervalWeek:
		return start.AddDate(0, 0, 7)
	case IntervalMonth:
		return start.AddDate(0, 1, 0)
	case IntervalYear:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// Period is an inclusive time range
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PeriodOf returns the period of one interval length beginning at start
func PeriodOf(start time.Time, i Interval) Period {
	return Period{Start: start, End: i.Next(start).Add(-time.Second)}
}

// SubreportIntervals splits [start, end] into consecutive periods of the
// given interval. The last period is clipped to end.
func SubreportIntervals(start, end time.Time, i Interval) []Period {
	var periods []Period
	for start.Before(end) {
		p := PeriodOf(start, i)
		if p.End.After(end) {
			p.End = end
		}
		periods = append(periods, p)
		start = i.Next(start)
	}
	return periods
}

// StartOfDay truncates t to local midnight
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfMonth returns midnight of the first day of t's month
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// DaysInMonth returns the number of days in t's month
func DaysInMonth(t time.Time) int {
	return StartOfMonth(t).AddDate(0, 1, -1).Day()
}

// PeriodSales labels a sales figure
type PeriodSales struct {
	Label  string `json:"label"`
	Period Period `json:"period"`
	Sales
	Average decimal.Decimal `json:"average"`
}

func newPeriodSales(label string, p Period, s Sales) PeriodSales {
	return PeriodSales{Label: label, Period: p, Sales: s, Average: s.Average()}
}

// Projection is an estimated order count and revenue
type Projection struct {
	Label   string          `json:"label"`
	Orders  decimal.Decimal `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Summary is the sales summary report
type Summary struct {
	Today             PeriodSales     `json:"today"`
	Yesterday         PeriodSales     `json:"yesterday"`
	MonthToDate       PeriodSales     `json:"month_to_date"`
	DailyAverage      Projection      `json:"daily_average"`
	Projected         Projection      `json:"projected"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
	CustomersTotal    int64           `json:"customers_total"`
	NewCustomersToday int64           `json:"new_customers_today"`
	OrdersByStatus    []StatusCount   `json:"orders_by_status"`
}

// SummaryPeriods returns the today, yesterday and month periods for now
func SummaryPeriods(now time.Time) (today, yesterday, month Period) {
	dayStart := StartOfDay(now)
	today = PeriodOf(dayStart, IntervalDay)
	yesterday = PeriodOf(dayStart.AddDate(0, 0, -1), IntervalDay)
	month = PeriodOf(StartOfMonth(now), IntervalMonth)
	return
}

// NewSummary builds the sales summary from the period figures. The daily
// average divides month-to-date figures by the current day of the month and
// the projection extends it over the remaining days.
func NewSummary(now time.Time, today, yesterday, month Sales) *Summary {
	tp, yp, mp := SummaryPeriods(now)
	monthTitle := now.Format("Jan 2006")

	day := decimal.NewFromInt(int64(now.Day()))
	dailyOrders := decimal.NewFromInt(month.Orders).Div(day).Round(2)
	dailyRevenue := month.Revenue.Div(day).Round(2)
	remaining := decimal.NewFromInt(int64(DaysInMonth(now) - now.Day()))

	return &Summary{
		Today:       newPeriodSales("Today, "+tp.Start.Format(time.DateOnly), tp, today),
		Yesterday:   newPeriodSales("Yesterday, "+yp.Start.Format(time.DateOnly), yp, yesterday),
		MonthToDate: newPeriodSales("Month-to-date, "+monthTitle, mp, month),
		DailyAverage: Projection{
			Label:   "Daily average for " + monthTitle,
			Orders:  dailyOrders,
			Revenue: dailyRevenue,
		},
		Projected: Projection{
			Label:   "Projected totals for " + monthTitle,
			Orders:  decimal.NewFromInt(month.Orders).Add(dailyOrders.Mul(remaining)).Round(2),
			Revenue: month.Revenue.Add(dailyRevenue.Mul(remaining)).Round(2),
		},
	}
}

// BucketStatuses resolves status titles from the catalog, sorts known statuses
// by weight descending and folds unknown ones into a trailing "Unknown status" row.
func BucketStatuses(counts []StatusCount, catalog *order.StatusCatalog) []StatusCount {
	known := make([]StatusCount, 0, len(counts))
	var unknown int64
	for _, c := range counts {
		st, ok := catalog.Get(c.StatusID)
		if !ok {
			unknown += c.Count
			continue
		}
		c.Title = st.Name
		c.Weight = st.Weight
		known = append(known, c)
	}
	sort.SliceStable(known, func(i, j int) bool {
		if known[i].Weight != known[j].Weight {
			return known[i].Weight > known[j].Weight
		}
		return known[i].StatusID < known[j].StatusID
	})
	if unknown > 0 {
		known = append(known, StatusCount{Title: UnknownStatusTitle, Count: unknown})
	}
	return known
}

// YearlyRow is one month of the yearly report
type YearlyRow struct {
	Label  string `json:"label"`
	Period Period `json:"period"`
	Sales
	Average decimal.Decimal `json:"average"`
}

// Yearly is the yearly sales report
type Yearly struct {
	Year   int         `json:"year"`
	Months []YearlyRow `json:"months"`
	Total  YearlyRow   `json:"total"`
}

// YearMonths returns the twelve month periods of a year in loc
func YearMonths(year int, loc *time.Location) []Period {
	periods := make([]Period, 0, 12)
	for m := time.January; m <= time.December; m++ {
		periods = append(periods, PeriodOf(time.Date(year, m, 1, 0, 0, 0, 0, loc), IntervalMonth))
	}
	return periods
}

// NewYearly builds the yearly report from twelve monthly figures and the year total
func NewYearly(year int, months []Period, monthly []Sales, total Sales) *Yearly {
	y := &Yearly{Year: year, Months: make([]YearlyRow, 0, len(months))}
	for i, p := range months {
		s := monthly[i]
		y.Months = append(y.Months, YearlyRow{Label: p.Start.Format("Jan 2006"), Period: p, Sales: s, Average: s.Average()})
	}
	if len(months) > 0 {
		y.Total = YearlyRow{
			Label:   "Total " + months[0].Start.Format("2006"),
			Period:  Period{Start: months[0].Start, End: months[len(months)-1].End},
			Sales:   total,
			Average: total.Average(),
		}
	}
	return y
}

// CustomParams configures the custom sales report
type CustomParams struct {
	Start    time.Time
	End      time.Time
	Interval Interval
	Statuses []string
	Detail   bool
}

// Validate checks the custom report parameters
func (p CustomParams) Validate() error {
	if !p.Interval.IsValid() {
		return shared.NewDomainError("INVALID_INTERVAL", "Interval must be one of day, week, month, year")
	}
	if !p.End.After(p.Start) {
		return shared.NewDomainError("INVALID_RANGE", "The end date must be after the start date")
	}
	return nil
}

// DefaultCustomParams covers the first day of the current month one year ago until now
func DefaultCustomParams(now time.Time, statuses []string) CustomParams {
	return CustomParams{
		Start:    StartOfMonth(now).AddDate(-1, 0, 0),
		End:      now,
		Interval: IntervalMonth,
		Statuses: statuses,
	}
}

// CustomRow is one sub-period of the custom report
type CustomRow struct {
	Label        string          `json:"label"`
	Period       Period          `json:"period"`
	Statuses     []StatusCount   `json:"statuses"`
	ProductsSold int64           `json:"products_sold"`
	Products     []ProductQty    `json:"products,omitempty"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// CustomTotal is the totals row of the custom report
type CustomTotal struct {
	Orders       int64           `json:"orders"`
	ProductsSold int64           `json:"products_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// Custom is the custom sales report
type Custom struct {
	Params CustomParams `json:"-"`
	Rows   []CustomRow  `json:"rows"`
	Total  CustomTotal  `json:"total"`
}

// CustomLabel renders the date column of a custom report row
func CustomLabel(p Period, i Interval) string {
	if i == IntervalDay {
		return p.Start.Format(time.DateOnly)
	}
	return p.Start.Format(time.DateOnly) + " - " + p.End.Format(time.DateOnly)
}
