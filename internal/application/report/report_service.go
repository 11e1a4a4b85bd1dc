package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/report"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CSVStore caches generated CSV exports for later download
type CSVStore interface {
	// Set stores data under key for ttl
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Get returns the data under key, or shared.ErrNotFound when missing or expired
	Get(ctx context.Context, key string) ([]byte, error)
}

// ArchiveStorage is the object storage used for archived exports.
// Implemented by the infrastructure layer (S3 or an in-memory stub).
type ArchiveStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// ReportServiceConfig holds configuration for the report service
type ReportServiceConfig struct {
	// Statuses are the order statuses counted as sales
	Statuses []string
	// CSVTTL is how long an export stays downloadable
	CSVTTL time.Duration
	// ArchiveURLExpiry is the lifetime of presigned archive download URLs
	ArchiveURLExpiry time.Duration
}

// DefaultReportServiceConfig returns the default configuration
func DefaultReportServiceConfig() ReportServiceConfig {
	return ReportServiceConfig{
		Statuses:         []string{order.StatusCompleted},
		CSVTTL:           24 * time.Hour,
		ArchiveURLExpiry: 15 * time.Minute,
	}
}

// ReportService builds store reports and their CSV exports
type ReportService struct {
	reportRepo report.Repository
	statusRepo order.StatusRepository
	csvStore   CSVStore
	archive    ArchiveStorage
	config     ReportServiceConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(
	reportRepo report.Repository,
	statusRepo order.StatusRepository,
	csvStore CSVStore,
	config ReportServiceConfig,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultReportServiceConfig()
	if len(config.Statuses) == 0 {
		config.Statuses = defaults.Statuses
	}
	if config.CSVTTL <= 0 {
		config.CSVTTL = defaults.CSVTTL
	}
	if config.ArchiveURLExpiry <= 0 {
		config.ArchiveURLExpiry = defaults.ArchiveURLExpiry
	}
	return &ReportService{
		reportRepo: reportRepo,
		statusRepo: statusRepo,
		csvStore:   csvStore,
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
}

// SetArchiveStorage enables archiving of exports to object storage
func (s *ReportService) SetArchiveStorage(archive ArchiveStorage) {
	s.archive = archive
}

// ArchiveEnabled reports whether an archive storage is configured
func (s *ReportService) ArchiveEnabled() bool {
	return s.archive != nil
}

// ===================== Customers and products =====================

// CustomersResponse is one page of the customer report
type CustomersResponse struct {
	Rows    []report.CustomerRow `json:"rows"`
	Total   int64                `json:"total"`
	CSVPath string               `json:"csv_path,omitempty"`
}

// ProductsResponse is one page of the product report
type ProductsResponse struct {
	Rows    []report.ProductRow `json:"rows"`
	Total   int64               `json:"total"`
	CSVPath string              `json:"csv_path,omitempty"`
}

// Customers returns the customer report page and caches its CSV for the requester
func (s *ReportService) Customers(ctx context.Context, requesterID uuid.UUID, filter shared.Filter) (*CustomersResponse, error) {
	rows, total, err := s.reportRepo.Customers(ctx, s.config.Statuses, filter)
	if err != nil {
		return nil, err
	}
	offset := pageOffset(filter)
	for i := range rows {
		rows[i].Rank = offset + i + 1
		if rows[i].Name == "" {
			rows[i].Name = rows[i].Username
		}
	}
	path, err := s.storeCSV(ctx, report.ReportCustomers, requesterID, report.CustomersCSV(rows))
	if err != nil {
		return nil, err
	}
	return &CustomersResponse{Rows: rows, Total: total, CSVPath: path}, nil
}

// Products returns the product report page with per-SKU breakdowns
func (s *ReportService) Products(ctx context.Context, requesterID uuid.UUID, filter shared.Filter) (*ProductsResponse, error) {
	rows, total, err := s.reportRepo.Products(ctx, s.config.Statuses, filter)
	if err != nil {
		return nil, err
	}
	offset := pageOffset(filter)
	for i := range rows {
		rows[i].Rank = offset + i + 1
		skus, err := s.reportRepo.ProductSKUs(ctx, rows[i].ProductID, s.config.Statuses)
		if err != nil {
			return nil, err
		}
		// a single SKU repeats the product row
		if len(skus) > 1 {
			rows[i].Breakdown = skus
		}
	}
	path, err := s.storeCSV(ctx, report.ReportProducts, requesterID, report.ProductsCSV(rows))
	if err != nil {
		return nil, err
	}
	return &ProductsResponse{Rows: rows, Total: total, CSVPath: path}, nil
}

// ===================== Sales =====================

// SummaryResponse wraps the sales summary
type SummaryResponse struct {
	*report.Summary
	CSVPath string `json:"csv_path,omitempty"`
}

// Summary returns the sales summary for the current day
func (s *ReportService) Summary(ctx context.Context, requesterID uuid.UUID) (*SummaryResponse, error) {
	summary, err := s.buildSummary(ctx, s.now())
	if err != nil {
		return nil, err
	}
	path, err := s.storeCSV(ctx, report.ReportSalesSummary, requesterID, report.SummaryCSV(summary))
	if err != nil {
		return nil, err
	}
	return &SummaryResponse{Summary: summary, CSVPath: path}, nil
}

func (s *ReportService) buildSummary(ctx context.Context, now time.Time) (*report.Summary, error) {
	tp, yp, mp := report.SummaryPeriods(now)
	figures := make([]report.Sales, 0, 3)
	for _, p := range []report.Period{tp, yp, mp} {
		sales, err := s.reportRepo.Sales(ctx, s.filter(p, s.config.Statuses))
		if err != nil {
			return nil, err
		}
		figures = append(figures, sales)
	}
	summary := report.NewSummary(now, figures[0], figures[1], figures[2])

	var err error
	if summary.GrandTotal, err = s.reportRepo.GrandTotal(ctx, s.config.Statuses); err != nil {
		return nil, err
	}
	if summary.CustomersTotal, err = s.reportRepo.CustomerCount(ctx, report.Filter{Statuses: s.config.Statuses}); err != nil {
		return nil, err
	}
	if summary.NewCustomersToday, err = s.reportRepo.CustomerCount(ctx, s.filter(tp, s.config.Statuses)); err != nil {
		return nil, err
	}

	counts, err := s.reportRepo.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	catalog, err := order.LoadCatalog(ctx, s.statusRepo)
	if err != nil {
		return nil, err
	}
	summary.OrdersByStatus = report.BucketStatuses(counts, catalog)
	return summary, nil
}

// YearlyResponse wraps the yearly report
type YearlyResponse struct {
	*report.Yearly
	CSVPath string `json:"csv_path,omitempty"`
}

// Yearly returns the monthly sales of a year; zero selects the current year
func (s *ReportService) Yearly(ctx context.Context, requesterID uuid.UUID, year int) (*YearlyResponse, error) {
	now := s.now()
	if year == 0 {
		year = now.Year()
	}
	if year < 1970 || year > 9999 {
		return nil, shared.NewDomainError("INVALID_YEAR", "Year must be between 1970 and 9999")
	}

	months := report.YearMonths(year, now.Location())
	monthly := make([]report.Sales, 0, len(months))
	for _, p := range months {
		sales, err := s.reportRepo.Sales(ctx, s.filter(p, s.config.Statuses))
		if err != nil {
			return nil, err
		}
		monthly = append(monthly, sales)
	}
	total, err := s.reportRepo.Sales(ctx, report.Filter{
		Statuses: s.config.Statuses,
		Start:    months[0].Start,
		End:      months[len(months)-1].End,
	})
	if err != nil {
		return nil, err
	}

	yearly := report.NewYearly(year, months, monthly, total)
	path, err := s.storeCSV(ctx, report.ReportSalesYearly, requesterID, report.YearlyCSV(yearly))
	if err != nil {
		return nil, err
	}
	return &YearlyResponse{Yearly: yearly, CSVPath: path}, nil
}

// CustomRequest configures the custom sales report. Zero values fall back to
// the last twelve months in monthly intervals.
type CustomRequest struct {
	Start    *time.Time `json:"start" form:"start" time_format:"2006-01-02"`
	End      *time.Time `json:"end" form:"end" time_format:"2006-01-02"`
	Interval string     `json:"interval" form:"interval"`
	Statuses []string   `json:"statuses" form:"statuses"`
	Detail   bool       `json:"detail" form:"detail"`
}

// CustomResponse wraps the custom report
type CustomResponse struct {
	*report.Custom
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Interval string    `json:"interval"`
	Statuses []string  `json:"statuses"`
	CSVPath  string    `json:"csv_path,omitempty"`
}

// Custom returns sales split into sub-periods of the requested interval
func (s *ReportService) Custom(ctx context.Context, requesterID uuid.UUID, req CustomRequest) (*CustomResponse, error) {
	params := report.DefaultCustomParams(s.now(), s.config.Statuses)
	if req.Start != nil {
		params.Start = report.StartOfDay(*req.Start)
	}
	if req.End != nil {
		// the end date is inclusive
		params.End = report.StartOfDay(*req.End).AddDate(0, 0, 1).Add(-time.Second)
	}
	if req.Interval != "" {
		params.Interval = report.Interval(req.Interval)
	}
	if len(req.Statuses) > 0 {
		params.Statuses = req.Statuses
	}
	params.Detail = req.Detail
	if err := params.Validate(); err != nil {
		return nil, err
	}

	catalog, err := order.LoadCatalog(ctx, s.statusRepo)
	if err != nil {
		return nil, err
	}

	custom := &report.Custom{Params: params}
	for _, p := range report.SubreportIntervals(params.Start, params.End, params.Interval) {
		row, err := s.customRow(ctx, p, params, catalog)
		if err != nil {
			return nil, err
		}
		custom.Rows = append(custom.Rows, row)
	}

	whole := report.Filter{Statuses: params.Statuses, Start: params.Start, End: params.End}
	sales, err := s.reportRepo.Sales(ctx, whole)
	if err != nil {
		return nil, err
	}
	sold, err := s.reportRepo.ProductsSoldTotal(ctx, whole)
	if err != nil {
		return nil, err
	}
	custom.Total = report.CustomTotal{Orders: sales.Orders, ProductsSold: sold, Revenue: sales.Revenue}

	path, err := s.storeCSV(ctx, report.ReportSalesCustom, requesterID, report.CustomCSV(custom))
	if err != nil {
		return nil, err
	}
	return &CustomResponse{
		Custom:   custom,
		Start:    params.Start,
		End:      params.End,
		Interval: string(params.Interval),
		Statuses: params.Statuses,
		CSVPath:  path,
	}, nil
}

func (s *ReportService) customRow(ctx context.Context, p report.Period, params report.CustomParams, catalog *order.StatusCatalog) (report.CustomRow, error) {
	f := s.filter(p, params.Statuses)
	row := report.CustomRow{Label: report.CustomLabel(p, params.Interval), Period: p, Revenue: decimal.Zero}

	counts, err := s.reportRepo.StatusCountsBetween(ctx, f)
	if err != nil {
		return row, err
	}
	row.Statuses = titledByWeight(counts, catalog)

	sales, err := s.reportRepo.Sales(ctx, f)
	if err != nil {
		return row, err
	}
	row.Revenue = sales.Revenue

	if row.ProductsSold, err = s.reportRepo.ProductsSoldTotal(ctx, f); err != nil {
		return row, err
	}
	if params.Detail {
		if row.Products, err = s.reportRepo.ProductsSold(ctx, f); err != nil {
			return row, err
		}
	}
	return row, nil
}

// titledByWeight resolves status titles and orders the counts by weight ascending
func titledByWeight(counts []report.StatusCount, catalog *order.StatusCatalog) []report.StatusCount {
	out := make([]report.StatusCount, 0, len(counts))
	for _, c := range counts {
		c.Title = catalog.NameOf(c.StatusID)
		if st, ok := catalog.Get(c.StatusID); ok {
			c.Weight = st.Weight
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight < out[j].Weight
		}
		return out[i].StatusID < out[j].StatusID
	})
	return out
}

func pageOffset(f shared.Filter) int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

func (s *ReportService) filter(p report.Period, statuses []string) report.Filter {
	return report.Filter{Statuses: statuses, Start: p.Start, End: p.End}
}

// ===================== CSV export =====================

// CSVFile is a downloadable export
type CSVFile struct {
	Filename string
	Data     []byte
}

// CSVPath returns the download path of a cached export
func CSVPath(reportID string, userID uuid.UUID) string {
	return fmt.Sprintf("/api/v1/admin/store/reports/getcsv/%s/%s", reportID, userID)
}

func (s *ReportService) storeCSV(ctx context.Context, reportID string, requesterID uuid.UUID, rows [][]string) (string, error) {
	if s.csvStore == nil || requesterID == uuid.Nil {
		return "", nil
	}
	key := report.CacheKey(reportID, requesterID.String())
	if err := s.csvStore.Set(ctx, key, report.EncodeCSV(rows), s.config.CSVTTL); err != nil {
		// the report itself is still served
		s.logger.Warn("failed to cache report csv", zap.String("key", key), zap.Error(err))
		return "", nil
	}
	return CSVPath(reportID, requesterID), nil
}

// GetCSV returns a cached export. Only the user who generated it may download it.
func (s *ReportService) GetCSV(ctx context.Context, reportID string, requesterID uuid.UUID, userID string) (*CSVFile, error) {
	expired := shared.NewDomainError("NOT_FOUND", report.MessageCSVExpired)
	if !report.IsKnownReport(reportID) || s.csvStore == nil || userID != requesterID.String() {
		return nil, expired
	}
	data, err := s.csvStore.Get(ctx, report.CacheKey(reportID, userID))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, expired
		}
		return nil, err
	}
	return &CSVFile{Filename: reportID + ".csv", Data: data}, nil
}

// ===================== Archive =====================

// ArchiveResponse describes an archived export
type ArchiveResponse struct {
	Key         string    `json:"key"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ArchiveSummary uploads the sales summary as of the end of day to object storage
func (s *ReportService) ArchiveSummary(ctx context.Context, day time.Time) (*ArchiveResponse, error) {
	if s.archive == nil {
		return nil, shared.NewDomainError("ARCHIVE_DISABLED", "Report archiving is not configured")
	}
	asOf := report.StartOfDay(day).AddDate(0, 0, 1).Add(-time.Second)
	summary, err := s.buildSummary(ctx, asOf)
	if err != nil {
		return nil, err
	}

	key := report.ArchiveKey(report.ReportSalesSummary, day)
	if err := s.archive.Upload(ctx, key, report.EncodeCSV(report.SummaryCSV(summary)), "text/csv"); err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}
	url, expiresAt, err := s.archive.GenerateDownloadURL(ctx, key, s.config.ArchiveURLExpiry)
	if err != nil {
		return nil, err
	}
	s.logger.Info("sales summary archived", zap.String("key", key))
	return &ArchiveResponse{Key: key, DownloadURL: url, ExpiresAt: expiresAt}, nil
}

// ArchiveURL returns a presigned download URL for an archived day
func (s *ReportService) ArchiveURL(ctx context.Context, day time.Time) (*ArchiveResponse, error) {
	if s.archive == nil {
		return nil, shared.NewDomainError("ARCHIVE_DISABLED", "Report archiving is not configured")
	}
	key := report.ArchiveKey(report.ReportSalesSummary, day)
	exists, err := s.archive.ObjectExists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewDomainError("NOT_FOUND", "No archived summary for "+day.Format("2006-01-02"))
	}
	url, expiresAt, err := s.archive.GenerateDownloadURL(ctx, key, s.config.ArchiveURLExpiry)
	if err != nil {
		return nil, err
	}
	return &ArchiveResponse{Key: key, DownloadURL: url, ExpiresAt: expiresAt}, nil
}
