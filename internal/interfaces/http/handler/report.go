package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	reportapp "github.com/storefront/backend/internal/application/report"
)

// ReportHandler serves the sales reports and their CSV exports
type ReportHandler struct {
	BaseHandler
	reportService *reportapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *reportapp.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// YearQuery selects the year of the yearly report
type YearQuery struct {
	Year int `form:"year" binding:"omitempty,min=1970,max=9999"`
}

// DateQuery selects the day of an archived report
type DateQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// day returns the requested day, or today when unset
func (q DateQuery) day(now time.Time) time.Time {
	if q.Date == "" {
		return now
	}
	d, err := time.ParseInLocation("2006-01-02", q.Date, now.Location())
	if err != nil {
		return now
	}
	return d
}

// Customers godoc
// @Summary      Customer report
// @Description  Customers ranked by order count and revenue
// @Tags         reports
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        order_by query string false "Sort field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[reportapp.CustomersResponse]
// @Security     BearerAuth
// @Router       /admin/store/reports/customers [get]
func (h *ReportHandler) Customers(c *gin.Context) {
	var q PageQuery
	if !h.bindQuery(c, &q) {
		return
	}
	res, err := h.reportService.Customers(c.Request.Context(), getUserID(c), q.toFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// Products godoc
// @Summary      Product report
// @Description  Products ranked by units sold and revenue
// @Tags         reports
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        order_by query string false "Sort field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[reportapp.ProductsResponse]
// @Security     BearerAuth
// @Router       /admin/store/reports/products [get]
func (h *ReportHandler) Products(c *gin.Context) {
	var q PageQuery
	if !h.bindQuery(c, &q) {
		return
	}
	res, err := h.reportService.Products(c.Request.Context(), getUserID(c), q.toFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// Summary godoc
// @Summary      Sales summary
// @Description  Today, this month and projected figures with orders by status
// @Tags         reports
// @Produce      json
// @Success      200 {object} APIResponse[reportapp.SummaryResponse]
// @Security     BearerAuth
// @Router       /admin/store/reports/sales [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	res, err := h.reportService.Summary(c.Request.Context(), getUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// Yearly godoc
// @Summary      Sales per year
// @Tags         reports
// @Produce      json
// @Param        year query int false "Year, defaults to the current year"
// @Success      200 {object} APIResponse[reportapp.YearlyResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/reports/sales/year [get]
func (h *ReportHandler) Yearly(c *gin.Context) {
	var q YearQuery
	if !h.bindQuery(c, &q) {
		return
	}
	res, err := h.reportService.Yearly(c.Request.Context(), getUserID(c), q.Year)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// Custom godoc
// @Summary      Custom sales report
// @Description  Sales between two dates grouped by day, week, month or year
// @Tags         reports
// @Produce      json
// @Param        start query string false "Start date" format(date)
// @Param        end query string false "End date" format(date)
// @Param        interval query string false "Grouping" Enums(day, week, month, year)
// @Param        statuses query []string false "Order statuses"
// @Param        detail query bool false "Include product breakdown"
// @Success      200 {object} APIResponse[reportapp.CustomResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/reports/sales/custom [get]
func (h *ReportHandler) Custom(c *gin.Context) {
	var req reportapp.CustomRequest
	if !h.bindQuery(c, &req) {
		return
	}
	res, err := h.reportService.Custom(c.Request.Context(), getUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// GetCSV godoc
// @Summary      Download a report export
// @Description  Exports are cached per user for a limited time
// @Tags         reports
// @Produce      text/csv
// @Param        report path string true "Report ID"
// @Param        user path string true "User ID"
// @Success      200 {file} file
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/reports/getcsv/{report}/{user} [get]
func (h *ReportHandler) GetCSV(c *gin.Context) {
	file, err := h.reportService.GetCSV(c.Request.Context(), c.Param("report"), getUserID(c), c.Param("user"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Pragma", "private")
	c.Header("Expires", "0")
	c.Header("Cache-Control", "private, must-revalidate")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Length", strconv.Itoa(len(file.Data)))
	c.Header("Content-Disposition", "attachment; filename=\""+file.Filename+"\"")
	c.Data(http.StatusOK, "text/csv", file.Data)
}

// ArchiveURL godoc
// @Summary      Download link of an archived summary
// @Tags         reports
// @Produce      json
// @Param        date query string false "Day" format(date)
// @Success      200 {object} APIResponse[reportapp.ArchiveResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/reports/archive [get]
func (h *ReportHandler) ArchiveURL(c *gin.Context) {
	var q DateQuery
	if !h.bindQuery(c, &q) {
		return
	}
	res, err := h.reportService.ArchiveURL(c.Request.Context(), q.day(time.Now()))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// Archive godoc
// @Summary      Archive the sales summary of a day
// @Tags         reports
// @Produce      json
// @Param        date query string false "Day" format(date)
// @Success      201 {object} APIResponse[reportapp.ArchiveResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/reports/archive [post]
func (h *ReportHandler) Archive(c *gin.Context) {
	var q DateQuery
	if !h.bindQuery(c, &q) {
		return
	}
	res, err := h.reportService.ArchiveSummary(c.Request.Context(), q.day(time.Now()))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, res)
}
