package handler

import (
	"github.com/gin-gonic/gin"
	stockapp "github.com/storefront/backend/internal/application/stock"
)

// StockHandler reads and sets SKU stock levels
type StockHandler struct {
	BaseHandler
	stockService *stockapp.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *stockapp.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// List godoc
// @Summary      List stock levels
// @Tags         stock
// @Produce      json
// @Param        search query string false "SKU"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]stockapp.LevelResponse]
// @Security     BearerAuth
// @Router       /admin/store/config/stock [get]
func (h *StockHandler) List(c *gin.Context) {
	var q PageQuery
	if !h.bindQuery(c, &q) {
		return
	}
	levels, err := h.stockService.List(c.Request.Context(), q.toFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, levels)
}

// Get godoc
// @Summary      Get a stock level
// @Tags         stock
// @Produce      json
// @Param        sku path string true "SKU"
// @Success      200 {object} APIResponse[stockapp.LevelResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/stock/{sku} [get]
func (h *StockHandler) Get(c *gin.Context) {
	level, err := h.stockService.Get(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, level)
}

// Set godoc
// @Summary      Set a stock level
// @Description  Creates the SKU level when missing. Crossing the threshold raises a stock alert.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        sku path string true "SKU"
// @Param        request body stockapp.SetStockRequest true "Stock"
// @Success      200 {object} APIResponse[stockapp.SetStockResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/stock/{sku} [put]
func (h *StockHandler) Set(c *gin.Context) {
	var req stockapp.SetStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.stockService.Set(c.Request.Context(), c.Param("sku"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}
