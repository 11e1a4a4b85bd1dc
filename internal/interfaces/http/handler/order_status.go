package handler

import (
	"github.com/gin-gonic/gin"
	orderapp "github.com/storefront/backend/internal/application/order"
)

// OrderStatusHandler configures order statuses and the default status of each state
type OrderStatusHandler struct {
	BaseHandler
	statusService *orderapp.StatusService
}

// NewOrderStatusHandler creates a new OrderStatusHandler
func NewOrderStatusHandler(statusService *orderapp.StatusService) *OrderStatusHandler {
	return &OrderStatusHandler{statusService: statusService}
}

// Config godoc
// @Summary      Order states and statuses
// @Tags         order-statuses
// @Produce      json
// @Success      200 {object} APIResponse[orderapp.StatusConfigResponse]
// @Security     BearerAuth
// @Router       /admin/store/config/orders/statuses [get]
func (h *OrderStatusHandler) Config(c *gin.Context) {
	cfg, err := h.statusService.Config(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cfg)
}

// Get godoc
// @Summary      Get an order status
// @Tags         order-statuses
// @Produce      json
// @Param        id path string true "Status ID"
// @Success      200 {object} APIResponse[orderapp.StatusResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/orders/statuses/{id} [get]
func (h *OrderStatusHandler) Get(c *gin.Context) {
	status, err := h.statusService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Create godoc
// @Summary      Add a custom order status
// @Tags         order-statuses
// @Accept       json
// @Produce      json
// @Param        request body orderapp.CreateStatusRequest true "Status"
// @Success      201 {object} APIResponse[orderapp.StatusResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/orders/statuses [post]
func (h *OrderStatusHandler) Create(c *gin.Context) {
	var req orderapp.CreateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	status, err := h.statusService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, status)
}

// Update godoc
// @Summary      Rename or reweigh an order status
// @Tags         order-statuses
// @Accept       json
// @Produce      json
// @Param        id path string true "Status ID"
// @Param        request body orderapp.UpdateStatusConfigRequest true "Changes"
// @Success      200 {object} APIResponse[orderapp.StatusResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/orders/statuses/{id} [put]
func (h *OrderStatusHandler) Update(c *gin.Context) {
	var req orderapp.UpdateStatusConfigRequest
	if !h.bindJSON(c, &req) {
		return
	}
	status, err := h.statusService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Delete godoc
// @Summary      Delete a custom order status
// @Description  Locked statuses and statuses still used by orders cannot be deleted
// @Tags         order-statuses
// @Param        id path string true "Status ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/orders/statuses/{id} [delete]
func (h *OrderStatusHandler) Delete(c *gin.Context) {
	if err := h.statusService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// SetStateDefault godoc
// @Summary      Set the default status of a state
// @Tags         order-statuses
// @Accept       json
// @Produce      json
// @Param        state path string true "Order state"
// @Param        request body orderapp.SetStateDefaultRequest true "Default status"
// @Success      200 {object} APIResponse[orderapp.StatusConfigResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/orders/states/{state}/default [put]
func (h *OrderStatusHandler) SetStateDefault(c *gin.Context) {
	var req orderapp.SetStateDefaultRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cfg, err := h.statusService.SetStateDefault(c.Request.Context(), c.Param("state"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cfg)
}
