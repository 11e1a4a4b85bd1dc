package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	taxapp "github.com/storefront/backend/internal/application/tax"
)

// TaxHandler configures tax rates and calculates order taxes
type TaxHandler struct {
	BaseHandler
	rateService *taxapp.RateService
}

// NewTaxHandler creates a new TaxHandler
func NewTaxHandler(rateService *taxapp.RateService) *TaxHandler {
	return &TaxHandler{rateService: rateService}
}

// List godoc
// @Summary      List tax rates
// @Tags         taxes
// @Produce      json
// @Success      200 {object} APIResponse[taxapp.RatesResponse]
// @Security     BearerAuth
// @Router       /admin/store/config/taxes [get]
func (h *TaxHandler) List(c *gin.Context) {
	rates, err := h.rateService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rates)
}

// Get godoc
// @Summary      Get a tax rate
// @Tags         taxes
// @Produce      json
// @Param        id path string true "Rate ID"
// @Success      200 {object} APIResponse[taxapp.RateResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/taxes/{id} [get]
func (h *TaxHandler) Get(c *gin.Context) {
	rate, err := h.rateService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rate)
}

// Create godoc
// @Summary      Add a tax rate
// @Tags         taxes
// @Accept       json
// @Produce      json
// @Param        request body taxapp.CreateRateRequest true "Rate"
// @Success      201 {object} APIResponse[taxapp.RateResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/taxes [post]
func (h *TaxHandler) Create(c *gin.Context) {
	var req taxapp.CreateRateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	rate, err := h.rateService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rate)
}

// Update godoc
// @Summary      Edit a tax rate
// @Tags         taxes
// @Accept       json
// @Produce      json
// @Param        id path string true "Rate ID"
// @Param        request body taxapp.RateRequest true "Rate"
// @Success      200 {object} APIResponse[taxapp.RateResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/taxes/{id} [put]
func (h *TaxHandler) Update(c *gin.Context) {
	var req taxapp.RateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	rate, err := h.rateService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rate)
}

// Clone godoc
// @Summary      Clone a tax rate
// @Description  The copy is disabled and named "Copy of <name>"
// @Tags         taxes
// @Produce      json
// @Param        id path string true "Rate ID"
// @Success      201 {object} APIResponse[taxapp.RateMessageResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/taxes/{id}/clone [post]
func (h *TaxHandler) Clone(c *gin.Context) {
	res, err := h.rateService.Clone(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, res)
}

// Enable godoc
// @Summary      Enable a tax rate
// @Tags         taxes
// @Produce      json
// @Param        id path string true "Rate ID"
// @Success      200 {object} APIResponse[taxapp.RateMessageResponse]
// @Security     BearerAuth
// @Router       /admin/store/config/taxes/{id}/enable [post]
func (h *TaxHandler) Enable(c *gin.Context) {
	h.toggle(c, h.rateService.Enable)
}

// Disable godoc
// @Summary      Disable a tax rate
// @Tags         taxes
// @Produce      json
// @Param        id path string true "Rate ID"
// @Success      200 {object} APIResponse[taxapp.RateMessageResponse]
// @Security     BearerAuth
// @Router       /admin/store/config/taxes/{id}/disable [post]
func (h *TaxHandler) Disable(c *gin.Context) {
	h.toggle(c, h.rateService.Disable)
}

func (h *TaxHandler) toggle(c *gin.Context, fn func(context.Context, string) (*taxapp.RateMessageResponse, error)) {
	res, err := fn(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// Delete godoc
// @Summary      Delete a tax rate
// @Tags         taxes
// @Produce      json
// @Param        id path string true "Rate ID"
// @Success      200 {object} APIResponse[MessageResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/taxes/{id} [delete]
func (h *TaxHandler) Delete(c *gin.Context) {
	message, err := h.rateService.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageResponse{Message: message})
}

// Calculate godoc
// @Summary      Calculate order taxes
// @Tags         taxes
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[taxapp.CalculationResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/tax [get]
func (h *TaxHandler) Calculate(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	res, err := h.rateService.Calculate(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}
