package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	shippingapp "github.com/storefront/backend/internal/application/shipping"
)

// ShippingHandler configures shipping quote methods and quotes orders
type ShippingHandler struct {
	BaseHandler
	quoteService *shippingapp.QuoteService
}

// NewShippingHandler creates a new ShippingHandler
func NewShippingHandler(quoteService *shippingapp.QuoteService) *ShippingHandler {
	return &ShippingHandler{quoteService: quoteService}
}

// List godoc
// @Summary      List shipping quote methods
// @Tags         shipping
// @Produce      json
// @Success      200 {object} APIResponse[[]shippingapp.QuoteMethodResponse]
// @Security     BearerAuth
// @Router       /admin/store/config/shipping [get]
func (h *ShippingHandler) List(c *gin.Context) {
	methods, err := h.quoteService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, methods)
}

// Get godoc
// @Summary      Get a shipping quote method
// @Tags         shipping
// @Produce      json
// @Param        id path string true "Method ID"
// @Success      200 {object} APIResponse[shippingapp.QuoteMethodResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/shipping/{id} [get]
func (h *ShippingHandler) Get(c *gin.Context) {
	method, err := h.quoteService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, method)
}

// Create godoc
// @Summary      Add a shipping quote method
// @Tags         shipping
// @Accept       json
// @Produce      json
// @Param        request body shippingapp.CreateQuoteMethodRequest true "Method"
// @Success      201 {object} APIResponse[shippingapp.QuoteMethodResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/shipping [post]
func (h *ShippingHandler) Create(c *gin.Context) {
	var req shippingapp.CreateQuoteMethodRequest
	if !h.bindJSON(c, &req) {
		return
	}
	method, err := h.quoteService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, method)
}

// Update godoc
// @Summary      Edit a shipping quote method
// @Tags         shipping
// @Accept       json
// @Produce      json
// @Param        id path string true "Method ID"
// @Param        request body shippingapp.UpdateQuoteMethodRequest true "Changes"
// @Success      200 {object} APIResponse[shippingapp.QuoteMethodResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/shipping/{id} [put]
func (h *ShippingHandler) Update(c *gin.Context) {
	var req shippingapp.UpdateQuoteMethodRequest
	if !h.bindJSON(c, &req) {
		return
	}
	method, err := h.quoteService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, method)
}

// Enable godoc
// @Summary      Enable a shipping quote method
// @Tags         shipping
// @Produce      json
// @Param        id path string true "Method ID"
// @Success      200 {object} APIResponse[shippingapp.QuoteMethodResponse]
// @Security     BearerAuth
// @Router       /admin/store/config/shipping/{id}/enable [post]
func (h *ShippingHandler) Enable(c *gin.Context) {
	h.toggle(c, h.quoteService.Enable)
}

// Disable godoc
// @Summary      Disable a shipping quote method
// @Tags         shipping
// @Produce      json
// @Param        id path string true "Method ID"
// @Success      200 {object} APIResponse[shippingapp.QuoteMethodResponse]
// @Security     BearerAuth
// @Router       /admin/store/config/shipping/{id}/disable [post]
func (h *ShippingHandler) Disable(c *gin.Context) {
	h.toggle(c, h.quoteService.Disable)
}

func (h *ShippingHandler) toggle(c *gin.Context, fn func(context.Context, string) (*shippingapp.QuoteMethodResponse, error)) {
	method, err := fn(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, method)
}

// Delete godoc
// @Summary      Delete a shipping quote method
// @Tags         shipping
// @Produce      json
// @Param        id path string true "Method ID"
// @Success      200 {object} APIResponse[MessageResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/shipping/{id} [delete]
func (h *ShippingHandler) Delete(c *gin.Context) {
	message, err := h.quoteService.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageResponse{Message: message})
}

// Quote godoc
// @Summary      Quote shipping for an order
// @Description  Rates of every enabled method for the order's shippable products
// @Tags         shipping
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[[]shippingapp.QuoteResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/quote [get]
func (h *ShippingHandler) Quote(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	quotes, err := h.quoteService.Quote(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quotes)
}
