package handler

import (
	"github.com/gin-gonic/gin"
	checkoutapp "github.com/storefront/backend/internal/application/checkout"
	paymentapp "github.com/storefront/backend/internal/application/payment"
)

// CheckoutHandler drives the customer cart and checkout flow. Anonymous
// callers may check out; carts they create have no owner.
type CheckoutHandler struct {
	BaseHandler
	checkoutService *checkoutapp.CheckoutService
	paypalService   *paymentapp.PayPalService
}

// NewCheckoutHandler creates a new CheckoutHandler. paypalService may be nil
// when PayPal is not configured.
func NewCheckoutHandler(checkoutService *checkoutapp.CheckoutService, paypalService *paymentapp.PayPalService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		paypalService:   paypalService,
	}
}

// CreateCart godoc
// @Summary      Create a cart
// @Description  Create an order in the in_checkout state from the given products
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        request body checkoutapp.CreateCartRequest true "Cart"
// @Success      201 {object} APIResponse[orderapp.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /cart [post]
func (h *CheckoutHandler) CreateCart(c *gin.Context) {
	var req checkoutapp.CreateCartRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, err := h.checkoutService.CreateCart(c.Request.Context(), getUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// Start godoc
// @Summary      Start checkout
// @Tags         checkout
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /cart/checkout/{id}/start [post]
func (h *CheckoutHandler) Start(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	order, err := h.checkoutService.Start(c.Request.Context(), orderID, getUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Update godoc
// @Summary      Update checkout panes
// @Description  Set addresses, email, shipping quote and payment method
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body checkoutapp.UpdateCheckoutRequest true "Checkout panes"
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /cart/checkout/{id} [put]
func (h *CheckoutHandler) Update(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	var req checkoutapp.UpdateCheckoutRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, err := h.checkoutService.Update(c.Request.Context(), orderID, getUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Review godoc
// @Summary      Review the order before submitting
// @Tags         checkout
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[checkoutapp.ReviewResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /cart/checkout/{id}/review [get]
func (h *CheckoutHandler) Review(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	review, err := h.checkoutService.Review(c.Request.Context(), orderID, getUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, review)
}

// Complete godoc
// @Summary      Submit the order
// @Tags         checkout
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /cart/checkout/{id}/complete [post]
func (h *CheckoutHandler) Complete(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	order, err := h.checkoutService.Complete(c.Request.Context(), orderID, getUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// PayPalCreate godoc
// @Summary      Start a PayPal payment
// @Description  Returns the approval URL the customer is redirected to
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body paymentapp.PayPalCreateRequest true "Redirect URLs"
// @Success      200 {object} APIResponse[paymentapp.PayPalCreateResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /paypal/checkout/{id} [post]
func (h *CheckoutHandler) PayPalCreate(c *gin.Context) {
	if h.paypalService == nil {
		h.NotFound(c, "PayPal is not available")
		return
	}
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	var req paymentapp.PayPalCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.paypalService.Create(c.Request.Context(), orderID, getUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// PayPalComplete godoc
// @Summary      Execute an approved PayPal payment
// @Description  Captures the payment, records the receipt and completes checkout
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body paymentapp.PayPalExecuteRequest true "Approval"
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /paypal/checkout/{id}/complete [post]
func (h *CheckoutHandler) PayPalComplete(c *gin.Context) {
	if h.paypalService == nil {
		h.NotFound(c, "PayPal is not available")
		return
	}
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	var req paymentapp.PayPalExecuteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, err := h.paypalService.Execute(c.Request.Context(), orderID, getUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
