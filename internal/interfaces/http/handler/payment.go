package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	paymentapp "github.com/storefront/backend/internal/application/payment"
)

// PaymentMethodHandler configures payment methods
type PaymentMethodHandler struct {
	BaseHandler
	methodService *paymentapp.MethodService
}

// NewPaymentMethodHandler creates a new PaymentMethodHandler
func NewPaymentMethodHandler(methodService *paymentapp.MethodService) *PaymentMethodHandler {
	return &PaymentMethodHandler{methodService: methodService}
}

// List godoc
// @Summary      List payment methods
// @Tags         payment-methods
// @Produce      json
// @Success      200 {object} APIResponse[[]paymentapp.MethodResponse]
// @Security     BearerAuth
// @Router       /admin/store/config/payment [get]
func (h *PaymentMethodHandler) List(c *gin.Context) {
	methods, err := h.methodService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, methods)
}

// Get godoc
// @Summary      Get a payment method
// @Tags         payment-methods
// @Produce      json
// @Param        id path string true "Method ID"
// @Success      200 {object} APIResponse[paymentapp.MethodResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/payment/{id} [get]
func (h *PaymentMethodHandler) Get(c *gin.Context) {
	method, err := h.methodService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, method)
}

// Create godoc
// @Summary      Add a payment method
// @Description  Settings are validated per plugin (check policy, PayPal credentials and funding sources)
// @Tags         payment-methods
// @Accept       json
// @Produce      json
// @Param        request body paymentapp.CreateMethodRequest true "Method"
// @Success      201 {object} APIResponse[paymentapp.MethodResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/payment [post]
func (h *PaymentMethodHandler) Create(c *gin.Context) {
	var req paymentapp.CreateMethodRequest
	if !h.bindJSON(c, &req) {
		return
	}
	method, err := h.methodService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, method)
}

// Update godoc
// @Summary      Edit a payment method
// @Tags         payment-methods
// @Accept       json
// @Produce      json
// @Param        id path string true "Method ID"
// @Param        request body paymentapp.UpdateMethodRequest true "Changes"
// @Success      200 {object} APIResponse[paymentapp.MethodResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/payment/{id} [put]
func (h *PaymentMethodHandler) Update(c *gin.Context) {
	var req paymentapp.UpdateMethodRequest
	if !h.bindJSON(c, &req) {
		return
	}
	method, err := h.methodService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, method)
}

// Enable godoc
// @Summary      Enable a payment method
// @Tags         payment-methods
// @Produce      json
// @Param        id path string true "Method ID"
// @Success      200 {object} APIResponse[paymentapp.MethodResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/payment/{id}/enable [post]
func (h *PaymentMethodHandler) Enable(c *gin.Context) {
	h.toggle(c, h.methodService.Enable)
}

// Disable godoc
// @Summary      Disable a payment method
// @Tags         payment-methods
// @Produce      json
// @Param        id path string true "Method ID"
// @Success      200 {object} APIResponse[paymentapp.MethodResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/payment/{id}/disable [post]
func (h *PaymentMethodHandler) Disable(c *gin.Context) {
	h.toggle(c, h.methodService.Disable)
}

func (h *PaymentMethodHandler) toggle(c *gin.Context, fn func(context.Context, string) (*paymentapp.MethodResponse, error)) {
	method, err := fn(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, method)
}

// Delete godoc
// @Summary      Delete a payment method
// @Tags         payment-methods
// @Produce      json
// @Param        id path string true "Method ID"
// @Success      200 {object} APIResponse[MessageResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/config/payment/{id} [delete]
func (h *PaymentMethodHandler) Delete(c *gin.Context) {
	message, err := h.methodService.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageResponse{Message: message})
}

// PaymentHandler records payments against orders
type PaymentHandler struct {
	BaseHandler
	receiptService  *paymentapp.ReceiptService
	terminalService *paymentapp.TerminalService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(receiptService *paymentapp.ReceiptService, terminalService *paymentapp.TerminalService) *PaymentHandler {
	return &PaymentHandler{
		receiptService:  receiptService,
		terminalService: terminalService,
	}
}

// List godoc
// @Summary      Order payments
// @Description  Receipts of an order with the remaining balance
// @Tags         payments
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[paymentapp.PaymentsResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	payments, err := h.receiptService.List(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// Enter godoc
// @Summary      Enter a payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body paymentapp.EnterPaymentRequest true "Payment"
// @Success      201 {object} APIResponse[paymentapp.ReceiptResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/payments [post]
func (h *PaymentHandler) Enter(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	var req paymentapp.EnterPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	receipt, err := h.receiptService.Enter(c.Request.Context(), orderID, getUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, receipt)
}

// Delete godoc
// @Summary      Delete a payment
// @Tags         payments
// @Param        id path string true "Order ID" format(uuid)
// @Param        receipt_id path string true "Receipt ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/payments/{receipt_id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	receiptID, ok := h.pathUUID(c, "receipt_id", "receipt")
	if !ok {
		return
	}
	if err := h.receiptService.Delete(c.Request.Context(), orderID, receiptID, getUserID(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ReceiveCheck godoc
// @Summary      Receive a check
// @Description  Records a check payment. The amount defaults to the order total.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body paymentapp.ReceiveCheckRequest true "Check"
// @Success      201 {object} APIResponse[paymentapp.ReceiptResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/receive-check [post]
func (h *PaymentHandler) ReceiveCheck(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	var req paymentapp.ReceiveCheckRequest
	if !h.bindJSON(c, &req) {
		return
	}
	receipt, err := h.receiptService.ReceiveCheck(c.Request.Context(), orderID, getUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, receipt)
}

// Terminal godoc
// @Summary      Credit card terminal
// @Description  Balance, uncaptured authorizations and stored references of an order
// @Tags         payments
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[paymentapp.TerminalResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/credit [get]
func (h *PaymentHandler) Terminal(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	terminal, err := h.terminalService.Terminal(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, terminal)
}

// Process godoc
// @Summary      Process a terminal transaction
// @Description  Charge, authorize, capture, void, credit or manage references through the credit gateway
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body paymentapp.TerminalRequest true "Transaction"
// @Success      200 {object} APIResponse[paymentapp.TerminalResult]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/credit [post]
func (h *PaymentHandler) Process(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	var req paymentapp.TerminalRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.terminalService.Process(c.Request.Context(), orderID, getUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
