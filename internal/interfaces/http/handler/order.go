package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	fulfillmentapp "github.com/storefront/backend/internal/application/fulfillment"
	orderapp "github.com/storefront/backend/internal/application/order"
)

// OrderHandler handles order administration endpoints
type OrderHandler struct {
	BaseHandler
	orderService       *orderapp.OrderService
	fulfillmentService *fulfillmentapp.FulfillmentService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *orderapp.OrderService, fulfillmentService *fulfillmentapp.FulfillmentService) *OrderHandler {
	return &OrderHandler{
		orderService:       orderService,
		fulfillmentService: fulfillmentService,
	}
}

// TrackingResponse lists the tracking numbers of an order's packages and shipments
type TrackingResponse struct {
	TrackingNumbers []string `json:"tracking_numbers"`
}

// listPage returns the page and page size the service applied to filter
func listPage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return page, min(pageSize, 100)
}

// List godoc
// @Summary      List orders
// @Description  Paginated order list with status, owner and search filters
// @Tags         orders
// @Produce      json
// @Param        search query string false "Order number or email"
// @Param        status_id query string false "Status ID"
// @Param        owner_id query string false "Owner ID" format(uuid)
// @Param        include_deleted query bool false "Include soft-deleted orders"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        order_by query string false "Sort field" default(created_at)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]orderapp.OrderListItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var filter orderapp.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	orders, total, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := listPage(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, orders, total, page, pageSize)
}

// Create godoc
// @Summary      Create an order
// @Description  Create an order for a customer in the default post-checkout status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body orderapp.CreateOrderRequest true "Order"
// @Success      201 {object} APIResponse[orderapp.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req orderapp.CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	o, err := h.orderService.Create(c.Request.Context(), getUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, o)
}

// Get godoc
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}

	o, err := h.orderService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// Update godoc
// @Summary      Edit an order
// @Description  Update email, addresses, payment method, quote method or host
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.UpdateOrderRequest true "Changes"
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id} [put]
func (h *OrderHandler) Update(c *gin.Context) {
	id, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	var req orderapp.UpdateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	o, err := h.orderService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// Delete godoc
// @Summary      Delete an order
// @Description  Soft-delete an order. Comments are retained.
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[MessageResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id} [delete]
func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	if err := h.orderService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageResponse{Message: "Order deleted."})
}

// Purge godoc
// @Summary      Purge an order
// @Description  Permanently remove an order with its products, line items and comments
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/purge [delete]
func (h *OrderHandler) Purge(c *gin.Context) {
	id, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	if err := h.orderService.Purge(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UpdateStatus godoc
// @Summary      Change order status
// @Description  Move the order to another status, optionally with a comment and customer notification
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.UpdateStatusRequest true "Status change"
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	var req orderapp.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	o, err := h.orderService.UpdateStatus(c.Request.Context(), id, getUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// Comments godoc
// @Summary      Order comments
// @Description  Customer-visible comments and admin notes of an order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[orderapp.CommentsResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/comments [get]
func (h *OrderHandler) Comments(c *gin.Context) {
	id, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	comments, err := h.orderService.Comments(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, comments)
}

// AddComment godoc
// @Summary      Add an order comment
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.AddCommentRequest true "Comment"
// @Success      201 {object} APIResponse[orderapp.CommentsResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/comments [post]
func (h *OrderHandler) AddComment(c *gin.Context) {
	h.addComment(c, h.orderService.AddComment)
}

// AddAdminComment godoc
// @Summary      Add an admin note
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.AddCommentRequest true "Note"
// @Success      201 {object} APIResponse[orderapp.CommentsResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/admin-comments [post]
func (h *OrderHandler) AddAdminComment(c *gin.Context) {
	h.addComment(c, h.orderService.AddAdminComment)
}

type commentFunc func(ctx context.Context, id, authorID uuid.UUID, req orderapp.AddCommentRequest) (*orderapp.CommentsResponse, error)

func (h *OrderHandler) addComment(c *gin.Context, add commentFunc) {
	id, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	var req orderapp.AddCommentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	comments, err := add(c.Request.Context(), id, getUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, comments)
}

// AddProduct godoc
// @Summary      Add a product to an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.AddProductRequest true "Product"
// @Success      201 {object} APIResponse[orderapp.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/products [post]
func (h *OrderHandler) AddProduct(c *gin.Context) {
	id, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	var req orderapp.AddProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	o, err := h.orderService.AddProduct(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, o)
}

// UpdateProduct godoc
// @Summary      Change an order product's quantity
// @Description  A quantity of zero removes the product
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        product_id path string true "Order product ID" format(uuid)
// @Param        request body orderapp.UpdateProductRequest true "Quantity"
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/products/{product_id} [put]
func (h *OrderHandler) UpdateProduct(c *gin.Context) {
	id, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "product_id", "product")
	if !ok {
		return
	}
	var req orderapp.UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	o, err := h.orderService.UpdateProduct(c.Request.Context(), id, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// RemoveProduct godoc
// @Summary      Remove a product from an order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        product_id path string true "Order product ID" format(uuid)
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/products/{product_id} [delete]
func (h *OrderHandler) RemoveProduct(c *gin.Context) {
	id, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "product_id", "product")
	if !ok {
		return
	}

	o, err := h.orderService.RemoveProduct(c.Request.Context(), id, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// AddLineItem godoc
// @Summary      Add a line item
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.AddLineItemRequest true "Line item"
// @Success      201 {object} APIResponse[orderapp.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/line-items [post]
func (h *OrderHandler) AddLineItem(c *gin.Context) {
	id, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	var req orderapp.AddLineItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	o, err := h.orderService.AddLineItem(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, o)
}

// RemoveLineItem godoc
// @Summary      Remove a line item
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        line_item_id path string true "Line item ID" format(uuid)
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/line-items/{line_item_id} [delete]
func (h *OrderHandler) RemoveLineItem(c *gin.Context) {
	id, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	lineItemID, ok := h.pathUUID(c, "line_item_id", "line item")
	if !ok {
		return
	}

	o, err := h.orderService.RemoveLineItem(c.Request.Context(), id, lineItemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// Tracking godoc
// @Summary      Tracking numbers
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[TrackingResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/tracking [get]
func (h *OrderHandler) Tracking(c *gin.Context) {
	id, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}

	numbers, err := h.fulfillmentService.TrackingNumbers(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if numbers == nil {
		numbers = []string{}
	}
	h.Success(c, TrackingResponse{TrackingNumbers: numbers})
}

// UserOrderHandler exposes the caller's own orders
type UserOrderHandler struct {
	BaseHandler
	orderService *orderapp.OrderService
}

// NewUserOrderHandler creates a new UserOrderHandler
func NewUserOrderHandler(orderService *orderapp.OrderService) *UserOrderHandler {
	return &UserOrderHandler{orderService: orderService}
}

// List godoc
// @Summary      My orders
// @Tags         user-orders
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]orderapp.OrderListItemResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /user/orders [get]
func (h *UserOrderHandler) List(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	var filter orderapp.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	orders, total, err := h.orderService.ListForUser(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := listPage(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, orders, total, page, pageSize)
}

// Get godoc
// @Summary      One of my orders
// @Tags         user-orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /user/orders/{id} [get]
func (h *UserOrderHandler) Get(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}

	o, err := h.orderService.GetForUser(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}
