package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ==================== Order DTOs ====================

// CreateOrderRequest represents an admin request to create an order for a customer
type CreateOrderRequest struct {
	OwnerID      *uuid.UUID `json:"owner_id"`
	PrimaryEmail string     `json:"primary_email" binding:"omitempty,email,max=254"`
	Currency     string     `json:"currency" binding:"omitempty,len=3"`
}

// UpdateOrderRequest represents a request to edit order details
type UpdateOrderRequest struct {
	PrimaryEmail    *string              `json:"primary_email" binding:"omitempty,email,max=254"`
	BillingAddress  *valueobject.Address `json:"billing_address"`
	DeliveryAddress *valueobject.Address `json:"delivery_address"`
	PaymentMethodID *string              `json:"payment_method_id"`
	QuoteMethodID   *string              `json:"quote_method_id"`
	Host            *string              `json:"host"`
}

// UpdateStatusRequest represents a request to move an order to another status
type UpdateStatusRequest struct {
	StatusID string `json:"status_id" binding:"required,max=32"`
	Message  string `json:"message"`
	Notify   bool   `json:"notify"`
}

// AddCommentRequest represents an order comment or admin note
type AddCommentRequest struct {
	Message string `json:"message" binding:"required,min=1"`
	Notify  bool   `json:"notify"`
}

// AddProductRequest names a catalog product by id or SKU. Price, cost,
// weight and shipping attributes are read from the catalog.
type AddProductRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku" binding:"omitempty,sku"`
	Qty       int       `json:"qty" binding:"required,min=1"`
}

// UpdateProductRequest represents a quantity change of an order product
type UpdateProductRequest struct {
	Qty int `json:"qty" binding:"min=0"`
}

// AddLineItemRequest represents a line item added to an order
type AddLineItemRequest struct {
	Type   string          `json:"type" binding:"required,oneof=generic shipping tax tax_subtotal"`
	Title  string          `json:"title" binding:"required,max=255"`
	Amount decimal.Decimal `json:"amount"`
	Weight int             `json:"weight" binding:"gte=0"`
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	Search         string     `form:"search"`
	StatusID       string     `form:"status_id"`
	OwnerID        *uuid.UUID `form:"owner_id"`
	IncludeDeleted bool       `form:"include_deleted"`
	Page           int        `form:"page" binding:"min=0"`
	PageSize       int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy        string     `form:"order_by"`
	OrderDir       string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderProductResponse represents an order product in API responses
type OrderProductResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	SKU          string          `json:"sku"`
	Title        string          `json:"title"`
	ProductClass string          `json:"product_class,omitempty"`
	Qty          int             `json:"qty"`
	Price        decimal.Decimal `json:"price"`
	Cost         decimal.Decimal `json:"cost"`
	Total        decimal.Decimal `json:"total"`
	Weight       decimal.Decimal `json:"weight" binding:"gte=0"`
	WeightUnit   string          `json:"weight_unit"`
	Shippable    bool            `json:"shippable"`
}

// LineItemResponse represents an order line item in API responses
type LineItemResponse struct {
	ID     uuid.UUID       `json:"id"`
	Type   string          `json:"type"`
	Title  string          `json:"title"`
	Amount decimal.Decimal `json:"amount"`
	Weight int             `json:"weight" binding:"gte=0"`
}

// CommentResponse represents an order comment in API responses
type CommentResponse struct {
	ID         uuid.UUID `json:"id"`
	AuthorID   uuid.UUID `json:"author_id"`
	Message    string    `json:"message"`
	StatusID   string    `json:"status_id"`
	StatusName string    `json:"status_name"`
	Notified   bool      `json:"notified"`
	CreatedAt  time.Time `json:"created_at"`
}

// CommentsResponse groups customer-visible comments and admin notes
type CommentsResponse struct {
	OrderComments []CommentResponse `json:"order_comments"`
	AdminComments []CommentResponse `json:"admin_comments"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              uuid.UUID              `json:"id"`
	OrderNumber     string                 `json:"order_number"`
	OwnerID         uuid.UUID              `json:"owner_id"`
	PrimaryEmail    string                 `json:"primary_email"`
	StatusID        string                 `json:"status_id"`
	StatusName      string                 `json:"status_name"`
	State           string                 `json:"state"`
	Currency        string                 `json:"currency"`
	Products        []OrderProductResponse `json:"products"`
	LineItems       []LineItemResponse     `json:"line_items"`
	ProductCount    int                    `json:"product_count"`
	Subtotal        decimal.Decimal        `json:"subtotal"`
	Total           decimal.Decimal        `json:"total"`
	TotalFormatted  string                 `json:"total_formatted"`
	BillingAddress  valueobject.Address    `json:"billing_address"`
	DeliveryAddress valueobject.Address    `json:"delivery_address"`
	PaymentMethodID string                 `json:"payment_method_id,omitempty"`
	QuoteMethodID   string                 `json:"quote_method_id,omitempty"`
	Shippable       bool                   `json:"shippable"`
	Host            string                 `json:"host,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	DeletedAt       *time.Time             `json:"deleted_at,omitempty"`
	Version         int                    `json:"version"`
}

// OrderListItemResponse represents an order in list responses
type OrderListItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	OrderNumber  string          `json:"order_number"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	PrimaryEmail string          `json:"primary_email"`
	StatusID     string          `json:"status_id"`
	StatusName   string          `json:"status_name"`
	ProductCount int             `json:"product_count"`
	Total        decimal.Decimal `json:"total"`
	Currency     string          `json:"currency"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ToOrderResponse converts a domain order to a response
func ToOrderResponse(o *order.Order, catalog *order.StatusCatalog) OrderResponse {
	products := make([]OrderProductResponse, len(o.Products))
	for i, p := range o.Products {
		products[i] = OrderProductResponse{
			ID:           p.ID,
			ProductID:    p.ProductID,
			SKU:          p.SKU,
			Title:        p.Title,
			ProductClass: p.ProductClass,
			Qty:          p.Qty,
			Price:        p.Price,
			Cost:         p.Cost,
			Total:        p.LineTotal(),
			Weight:       p.Weight,
			WeightUnit:   p.WeightUnit,
			Shippable:    p.Shippable,
		}
	}
	lineItems := make([]LineItemResponse, len(o.LineItems))
	for i, li := range o.LineItems {
		lineItems[i] = LineItemResponse{
			ID:     li.ID,
			Type:   string(li.Type),
			Title:  li.Title,
			Amount: li.Amount,
			Weight: li.Weight,
		}
	}

	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		OwnerID:         o.OwnerID,
		PrimaryEmail:    o.PrimaryEmail,
		StatusID:        o.StatusID,
		StatusName:      catalog.NameOf(o.StatusID),
		State:           string(o.State(catalog)),
		Currency:        o.Currency.String(),
		Products:        products,
		LineItems:       lineItems,
		ProductCount:    o.ProductCount(),
		Subtotal:        o.Subtotal(),
		Total:           o.Total(),
		TotalFormatted:  o.TotalMoney().Format(),
		BillingAddress:  o.BillingAddress,
		DeliveryAddress: o.DeliveryAddress,
		PaymentMethodID: o.PaymentMethodID,
		QuoteMethodID:   o.QuoteMethodID,
		Shippable:       o.IsShippable(),
		Host:            o.Host,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		DeletedAt:       o.DeletedAt,
		Version:         o.Version,
	}
}

// ToOrderListItemResponses converts domain orders to list responses
func ToOrderListItemResponses(orders []order.Order, catalog *order.StatusCatalog) []OrderListItemResponse {
	responses := make([]OrderListItemResponse, len(orders))
	for i := range orders {
		o := &orders[i]
		responses[i] = OrderListItemResponse{
			ID:           o.ID,
			OrderNumber:  o.OrderNumber,
			OwnerID:      o.OwnerID,
			PrimaryEmail: o.PrimaryEmail,
			StatusID:     o.StatusID,
			StatusName:   catalog.NameOf(o.StatusID),
			ProductCount: o.ProductCount(),
			Total:        o.Total(),
			Currency:     o.Currency.String(),
			CreatedAt:    o.CreatedAt,
			UpdatedAt:    o.UpdatedAt,
		}
	}
	return responses
}

// ToCommentsResponse splits the order history into comments and admin notes
func ToCommentsResponse(o *order.Order, catalog *order.StatusCatalog) CommentsResponse {
	convert := func(comments []order.Comment) []CommentResponse {
		out := make([]CommentResponse, len(comments))
		for i, c := range comments {
			out[i] = CommentResponse{
				ID:         c.ID,
				AuthorID:   c.AuthorID,
				Message:    c.Message,
				StatusID:   c.StatusID,
				StatusName: catalog.NameOf(c.StatusID),
				Notified:   c.Notified,
				CreatedAt:  c.CreatedAt,
			}
		}
		return out
	}
	return CommentsResponse{
		OrderComments: convert(o.OrderComments()),
		AdminComments: convert(o.AdminComments()),
	}
}

// ==================== Status DTOs ====================

// CreateStatusRequest represents a request to add a custom order status
type CreateStatusRequest struct {
	ID     string `json:"id" binding:"required,max=32"`
	Name   string `json:"name" binding:"required,max=48"`
	State  string `json:"state" binding:"required"`
	Weight int    `json:"weight" binding:"gte=0"`
}

// UpdateStatusConfigRequest represents a request to edit an order status
type UpdateStatusConfigRequest struct {
	Name   *string `json:"name" binding:"omitempty,max=48"`
	Weight *int    `json:"weight" binding:"gte=0"`
}

// SetStateDefaultRequest represents a request to change a state's default status
type SetStateDefaultRequest struct {
	StatusID string `json:"status_id" binding:"required"`
}

// StatusResponse represents an order status in API responses
type StatusResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	State      string `json:"state"`
	StateLabel string `json:"state_label"`
	Weight     int    `json:"weight" binding:"gte=0"`
	Locked     bool   `json:"locked"`
	Default    bool   `json:"default"`
}

// StateResponse represents an order state and its current default status
type StateResponse struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	DefaultStatus string `json:"default_status"`
}

// StatusConfigResponse lists states and statuses
type StatusConfigResponse struct {
	States   []StateResponse  `json:"states"`
	Statuses []StatusResponse `json:"statuses"`
}

// ToStatusResponse converts a status to a response
func ToStatusResponse(s order.Status, catalog *order.StatusCatalog) StatusResponse {
	def, ok := catalog.DefaultStatus(s.State)
	return StatusResponse{
		ID:         s.ID,
		Name:       s.Name,
		State:      string(s.State),
		StateLabel: s.State.Label(),
		Weight:     s.Weight,
		Locked:     s.Locked,
		Default:    ok && def.ID == s.ID,
	}
}
