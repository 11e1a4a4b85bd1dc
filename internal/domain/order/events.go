package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated              = "OrderCreated"
	EventTypeOrderStatusUpdated        = "OrderStatusUpdated"
	EventTypeOrderCommentAdded         = "OrderCommentAdded"
	EventTypeOrderStatusEmailRequested = "OrderStatusEmailRequested"
	EventTypeOrderDeleted              = "OrderDeleted"
	EventTypeCheckoutStarted           = "CheckoutStarted"
	EventTypeCheckoutCompleted         = "CheckoutCompleted"
)

// OrderCreatedEvent is raised when a new order is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	OwnerID     uuid.UUID `json:"owner_id"`
	StatusID    string    `json:"status_id"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		OwnerID:         o.OwnerID,
		StatusID:        o.StatusID,
	}
}

// EventType returns the event type name
func (e *OrderCreatedEvent) EventType() string {
	return EventTypeOrderCreated
}

// OrderStatusUpdatedEvent is raised when an order moves to another status
type OrderStatusUpdatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	FromStatus  string    `json:"from_status"`
	ToStatus    string    `json:"to_status"`
	AuthorID    uuid.UUID `json:"author_id"`
}

// NewOrderStatusUpdatedEvent creates a new OrderStatusUpdatedEvent
func NewOrderStatusUpdatedEvent(o *Order, from, to string, authorID uuid.UUID) *OrderStatusUpdatedEvent {
	return &OrderStatusUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusUpdated, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		FromStatus:      from,
		ToStatus:        to,
		AuthorID:        authorID,
	}
}

// EventType returns the event type name
func (e *OrderStatusUpdatedEvent) EventType() string {
	return EventTypeOrderStatusUpdated
}

// OrderCommentAddedEvent is raised when an order or admin comment is recorded
type OrderCommentAddedEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID `json:"order_id"`
	CommentID uuid.UUID `json:"comment_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	StatusID  string    `json:"status_id"`
	Message   string    `json:"message"`
	Notified  bool      `json:"notified"`
	Admin     bool      `json:"admin"`
}

// NewOrderCommentAddedEvent creates a new OrderCommentAddedEvent
func NewOrderCommentAddedEvent(o *Order, c Comment) *OrderCommentAddedEvent {
	return &OrderCommentAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCommentAdded, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		CommentID:       c.ID,
		AuthorID:        c.AuthorID,
		StatusID:        c.StatusID,
		Message:         c.Message,
		Notified:        c.Notified,
		Admin:           c.Kind == CommentKindAdmin,
	}
}

// EventType returns the event type name
func (e *OrderCommentAddedEvent) EventType() string {
	return EventTypeOrderCommentAdded
}

// OrderStatusEmailRequestedEvent asks for the customer to be notified of an order update
type OrderStatusEmailRequestedEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID `json:"order_id"`
	OrderNumber  string    `json:"order_number"`
	PrimaryEmail string    `json:"primary_email"`
	StatusID     string    `json:"status_id"`
	Message      string    `json:"message"`
}

// NewOrderStatusEmailRequestedEvent creates a new OrderStatusEmailRequestedEvent
func NewOrderStatusEmailRequestedEvent(o *Order, c Comment) *OrderStatusEmailRequestedEvent {
	return &OrderStatusEmailRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusEmailRequested, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		PrimaryEmail:    o.PrimaryEmail,
		StatusID:        c.StatusID,
		Message:         c.Message,
	}
}

// EventType returns the event type name
func (e *OrderStatusEmailRequestedEvent) EventType() string {
	return EventTypeOrderStatusEmailRequested
}

// OrderDeletedEvent is raised when an order is deleted.
// Fulfillment listens to drop the order's packages and shipments.
type OrderDeletedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
}

// NewOrderDeletedEvent creates a new OrderDeletedEvent
func NewOrderDeletedEvent(o *Order) *OrderDeletedEvent {
	return &OrderDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderDeleted, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
	}
}

// EventType returns the event type name
func (e *OrderDeletedEvent) EventType() string {
	return EventTypeOrderDeleted
}

// CheckoutStartedEvent is raised when a customer enters checkout
type CheckoutStartedEvent struct {
	shared.BaseDomainEvent
	OrderID  uuid.UUID       `json:"order_id"`
	OwnerID  uuid.UUID       `json:"owner_id"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// NewCheckoutStartedEvent creates a new CheckoutStartedEvent
func NewCheckoutStartedEvent(o *Order) *CheckoutStartedEvent {
	return &CheckoutStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCheckoutStarted, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OwnerID:         o.OwnerID,
		Subtotal:        o.Subtotal(),
	}
}

// EventType returns the event type name
func (e *CheckoutStartedEvent) EventType() string {
	return EventTypeCheckoutStarted
}

// CheckoutProductInfo describes a purchased product for checkout events
type CheckoutProductInfo struct {
	OrderProductID uuid.UUID `json:"order_product_id"`
	ProductID      uuid.UUID `json:"product_id"`
	SKU            string    `json:"sku"`
	Title          string    `json:"title"`
	Qty            int       `json:"qty"`
}

// CheckoutCompletedEvent is raised when an order leaves checkout.
// Stock levels are decremented in response.
type CheckoutCompletedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID             `json:"order_id"`
	OrderNumber string                `json:"order_number"`
	OwnerID     uuid.UUID             `json:"owner_id"`
	Total       decimal.Decimal       `json:"total"`
	Currency    string                `json:"currency"`
	Products    []CheckoutProductInfo `json:"products"`
}

// NewCheckoutCompletedEvent creates a new CheckoutCompletedEvent
func NewCheckoutCompletedEvent(o *Order) *CheckoutCompletedEvent {
	products := make([]CheckoutProductInfo, len(o.Products))
	for i, p := range o.Products {
		products[i] = CheckoutProductInfo{
			OrderProductID: p.ID,
			ProductID:      p.ProductID,
			SKU:            p.SKU,
			Title:          p.Title,
			Qty:            p.Qty,
		}
	}
	return &CheckoutCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCheckoutCompleted, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		OwnerID:         o.OwnerID,
		Total:           o.Total(),
		Currency:        o.Currency.String(),
		Products:        products,
	}
}

// EventType returns the event type name
func (e *CheckoutCompletedEvent) EventType() string {
	return EventTypeCheckoutCompleted
}
