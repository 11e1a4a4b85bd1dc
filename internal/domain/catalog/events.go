package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// AggregateTypeProduct is the aggregate type of catalog events
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated = "ProductCreated"
	EventTypeProductUpdated = "ProductUpdated"
	EventTypeProductDeleted = "ProductDeleted"
)

// ProductCreatedEvent is raised when a product is added to the catalog
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	SKU       string          `json:"sku"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		SKU:             p.SKU,
		Title:           p.Title,
		Price:           p.Price,
	}
}

// EventType returns the event type name
func (e *ProductCreatedEvent) EventType() string {
	return EventTypeProductCreated
}

// ProductUpdatedEvent is raised when product details or availability change.
// OldPrice equals Price when the price was left alone.
type ProductUpdatedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	OldPrice  decimal.Decimal `json:"old_price"`
	Active    bool            `json:"active"`
}

// NewProductUpdatedEvent creates a new ProductUpdatedEvent
func NewProductUpdatedEvent(p *Product, oldPrice decimal.Decimal) *ProductUpdatedEvent {
	return &ProductUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductUpdated, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		SKU:             p.SKU,
		Price:           p.Price,
		OldPrice:        oldPrice,
		Active:          p.Active,
	}
}

// EventType returns the event type name
func (e *ProductUpdatedEvent) EventType() string {
	return EventTypeProductUpdated
}

// PriceChanged reports whether the update changed the price
func (e *ProductUpdatedEvent) PriceChanged() bool {
	return !e.Price.Equal(e.OldPrice)
}

// ProductDeletedEvent is raised when a product is removed from the catalog
type ProductDeletedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
}

// NewProductDeletedEvent creates a new ProductDeletedEvent
func NewProductDeletedEvent(p *Product) *ProductDeletedEvent {
	return &ProductDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductDeleted, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		SKU:             p.SKU,
	}
}

// EventType returns the event type name
func (e *ProductDeletedEvent) EventType() string {
	return EventTypeProductDeleted
}
