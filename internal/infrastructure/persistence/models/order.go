package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// OrderModel is the persistence model for the Order aggregate root.
// Subtotal, total and product count are denormalized for listing and reports.
type OrderModel struct {
	AggregateColumns
	OrderNumber     string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	OwnerID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	PrimaryEmail    string               `gorm:"type:varchar(254)"`
	StatusID        string               `gorm:"type:varchar(32);not null;index"`
	Currency        string               `gorm:"type:varchar(3);not null;default:'USD'"`
	Subtotal        decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	OrderTotal      decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0;index"`
	ProductCount    int                  `gorm:"not null;default:0"`
	BillingAddress  valueobject.Address  `gorm:"type:jsonb"`
	DeliveryAddress valueobject.Address  `gorm:"type:jsonb"`
	PaymentMethodID string               `gorm:"type:varchar(32)"`
	QuoteMethodID   string               `gorm:"type:varchar(32)"`
	CreditTxns      order.CreditTxns     `gorm:"type:jsonb"`
	Host            string               `gorm:"type:varchar(255)"`
	DeletedAt       *time.Time           `gorm:"index"`
	Products        []OrderProductModel  `gorm:"foreignKey:OrderID;references:ID"`
	LineItems       []OrderLineItemModel `gorm:"foreignKey:OrderID;references:ID"`
	Comments        []OrderCommentModel  `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order.
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		OrderNumber:     m.OrderNumber,
		OwnerID:         m.OwnerID,
		PrimaryEmail:    m.PrimaryEmail,
		StatusID:        m.StatusID,
		Currency:        valueobject.Currency(m.Currency),
		BillingAddress:  m.BillingAddress,
		DeliveryAddress: m.DeliveryAddress,
		PaymentMethodID: m.PaymentMethodID,
		QuoteMethodID:   m.QuoteMethodID,
		CreditTxns:      m.CreditTxns,
		Host:            m.Host,
		DeletedAt:       m.DeletedAt,
		Products:        make([]order.OrderProduct, len(m.Products)),
		LineItems:       make([]order.LineItem, len(m.LineItems)),
		Comments:        make([]order.Comment, len(m.Comments)),
	}
	o.BaseAggregateRoot = m.aggregate()
	if o.CreditTxns.Authorizations == nil {
		o.CreditTxns = order.NewCreditTxns()
	}
	for i := range m.Products {
		o.Products[i] = *m.Products[i].ToDomain()
	}
	for i := range m.LineItems {
		o.LineItems[i] = *m.LineItems[i].ToDomain()
	}
	for i := range m.Comments {
		o.Comments[i] = *m.Comments[i].ToDomain()
	}
	return o
}

// FromDomain populates the persistence model from a domain Order.
func (m *OrderModel) FromDomain(o *order.Order) {
	m.AggregateColumns = aggregateColumns(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.OwnerID = o.OwnerID
	m.PrimaryEmail = o.PrimaryEmail
	m.StatusID = o.StatusID
	m.Currency = o.Currency.String()
	m.Subtotal = o.Subtotal()
	m.OrderTotal = o.Total()
	m.ProductCount = o.ProductCount()
	m.BillingAddress = o.BillingAddress
	m.DeliveryAddress = o.DeliveryAddress
	m.PaymentMethodID = o.PaymentMethodID
	m.QuoteMethodID = o.QuoteMethodID
	m.CreditTxns = o.CreditTxns
	m.Host = o.Host
	m.DeletedAt = o.DeletedAt
	m.Products = make([]OrderProductModel, len(o.Products))
	for i := range o.Products {
		m.Products[i] = *OrderProductModelFromDomain(o.ID, &o.Products[i])
	}
	m.LineItems = make([]OrderLineItemModel, len(o.LineItems))
	for i := range o.LineItems {
		m.LineItems[i] = *OrderLineItemModelFromDomain(o.ID, &o.LineItems[i])
	}
	m.Comments = make([]OrderCommentModel, len(o.Comments))
	for i := range o.Comments {
		m.Comments[i] = *OrderCommentModelFromDomain(o.ID, &o.Comments[i])
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderProductModel is the persistence model for order products.
type OrderProductModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU          string          `gorm:"column:sku;type:varchar(100);not null;index"`
	Title        string          `gorm:"type:varchar(255);not null"`
	ProductClass string          `gorm:"type:varchar(64)"`
	Qty          int             `gorm:"not null"`
	Price        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Cost         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Weight       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	WeightUnit   string          `gorm:"type:varchar(8);not null;default:'lb'"`
	Shippable    bool            `gorm:"not null"`
	Data         map[string]any  `gorm:"type:jsonb;serializer:json"`
	CreatedAt    time.Time       `gorm:"not null"`
	UpdatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderProductModel) TableName() string {
	return "order_products"
}

// ToDomain converts the persistence model to a domain OrderProduct.
func (m *OrderProductModel) ToDomain() *order.OrderProduct {
	data := m.Data
	if data == nil {
		data = map[string]any{}
	}
	return &order.OrderProduct{
		ID:           m.ID,
		OrderID:      m.OrderID,
		ProductID:    m.ProductID,
		SKU:          m.SKU,
		Title:        m.Title,
		ProductClass: m.ProductClass,
		Qty:          m.Qty,
		Price:        m.Price,
		Cost:         m.Cost,
		Weight:       m.Weight,
		WeightUnit:   m.WeightUnit,
		Shippable:    m.Shippable,
		Data:         data,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// OrderProductModelFromDomain creates a persistence model from a domain OrderProduct.
func OrderProductModelFromDomain(orderID uuid.UUID, p *order.OrderProduct) *OrderProductModel {
	return &OrderProductModel{
		ID:           p.ID,
		OrderID:      orderID,
		ProductID:    p.ProductID,
		SKU:          p.SKU,
		Title:        p.Title,
		ProductClass: p.ProductClass,
		Qty:          p.Qty,
		Price:        p.Price,
		Cost:         p.Cost,
		Weight:       p.Weight,
		WeightUnit:   p.WeightUnit,
		Shippable:    p.Shippable,
		Data:         p.Data,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// OrderLineItemModel is the persistence model for order line items.
type OrderLineItemModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type      string          `gorm:"type:varchar(32);not null"`
	Title     string          `gorm:"type:varchar(255);not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Weight    int             `gorm:"not null;default:0"`
	Data      map[string]any  `gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderLineItemModel) TableName() string {
	return "order_line_items"
}

// ToDomain converts the persistence model to a domain LineItem.
func (m *OrderLineItemModel) ToDomain() *order.LineItem {
	data := m.Data
	if data == nil {
		data = map[string]any{}
	}
	return &order.LineItem{
		ID:        m.ID,
		OrderID:   m.OrderID,
		Type:      order.LineItemType(m.Type),
		Title:     m.Title,
		Amount:    m.Amount,
		Weight:    m.Weight,
		Data:      data,
		CreatedAt: m.CreatedAt,
	}
}

// OrderLineItemModelFromDomain creates a persistence model from a domain LineItem.
func OrderLineItemModelFromDomain(orderID uuid.UUID, li *order.LineItem) *OrderLineItemModel {
	return &OrderLineItemModel{
		ID:        li.ID,
		OrderID:   orderID,
		Type:      string(li.Type),
		Title:     li.Title,
		Amount:    li.Amount,
		Weight:    li.Weight,
		Data:      li.Data,
		CreatedAt: li.CreatedAt,
	}
}

// OrderCommentModel is the persistence model for order and admin comments.
type OrderCommentModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null"`
	Kind      string    `gorm:"type:varchar(16);not null;index"`
	Message   string    `gorm:"type:text;not null"`
	StatusID  string    `gorm:"type:varchar(32)"`
	Notified  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (OrderCommentModel) TableName() string {
	return "order_comments"
}

// ToDomain converts the persistence model to a domain Comment.
func (m *OrderCommentModel) ToDomain() *order.Comment {
	return &order.Comment{
		ID:        m.ID,
		OrderID:   m.OrderID,
		AuthorID:  m.AuthorID,
		Kind:      order.CommentKind(m.Kind),
		Message:   m.Message,
		StatusID:  m.StatusID,
		Notified:  m.Notified,
		CreatedAt: m.CreatedAt,
	}
}

// OrderCommentModelFromDomain creates a persistence model from a domain Comment.
func OrderCommentModelFromDomain(orderID uuid.UUID, c *order.Comment) *OrderCommentModel {
	return &OrderCommentModel{
		ID:        c.ID,
		OrderID:   orderID,
		AuthorID:  c.AuthorID,
		Kind:      string(c.Kind),
		Message:   c.Message,
		StatusID:  c.StatusID,
		Notified:  c.Notified,
		CreatedAt: c.CreatedAt,
	}
}

// OrderStatusModel is the persistence model for configurable order statuses.
type OrderStatusModel struct {
	ID        string    `gorm:"type:varchar(32);primary_key"`
	Name      string    `gorm:"type:varchar(128);not null"`
	State     string    `gorm:"type:varchar(32);not null;index"`
	Weight    int       `gorm:"not null;default:0"`
	Locked    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderStatusModel) TableName() string {
	return "order_statuses"
}

// ToDomain converts the persistence model to a domain Status.
func (m *OrderStatusModel) ToDomain() *order.Status {
	return &order.Status{
		ID:     m.ID,
		Name:   m.Name,
		State:  order.State(m.State),
		Weight: m.Weight,
		Locked: m.Locked,
	}
}

// OrderStatusModelFromDomain creates a persistence model from a domain Status.
func OrderStatusModelFromDomain(s *order.Status) *OrderStatusModel {
	now := time.Now()
	return &OrderStatusModel{
		ID:        s.ID,
		Name:      s.Name,
		State:     string(s.State),
		Weight:    s.Weight,
		Locked:    s.Locked,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// OrderStateDefaultModel stores the configured default status of a state.
type OrderStateDefaultModel struct {
	State    string `gorm:"type:varchar(32);primary_key"`
	StatusID string `gorm:"type:varchar(32);not null"`
}

// TableName returns the table name for GORM
func (OrderStateDefaultModel) TableName() string {
	return "order_state_defaults"
}
