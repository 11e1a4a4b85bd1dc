package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shipping"
	"github.com/storefront/backend/internal/domain/stock"
	"github.com/storefront/backend/internal/domain/tax"
)

// PaymentMethodModel is the persistence model for payment method configuration.
type PaymentMethodModel struct {
	ID        string    `gorm:"type:varchar(32);primary_key"`
	Plugin    string    `gorm:"type:varchar(32);not null"`
	Label     string    `gorm:"type:varchar(128);not null"`
	Weight    int       `gorm:"not null;default:0"`
	Enabled   bool      `gorm:"not null;index"`
	Settings  string    `gorm:"type:jsonb"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentMethodModel) TableName() string {
	return "payment_methods"
}

// ToDomain converts the persistence model to a domain payment Method.
func (m *PaymentMethodModel) ToDomain() *payment.Method {
	var settings json.RawMessage
	if m.Settings != "" {
		settings = json.RawMessage(m.Settings)
	}
	return &payment.Method{
		ID:        m.ID,
		Plugin:    payment.Plugin(m.Plugin),
		Label:     m.Label,
		Weight:    m.Weight,
		Enabled:   m.Enabled,
		Settings:  settings,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// PaymentMethodModelFromDomain creates a persistence model from a domain payment Method.
func PaymentMethodModelFromDomain(pm *payment.Method) *PaymentMethodModel {
	settings := string(pm.Settings)
	if settings == "" {
		settings = "{}"
	}
	return &PaymentMethodModel{
		ID:        pm.ID,
		Plugin:    string(pm.Plugin),
		Label:     pm.Label,
		Weight:    pm.Weight,
		Enabled:   pm.Enabled,
		Settings:  settings,
		CreatedAt: pm.CreatedAt,
		UpdatedAt: pm.UpdatedAt,
	}
}

// PaymentReceiptModel is the persistence model for payment receipts.
type PaymentReceiptModel struct {
	ID         uuid.UUID         `gorm:"type:uuid;primary_key"`
	OrderID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	MethodID   string            `gorm:"type:varchar(32);not null"`
	Amount     decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Currency   string            `gorm:"type:varchar(3);not null"`
	AuthorID   uuid.UUID         `gorm:"type:uuid;not null"`
	Comment    string            `gorm:"type:text"`
	Data       map[string]string `gorm:"type:jsonb;serializer:json"`
	ReceivedAt time.Time         `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PaymentReceiptModel) TableName() string {
	return "payment_receipts"
}

// ToDomain converts the persistence model to a domain Receipt.
func (m *PaymentReceiptModel) ToDomain() *payment.Receipt {
	data := m.Data
	if data == nil {
		data = map[string]string{}
	}
	return &payment.Receipt{
		ID:         m.ID,
		OrderID:    m.OrderID,
		MethodID:   m.MethodID,
		Amount:     m.Amount,
		Currency:   m.Currency,
		AuthorID:   m.AuthorID,
		Comment:    m.Comment,
		Data:       data,
		ReceivedAt: m.ReceivedAt,
	}
}

// PaymentReceiptModelFromDomain creates a persistence model from a domain Receipt.
func PaymentReceiptModelFromDomain(r *payment.Receipt) *PaymentReceiptModel {
	return &PaymentReceiptModel{
		ID:         r.ID,
		OrderID:    r.OrderID,
		MethodID:   r.MethodID,
		Amount:     r.Amount,
		Currency:   r.Currency,
		AuthorID:   r.AuthorID,
		Comment:    r.Comment,
		Data:       r.Data,
		ReceivedAt: r.ReceivedAt,
	}
}

// QuoteMethodModel is the persistence model for shipping quote methods.
type QuoteMethodModel struct {
	ID          string          `gorm:"type:varchar(32);primary_key"`
	Plugin      string          `gorm:"type:varchar(32);not null"`
	Label       string          `gorm:"type:varchar(128);not null"`
	Weight      int             `gorm:"not null;default:0"`
	Enabled     bool            `gorm:"not null;index"`
	BaseRate    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ProductRate decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (QuoteMethodModel) TableName() string {
	return "shipping_quote_methods"
}

// ToDomain converts the persistence model to a domain QuoteMethod.
func (m *QuoteMethodModel) ToDomain() *shipping.QuoteMethod {
	return &shipping.QuoteMethod{
		ID:          m.ID,
		Plugin:      m.Plugin,
		Label:       m.Label,
		Weight:      m.Weight,
		Enabled:     m.Enabled,
		BaseRate:    m.BaseRate,
		ProductRate: m.ProductRate,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// QuoteMethodModelFromDomain creates a persistence model from a domain QuoteMethod.
func QuoteMethodModelFromDomain(q *shipping.QuoteMethod) *QuoteMethodModel {
	return &QuoteMethodModel{
		ID:          q.ID,
		Plugin:      q.Plugin,
		Label:       q.Label,
		Weight:      q.Weight,
		Enabled:     q.Enabled,
		BaseRate:    q.BaseRate,
		ProductRate: q.ProductRate,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

// TaxRateModel is the persistence model for tax rates.
type TaxRateModel struct {
	ID             string          `gorm:"type:varchar(64);primary_key"`
	Plugin         string          `gorm:"type:varchar(32);not null"`
	Label          string          `gorm:"type:varchar(128);not null"`
	Rate           decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	Jurisdiction   string          `gorm:"type:varchar(128)"`
	ShippableOnly  bool            `gorm:"not null"`
	ProductTypes   []string        `gorm:"type:jsonb;serializer:json"`
	LineItemTypes  []string        `gorm:"type:jsonb;serializer:json"`
	Weight         int             `gorm:"not null;default:0"`
	DisplayInclude bool            `gorm:"not null"`
	InclusionText  string          `gorm:"type:varchar(255)"`
	Enabled        bool            `gorm:"not null;index"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TaxRateModel) TableName() string {
	return "tax_rates"
}

// ToDomain converts the persistence model to a domain tax Rate.
func (m *TaxRateModel) ToDomain() *tax.Rate {
	return &tax.Rate{
		ID:             m.ID,
		Plugin:         m.Plugin,
		Label:          m.Label,
		Rate:           m.Rate,
		Jurisdiction:   m.Jurisdiction,
		ShippableOnly:  m.ShippableOnly,
		ProductTypes:   append([]string(nil), m.ProductTypes...),
		LineItemTypes:  append([]string(nil), m.LineItemTypes...),
		Weight:         m.Weight,
		DisplayInclude: m.DisplayInclude,
		InclusionText:  m.InclusionText,
		Enabled:        m.Enabled,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// TaxRateModelFromDomain creates a persistence model from a domain tax Rate.
func TaxRateModelFromDomain(r *tax.Rate) *TaxRateModel {
	return &TaxRateModel{
		ID:             r.ID,
		Plugin:         r.Plugin,
		Label:          r.Label,
		Rate:           r.Rate,
		Jurisdiction:   r.Jurisdiction,
		ShippableOnly:  r.ShippableOnly,
		ProductTypes:   r.ProductTypes,
		LineItemTypes:  r.LineItemTypes,
		Weight:         r.Weight,
		DisplayInclude: r.DisplayInclude,
		InclusionText:  r.InclusionText,
		Enabled:        r.Enabled,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// StockLevelModel is the persistence model for SKU stock levels.
type StockLevelModel struct {
	SKU       string    `gorm:"column:sku;type:varchar(100);primary_key"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Active    bool      `gorm:"not null"`
	Stock     int       `gorm:"not null;default:0"`
	Threshold int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockLevelModel) TableName() string {
	return "stock_levels"
}

// ToDomain converts the persistence model to a domain stock Level.
func (m *StockLevelModel) ToDomain() *stock.Level {
	return &stock.Level{
		SKU:       m.SKU,
		ProductID: m.ProductID,
		Active:    m.Active,
		Stock:     m.Stock,
		Threshold: m.Threshold,
		UpdatedAt: m.UpdatedAt,
	}
}

// StockLevelModelFromDomain creates a persistence model from a domain stock Level.
func StockLevelModelFromDomain(l *stock.Level) *StockLevelModel {
	return &StockLevelModel{
		SKU:       l.SKU,
		ProductID: l.ProductID,
		Active:    l.Active,
		Stock:     l.Stock,
		Threshold: l.Threshold,
		UpdatedAt: l.UpdatedAt,
	}
}

// StoreModels returns every persistence model of the store schema, in
// dependency order, for AutoMigrate.
func StoreModels() []any {
	return []any{
		&ProductModel{},
		&OrderStatusModel{},
		&OrderStateDefaultModel{},
		&OrderModel{},
		&OrderProductModel{},
		&OrderLineItemModel{},
		&OrderCommentModel{},
		&PaymentMethodModel{},
		&PaymentReceiptModel{},
		&PackageModel{},
		&ShipmentModel{},
		&QuoteMethodModel{},
		&TaxRateModel{},
		&StockLevelModel{},
		&OutboxEntryModel{},
	}
}
