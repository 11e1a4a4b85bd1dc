package models

import (
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for catalog products.
type ProductModel struct {
	AggregateColumns
	SKU          string          `gorm:"column:sku;type:varchar(100);not null;uniqueIndex"`
	Title        string          `gorm:"type:varchar(255);not null"`
	Description  string          `gorm:"type:text"`
	ProductClass string          `gorm:"type:varchar(64);index"`
	Price        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Cost         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Weight       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	WeightUnit   string          `gorm:"type:varchar(8);not null;default:'lb'"`
	Shippable    bool            `gorm:"not null"`
	Active       bool            `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.aggregate(),
		SKU:               m.SKU,
		Title:             m.Title,
		Description:       m.Description,
		ProductClass:      m.ProductClass,
		Price:             m.Price,
		Cost:              m.Cost,
		Weight:            m.Weight,
		WeightUnit:        m.WeightUnit,
		Shippable:         m.Shippable,
		Active:            m.Active,
	}
}

// ProductModelFromDomain creates a persistence model from a domain Product.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	return &ProductModel{
		AggregateColumns: aggregateColumns(p.BaseAggregateRoot),
		SKU:              p.SKU,
		Title:            p.Title,
		Description:      p.Description,
		ProductClass:     p.ProductClass,
		Price:            p.Price,
		Cost:             p.Cost,
		Weight:           p.Weight,
		WeightUnit:       p.WeightUnit,
		Shippable:        p.Shippable,
		Active:           p.Active,
	}
}
