package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// PackageLineModel is the JSON form of a package line
type PackageLineModel struct {
	OrderProductID uuid.UUID `json:"order_product_id"`
	SKU            string    `json:"sku"`
	Qty            int       `json:"qty"`
}

// PackageModel is the persistence model for packages.
type PackageModel struct {
	EntityColumns
	OrderID        uuid.UUID          `gorm:"type:uuid;not null;index"`
	ShippingType   string             `gorm:"type:varchar(64);not null"`
	Lines          []PackageLineModel `gorm:"type:jsonb;serializer:json"`
	Weight         decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	WeightUnit     string             `gorm:"type:varchar(8)"`
	Length         decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	Width          decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	Height         decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	LengthUnits    string             `gorm:"type:varchar(8)"`
	Value          decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	TrackingNumber string             `gorm:"type:varchar(255)"`
	LabelImage     string             `gorm:"type:varchar(255)"`
	ShipmentID     *uuid.UUID         `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (PackageModel) TableName() string {
	return "packages"
}

// ToDomain converts the persistence model to a domain Package.
func (m *PackageModel) ToDomain() *fulfillment.Package {
	p := &fulfillment.Package{
		BaseEntity:   m.entity(),
		OrderID:      m.OrderID,
		ShippingType: m.ShippingType,
		Lines:        make([]fulfillment.PackageLine, len(m.Lines)),
		Weight:       m.Weight,
		WeightUnit:   m.WeightUnit,
		Dimensions: fulfillment.Dimensions{
			Length: m.Length,
			Width:  m.Width,
			Height: m.Height,
			Units:  m.LengthUnits,
		},
		Value:          m.Value,
		TrackingNumber: m.TrackingNumber,
		LabelImage:     m.LabelImage,
		ShipmentID:     m.ShipmentID,
	}
	for i, l := range m.Lines {
		p.Lines[i] = fulfillment.PackageLine{OrderProductID: l.OrderProductID, SKU: l.SKU, Qty: l.Qty}
	}
	return p
}

// PackageModelFromDomain creates a persistence model from a domain Package.
func PackageModelFromDomain(p *fulfillment.Package) *PackageModel {
	m := &PackageModel{
		OrderID:        p.OrderID,
		ShippingType:   p.ShippingType,
		Lines:          make([]PackageLineModel, len(p.Lines)),
		Weight:         p.Weight,
		WeightUnit:     p.WeightUnit,
		Length:         p.Dimensions.Length,
		Width:          p.Dimensions.Width,
		Height:         p.Dimensions.Height,
		LengthUnits:    p.Dimensions.Units,
		Value:          p.Value,
		TrackingNumber: p.TrackingNumber,
		LabelImage:     p.LabelImage,
		ShipmentID:     p.ShipmentID,
	}
	m.EntityColumns = entityColumns(p.BaseEntity)
	for i, l := range p.Lines {
		m.Lines[i] = PackageLineModel{OrderProductID: l.OrderProductID, SKU: l.SKU, Qty: l.Qty}
	}
	return m
}

// ShipmentModel is the persistence model for the Shipment aggregate root.
type ShipmentModel struct {
	AggregateColumns
	OrderID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Method           string    `gorm:"type:varchar(64);not null"`
	Carrier          string    `gorm:"type:varchar(128)"`
	AccessorialNote  string    `gorm:"type:varchar(255)"`
	TransactionID    string    `gorm:"type:varchar(128)"`
	TrackingNumber   string    `gorm:"type:varchar(255)"`
	ShipDate         time.Time `gorm:"not null"`
	ExpectedDelivery *time.Time
	Cost             decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Currency         string              `gorm:"type:varchar(3)"`
	Origin           valueobject.Address `gorm:"type:jsonb"`
	Destination      valueobject.Address `gorm:"type:jsonb"`
	PackageIDs       []uuid.UUID         `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (ShipmentModel) TableName() string {
	return "shipments"
}

// ToDomain converts the persistence model to a domain Shipment.
func (m *ShipmentModel) ToDomain() *fulfillment.Shipment {
	s := &fulfillment.Shipment{
		OrderID:          m.OrderID,
		Method:           m.Method,
		Carrier:          m.Carrier,
		AccessorialNote:  m.AccessorialNote,
		TransactionID:    m.TransactionID,
		TrackingNumber:   m.TrackingNumber,
		ShipDate:         m.ShipDate,
		ExpectedDelivery: m.ExpectedDelivery,
		Cost:             m.Cost,
		Currency:         m.Currency,
		Origin:           m.Origin,
		Destination:      m.Destination,
		PackageIDs:       append([]uuid.UUID(nil), m.PackageIDs...),
	}
	s.BaseAggregateRoot = m.aggregate()
	return s
}

// ShipmentModelFromDomain creates a persistence model from a domain Shipment.
func ShipmentModelFromDomain(s *fulfillment.Shipment) *ShipmentModel {
	m := &ShipmentModel{
		OrderID:          s.OrderID,
		Method:           s.Method,
		Carrier:          s.Carrier,
		AccessorialNote:  s.AccessorialNote,
		TransactionID:    s.TransactionID,
		TrackingNumber:   s.TrackingNumber,
		ShipDate:         s.ShipDate,
		ExpectedDelivery: s.ExpectedDelivery,
		Cost:             s.Cost,
		Currency:         s.Currency,
		Origin:           s.Origin,
		Destination:      s.Destination,
		PackageIDs:       s.PackageIDs,
	}
	m.AggregateColumns = aggregateColumns(s.BaseAggregateRoot)
	return m
}
