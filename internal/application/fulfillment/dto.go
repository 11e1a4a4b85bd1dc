package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// PackageLineRequest is a quantity of an order product to package
type PackageLineRequest struct {
	OrderProductID uuid.UUID `json:"order_product_id" binding:"required"`
	Qty            int       `json:"qty" binding:"required,min=1"`
}

// CreatePackagesRequest packages order products. With SeparatePackages each
// product line gets its own package.
type CreatePackagesRequest struct {
	ShippingType     string               `json:"shipping_type" binding:"max=64"`
	Products         []PackageLineRequest `json:"products" binding:"required,min=1,dive"`
	SeparatePackages bool                 `json:"separate_packages"`
}

// UpdatePackageRequest edits an unshipped package
type UpdatePackageRequest struct {
	ShippingType   string                 `json:"shipping_type" binding:"max=64"`
	Products       []PackageLineRequest   `json:"products" binding:"required,min=1,dive"`
	Weight         decimal.Decimal        `json:"weight"`
	Dimensions     fulfillment.Dimensions `json:"dimensions"`
	Value          decimal.Decimal        `json:"value"`
	TrackingNumber string                 `json:"tracking_number" binding:"max=255"`
}

// ShipmentRequest creates or edits a shipment
type ShipmentRequest struct {
	PackageIDs       []uuid.UUID          `json:"package_ids"`
	Method           string               `json:"method" binding:"max=255"`
	Carrier          string               `json:"carrier" binding:"max=255"`
	AccessorialNote  string               `json:"accessorials" binding:"max=255"`
	TransactionID    string               `json:"transaction_id" binding:"max=255"`
	TrackingNumber   string               `json:"tracking_number" binding:"max=255"`
	ShipDate         *time.Time           `json:"ship_date"`
	ExpectedDelivery *time.Time           `json:"expected_delivery"`
	Cost             decimal.Decimal      `json:"cost"`
	Origin           valueobject.Address  `json:"origin"`
	Destination      *valueobject.Address `json:"destination"`
}

// ShippableProductResponse is an order product awaiting packaging
type ShippableProductResponse struct {
	OrderProductID uuid.UUID `json:"order_product_id"`
	SKU            string    `json:"sku"`
	Title          string    `json:"title"`
	Qty            int       `json:"qty"`
}

// PackageResponse represents a package in API responses
type PackageResponse struct {
	ID             uuid.UUID              `json:"id"`
	OrderID        uuid.UUID              `json:"order_id"`
	ShippingType   string                 `json:"shipping_type"`
	Products       []string               `json:"products"`
	Lines          []PackageLineRequest   `json:"lines"`
	Weight         decimal.Decimal        `json:"weight"`
	WeightUnit     string                 `json:"weight_unit"`
	Dimensions     fulfillment.Dimensions `json:"dimensions"`
	Value          decimal.Decimal        `json:"value"`
	TrackingNumber string                 `json:"tracking_number,omitempty"`
	ShipmentID     *uuid.UUID             `json:"shipment_id,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// PackagesResponse lists the packages of an order
type PackagesResponse struct {
	Packages []PackageResponse `json:"packages"`
	Message  string            `json:"message,omitempty"`
}

// ShipmentResponse represents a shipment in API responses
type ShipmentResponse struct {
	ID               uuid.UUID           `json:"id"`
	OrderID          uuid.UUID           `json:"order_id"`
	Method           string              `json:"method"`
	Carrier          string              `json:"carrier"`
	AccessorialNote  string              `json:"accessorials,omitempty"`
	TransactionID    string              `json:"transaction_id,omitempty"`
	TrackingNumber   string              `json:"tracking_number,omitempty"`
	ShipDate         time.Time           `json:"ship_date"`
	ExpectedDelivery *time.Time          `json:"expected_delivery,omitempty"`
	Cost             decimal.Decimal     `json:"cost"`
	Currency         string              `json:"currency"`
	Origin           valueobject.Address `json:"origin"`
	Destination      valueobject.Address `json:"destination"`
	PackageIDs       []uuid.UUID         `json:"package_ids"`
}

// ShipmentsResponse lists the shipments of an order
type ShipmentsResponse struct {
	Shipments []ShipmentResponse `json:"shipments"`
	Message   string             `json:"message,omitempty"`
}

// ToPackageResponse converts a package to a response
func ToPackageResponse(p *fulfillment.Package) PackageResponse {
	lines := make([]PackageLineRequest, len(p.Lines))
	for i, l := range p.Lines {
		lines[i] = PackageLineRequest{OrderProductID: l.OrderProductID, Qty: l.Qty}
	}
	return PackageResponse{
		ID:             p.ID,
		OrderID:        p.OrderID,
		ShippingType:   p.ShippingType,
		Products:       p.Describe(),
		Lines:          lines,
		Weight:         p.Weight,
		WeightUnit:     p.WeightUnit,
		Dimensions:     p.Dimensions,
		Value:          p.Value,
		TrackingNumber: p.TrackingNumber,
		ShipmentID:     p.ShipmentID,
		CreatedAt:      p.CreatedAt,
	}
}

// ToShipmentResponse converts a shipment to a response
func ToShipmentResponse(s *fulfillment.Shipment) ShipmentResponse {
	return ShipmentResponse{
		ID:               s.ID,
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
}
