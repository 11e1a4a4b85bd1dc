package fulfillment

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Messages shown on empty fulfillment views
const (
	MessageNoPackages  = "This order's products have not been organized into packages."
	MessageNoShipments = "No shipments have been made for this order."
)

// DefaultShippingType is used for packages when no type is given
const DefaultShippingType = "small_package"

// DefaultShippingMethod is the manual shipping method used when none is given
const DefaultShippingMethod = "manual"

// Dimensions are package measurements
type Dimensions struct {
	Length decimal.Decimal `json:"length"`
	Width  decimal.Decimal `json:"width"`
	Height decimal.Decimal `json:"height"`
	Units  string          `json:"units"`
}

// PackageLine is a quantity of one order product inside a package
type PackageLine struct {
	OrderProductID uuid.UUID
	SKU            string
	Qty            int
}

// String renders the line as "qty x SKU"
func (l PackageLine) String() string {
	return fmt.Sprintf("%d x %s", l.Qty, l.SKU)
}

// Package groups order products shipped together
type Package struct {
	shared.BaseEntity
	OrderID        uuid.UUID
	ShippingType   string
	Lines          []PackageLine
	Weight         decimal.Decimal
	WeightUnit     string
	Dimensions     Dimensions
	Value          decimal.Decimal
	TrackingNumber string
	LabelImage     string
	ShipmentID     *uuid.UUID
}

// NewPackage creates an unshipped package
func NewPackage(orderID uuid.UUID, shippingType string, lines []PackageLine) (*Package, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_PACKAGE", "Select products to package")
	}
	for _, l := range lines {
		if l.Qty <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Package quantities must be positive")
		}
	}
	if shippingType == "" {
		shippingType = DefaultShippingType
	}
	return &Package{
		BaseEntity:   shared.NewBaseEntity(),
		OrderID:      orderID,
		ShippingType: shippingType,
		Lines:        lines,
		Weight:       decimal.Zero,
		WeightUnit:   "lb",
		Value:        decimal.Zero,
	}, nil
}

// IsShipped returns true once the package belongs to a shipment
func (p *Package) IsShipped() bool {
	return p.ShipmentID != nil
}

// Describe returns the "qty x SKU" lines of the package
func (p *Package) Describe() []string {
	out := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		out[i] = l.String()
	}
	return out
}

// Update replaces the editable package fields
func (p *Package) Update(shippingType string, lines []PackageLine, weight decimal.Decimal, dims Dimensions, value decimal.Decimal, tracking string) error {
	if p.IsShipped() {
		return shared.NewDomainError("INVALID_STATE", "Shipped packages cannot be edited")
	}
	if len(lines) == 0 {
		return shared.NewDomainError("INVALID_PACKAGE", "Select products to package")
	}
	for _, l := range lines {
		if l.Qty <= 0 {
			return shared.NewDomainError("INVALID_QUANTITY", "Package quantities must be positive")
		}
	}
	if shippingType != "" {
		p.ShippingType = shippingType
	}
	p.Lines = lines
	p.Weight = weight
	p.Dimensions = dims
	p.Value = value
	p.TrackingNumber = strings.TrimSpace(tracking)
	p.UpdatedAt = time.Now()
	return nil
}

// Shipment is a set of packages sent together by one carrier
type Shipment struct {
	shared.BaseAggregateRoot
	OrderID          uuid.UUID
	Method           string
	Carrier          string
	AccessorialNote  string
	TransactionID    string
	TrackingNumber   string
	ShipDate         time.Time
	ExpectedDelivery *time.Time
	Cost             decimal.Decimal
	Currency         string
	Origin           valueobject.Address
	Destination      valueobject.Address
	PackageIDs       []uuid.UUID
}

// ShipmentDetails are the fields entered when shipping packages
type ShipmentDetails struct {
	Method           string
	Carrier          string
	AccessorialNote  string
	TransactionID    string
	TrackingNumber   string
	ShipDate         time.Time
	ExpectedDelivery *time.Time
	Cost             decimal.Decimal
	Currency         string
	Origin           valueobject.Address
	Destination      valueobject.Address
}

// NewShipment ships the given packages. Every package must belong to the order and be unshipped.
func NewShipment(orderID uuid.UUID, packages []*Package, details ShipmentDetails) (*Shipment, error) {
	if len(packages) == 0 {
		return nil, shared.NewDomainError("INVALID_SHIPMENT", "Select packages to ship")
	}
	ids := make([]uuid.UUID, 0, len(packages))
	seen := make(map[uuid.UUID]struct{}, len(packages))
	for _, p := range packages {
		if _, dup := seen[p.ID]; dup {
			return nil, shared.NewDomainError("INVALID_SHIPMENT", "A package can only be listed once per shipment")
		}
		seen[p.ID] = struct{}{}
		if p.OrderID != orderID {
			return nil, shared.NewDomainError("INVALID_SHIPMENT", "Package does not belong to this order")
		}
		if p.IsShipped() {
			return nil, shared.NewDomainError("INVALID_STATE", "Package has already been shipped")
		}
		ids = append(ids, p.ID)
	}
	if details.Method == "" {
		details.Method = DefaultShippingMethod
	}
	if details.ShipDate.IsZero() {
		details.ShipDate = time.Now()
	}

	s := &Shipment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		PackageIDs:        ids,
	}
	s.apply(details)
	for _, p := range packages {
		id := s.ID
		p.ShipmentID = &id
		if p.TrackingNumber == "" {
			p.TrackingNumber = s.TrackingNumber
		}
		p.UpdatedAt = time.Now()
	}
	s.AddDomainEvent(NewShipmentSavedEvent(s))
	return s, nil
}

func (s *Shipment) apply(d ShipmentDetails) {
	s.Method = d.Method
	s.Carrier = strings.TrimSpace(d.Carrier)
	s.AccessorialNote = strings.TrimSpace(d.AccessorialNote)
	s.TransactionID = strings.TrimSpace(d.TransactionID)
	s.TrackingNumber = strings.TrimSpace(d.TrackingNumber)
	s.ShipDate = d.ShipDate
	s.ExpectedDelivery = d.ExpectedDelivery
	s.Cost = d.Cost
	s.Currency = d.Currency
	s.Origin = d.Origin.Normalize()
	s.Destination = d.Destination.Normalize()
}

// Update edits the shipment details and raises ShipmentSaved
func (s *Shipment) Update(d ShipmentDetails) {
	if d.Method == "" {
		d.Method = s.Method
	}
	if d.ShipDate.IsZero() {
		d.ShipDate = s.ShipDate
	}
	s.apply(d)
	s.UpdatedAt = time.Now()
	s.AddDomainEvent(NewShipmentSavedEvent(s))
}

// ReleasePackages detaches the shipment from its packages
func ReleasePackages(packages []*Package) {
	for _, p := range packages {
		p.ShipmentID = nil
		p.UpdatedAt = time.Now()
	}
}

// ShippableProduct is the fulfillment view of an order product
type ShippableProduct struct {
	OrderProductID uuid.UUID
	SKU            string
	Title          string
	Qty            int
}

// UnpackagedQuantities returns, per product, the quantity not yet placed in a package.
// Products fully packaged are omitted.
func UnpackagedQuantities(products []ShippableProduct, packages []Package) []ShippableProduct {
	packaged := make(map[uuid.UUID]int)
	for _, p := range packages {
		for _, l := range p.Lines {
			packaged[l.OrderProductID] += l.Qty
		}
	}
	var out []ShippableProduct
	for _, sp := range products {
		remaining := sp.Qty - packaged[sp.OrderProductID]
		if remaining > 0 {
			sp.Qty = remaining
			out = append(out, sp)
		}
	}
	return out
}

// ValidatePackaging checks that the requested lines fit into the unpackaged quantities
func ValidatePackaging(available []ShippableProduct, lines []PackageLine) error {
	remaining := make(map[uuid.UUID]int, len(available))
	for _, a := range available {
		remaining[a.OrderProductID] = a.Qty
	}
	for _, l := range lines {
		if l.Qty > remaining[l.OrderProductID] {
			return shared.Errorf("INVALID_QUANTITY", "Only %d of %s remain to be packaged", remaining[l.OrderProductID], l.SKU)
		}
		remaining[l.OrderProductID] -= l.Qty
	}
	return nil
}

// TrackingNumbers returns the distinct tracking numbers of the shipments, sorted
func TrackingNumbers(shipments []Shipment, packages []Package) []string {
	seen := make(map[string]struct{})
	for _, s := range shipments {
		if s.TrackingNumber != "" {
			seen[s.TrackingNumber] = struct{}{}
		}
	}
	for _, p := range packages {
		if p.IsShipped() && p.TrackingNumber != "" {
			seen[p.TrackingNumber] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
