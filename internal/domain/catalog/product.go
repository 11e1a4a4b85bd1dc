// Package catalog holds the products the store sells. Order lines copy a
// product's SKU, title, price, cost and shipping attributes when the
// product is added, so later catalog edits never change placed orders.
package catalog

import (
	"context"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// WeightUnits are the accepted product weight units
var WeightUnits = []string{"lb", "kg", "oz", "g"}

// Product is a catalog entry
type Product struct {
	shared.BaseAggregateRoot
	SKU          string
	Title        string
	Description  string
	ProductClass string
	Price        decimal.Decimal
	Cost         decimal.Decimal
	Weight       decimal.Decimal
	WeightUnit   string
	Shippable    bool
	// Active products can be added to carts and orders
	Active bool
}

// Details are the editable attributes of a product
type Details struct {
	SKU          string
	Title        string
	Description  string
	ProductClass string
	Price        decimal.Decimal
	Cost         decimal.Decimal
	Weight       decimal.Decimal
	WeightUnit   string
	Shippable    bool
}

// NewProduct creates an active product
func NewProduct(d Details) (*Product, error) {
	p := &Product{BaseAggregateRoot: shared.NewBaseAggregateRoot(), Active: true}
	if err := p.apply(d); err != nil {
		return nil, err
	}
	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// Update replaces the product details
func (p *Product) Update(d Details) error {
	oldPrice := p.Price
	if err := p.apply(d); err != nil {
		return err
	}
	p.touch()
	p.AddDomainEvent(NewProductUpdatedEvent(p, oldPrice))
	return nil
}

// SetActive publishes or withdraws the product
func (p *Product) SetActive(active bool) {
	if p.Active == active {
		return
	}
	p.Active = active
	p.touch()
	p.AddDomainEvent(NewProductUpdatedEvent(p, p.Price))
}

// MarkDeleted raises ProductDeleted. The repository removes the row.
func (p *Product) MarkDeleted() {
	p.AddDomainEvent(NewProductDeletedEvent(p))
}

// CheckOrderable fails when the product cannot be added to an order
func (p *Product) CheckOrderable() error {
	if !p.Active {
		return shared.Errorf("PRODUCT_UNAVAILABLE", "%s is not available.", p.Title)
	}
	return nil
}

func (p *Product) apply(d Details) error {
	sku := strings.TrimSpace(d.SKU)
	title := strings.TrimSpace(d.Title)
	switch {
	case sku == "":
		return shared.NewDomainError("INVALID_SKU", "Product SKU cannot be empty")
	case len(sku) > 100:
		return shared.NewDomainError("INVALID_SKU", "Product SKU cannot exceed 100 characters")
	case title == "":
		return shared.NewDomainError("INVALID_TITLE", "Product title cannot be empty")
	case utf8.RuneCountInString(title) > 255:
		return shared.NewDomainError("INVALID_TITLE", "Product title cannot exceed 255 characters")
	case d.Price.IsNegative():
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	case d.Cost.IsNegative():
		return shared.NewDomainError("INVALID_PRICE", "Cost cannot be negative")
	case d.Weight.IsNegative():
		return shared.NewDomainError("INVALID_WEIGHT", "Weight cannot be negative")
	}
	unit := strings.ToLower(strings.TrimSpace(d.WeightUnit))
	if unit == "" {
		unit = "lb"
	}
	if !validWeightUnit(unit) {
		return shared.Errorf("INVALID_WEIGHT", "Unknown weight unit %s", d.WeightUnit)
	}

	p.SKU = sku
	p.Title = title
	p.Description = d.Description
	p.ProductClass = strings.TrimSpace(d.ProductClass)
	p.Price = d.Price
	p.Cost = d.Cost
	p.Weight = d.Weight
	p.WeightUnit = unit
	p.Shippable = d.Shippable
	return nil
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now()
}

func validWeightUnit(unit string) bool {
	return slices.Contains(WeightUnits, unit)
}

// Filter keys understood by ProductRepository.FindAll
const (
	FilterActive       = "active"
	FilterProductClass = "product_class"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindBySKU finds a product by its SKU
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// FindAll finds all products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsBySKU checks whether another product uses sku
	ExistsBySKU(ctx context.Context, sku string, exceptID uuid.UUID) (bool, error)

	// Save creates or overwrites a product
	Save(ctx context.Context, p *Product) error

	// SaveWithLock updates a product when its stored version matches and
	// bumps the version. A stale version is ErrConcurrencyConflict.
	SaveWithLock(ctx context.Context, p *Product) error

	// Delete removes a product
	Delete(ctx context.Context, id uuid.UUID) error
}
