package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
)

// ProductRequest carries the editable fields of a product
type ProductRequest struct {
	SKU          string          `json:"sku" binding:"required,max=100,sku"`
	Title        string          `json:"title" binding:"required,max=255"`
	Description  string          `json:"description"`
	ProductClass string          `json:"product_class" binding:"max=32"`
	Price        decimal.Decimal `json:"price"`
	Cost         decimal.Decimal `json:"cost"`
	Weight       decimal.Decimal `json:"weight"`
	WeightUnit   string          `json:"weight_unit" binding:"omitempty,oneof=lb kg oz g"`
	Shippable    bool            `json:"shippable"`
}

func (r ProductRequest) details() catalog.Details {
	return catalog.Details{
		SKU:          r.SKU,
		Title:        r.Title,
		Description:  r.Description,
		ProductClass: r.ProductClass,
		Price:        r.Price,
		Cost:         r.Cost,
		Weight:       r.Weight,
		WeightUnit:   r.WeightUnit,
		Shippable:    r.Shippable,
	}
}

// CreateProductRequest adds a product. Inactive products are stored withdrawn.
type CreateProductRequest struct {
	ProductRequest
	Active *bool `json:"active"`
}

// UpdateProductRequest replaces a product's details
type UpdateProductRequest struct {
	ProductRequest
}

// SetActiveRequest publishes or withdraws a product
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// ProductListFilter filters the product list
type ProductListFilter struct {
	Search       string `form:"search"`
	ProductClass string `form:"product_class"`
	Active       *bool  `form:"active"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string `form:"order_by" binding:"omitempty,oneof=sku title price created_at updated_at"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ProductResponse represents a product in admin API responses
type ProductResponse struct {
	ID           uuid.UUID       `json:"id"`
	SKU          string          `json:"sku"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	ProductClass string          `json:"product_class,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Cost         decimal.Decimal `json:"cost"`
	Weight       decimal.Decimal `json:"weight"`
	WeightUnit   string          `json:"weight_unit"`
	Shippable    bool            `json:"shippable"`
	Active       bool            `json:"active"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// PublicProductResponse is the storefront view of a product. Cost is omitted.
type PublicProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	SKU         string          `json:"sku"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Weight      decimal.Decimal `json:"weight"`
	WeightUnit  string          `json:"weight_unit"`
	Shippable   bool            `json:"shippable"`
}

// ToProductResponse converts a product to an admin response
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Title:        p.Title,
		Description:  p.Description,
		ProductClass: p.ProductClass,
		Price:        p.Price,
		Cost:         p.Cost,
		Weight:       p.Weight,
		WeightUnit:   p.WeightUnit,
		Shippable:    p.Shippable,
		Active:       p.Active,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// ToPublicProductResponse converts a product to a storefront response
func ToPublicProductResponse(p *catalog.Product) PublicProductResponse {
	return PublicProductResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Weight:      p.Weight,
		WeightUnit:  p.WeightUnit,
		Shippable:   p.Shippable,
	}
}
