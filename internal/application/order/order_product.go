package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// NewOrderLine looks up the requested catalog product and copies its
// current details into a new order product
func NewOrderLine(ctx context.Context, products catalog.ProductRepository, req AddProductRequest) (*order.OrderProduct, error) {
	var (
		p   *catalog.Product
		err error
	)
	switch {
	case req.ProductID != uuid.Nil:
		p, err = products.FindByID(ctx, req.ProductID)
	case req.SKU != "":
		p, err = products.FindBySKU(ctx, req.SKU)
	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "A product id or SKU is required")
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
		}
		return nil, err
	}
	if req.ProductID != uuid.Nil && req.SKU != "" && req.SKU != p.SKU {
		return nil, shared.Errorf("INVALID_INPUT", "SKU %s does not belong to the product", req.SKU)
	}
	if err := p.CheckOrderable(); err != nil {
		return nil, err
	}

	line, err := order.NewOrderProduct(p.ID, p.SKU, p.Title, req.Qty, p.Price)
	if err != nil {
		return nil, err
	}
	line.ProductClass = p.ProductClass
	line.Cost = p.Cost
	line.Weight = p.Weight
	line.WeightUnit = p.WeightUnit
	line.Shippable = p.Shippable
	return line, nil
}
