package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/application/event"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ProductService manages the product catalog
type ProductService struct {
	productRepo    catalog.ProductRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{productRepo: productRepo, logger: logger}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create adds a product. SKUs are unique across the catalog.
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (resp *ProductResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "catalog.create_product", telemetry.SpanSKU.String(req.SKU))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.ensureSKUFree(ctx, req.SKU, uuid.Nil); err != nil {
		return nil, err
	}
	p, err := catalog.NewProduct(req.details())
	if err != nil {
		return nil, err
	}
	if req.Active != nil && !*req.Active {
		p.Active = false
	}
	if err := s.productRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	event.PublishPending(ctx, s.eventPublisher, s.logger, p)
	s.logger.Info("product created",
		zap.String("product_id", p.ID.String()),
		zap.String("sku", p.SKU),
		zap.String("price", p.Price.StringFixed(2)))
	out := ToProductResponse(p)
	return &out, nil
}

// Get returns a product for the admin UI
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	out := ToProductResponse(p)
	return &out, nil
}

// GetPublic returns an active product for the storefront. Withdrawn
// products are reported as missing.
func (s *ProductService) GetPublic(ctx context.Context, id uuid.UUID) (*PublicProductResponse, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
	}
	out := ToPublicProductResponse(p)
	return &out, nil
}

// List returns products matching the filter and the total match count
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	products, total, err := s.list(ctx, toDomainFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out, total, nil
}

// ListPublic returns active products for the storefront
func (s *ProductService) ListPublic(ctx context.Context, filter ProductListFilter) ([]PublicProductResponse, int64, error) {
	active := true
	filter.Active = &active
	products, total, err := s.list(ctx, toDomainFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	out := make([]PublicProductResponse, len(products))
	for i := range products {
		out[i] = ToPublicProductResponse(&products[i])
	}
	return out, total, nil
}

func (s *ProductService) list(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	products, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.productRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Update replaces a product's details. Placed orders keep the values
// copied when their lines were added.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (resp *ProductResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "catalog.update_product", telemetry.SpanSKU.String(req.SKU))
	defer func() { telemetry.EndSpan(span, err) }()

	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(req.SKU), p.SKU) {
		if err := s.ensureSKUFree(ctx, req.SKU, p.ID); err != nil {
			return nil, err
		}
	}
	if err := p.Update(req.details()); err != nil {
		return nil, err
	}
	if err := s.productRepo.SaveWithLock(ctx, p); err != nil {
		return nil, err
	}
	event.PublishPending(ctx, s.eventPublisher, s.logger, p)
	out := ToProductResponse(p)
	return &out, nil
}

// SetActive publishes or withdraws a product
func (s *ProductService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*ProductResponse, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Active != active {
		p.SetActive(active)
		if err := s.productRepo.SaveWithLock(ctx, p); err != nil {
			return nil, err
		}
		event.PublishPending(ctx, s.eventPublisher, s.logger, p)
		s.logger.Info("product availability changed",
			zap.String("product_id", p.ID.String()),
			zap.Bool("active", active))
	}
	out := ToProductResponse(p)
	return &out, nil
}

// Delete removes a product from the catalog
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	p.MarkDeleted()
	if err := s.productRepo.Delete(ctx, p.ID); err != nil {
		return err
	}
	event.PublishPending(ctx, s.eventPublisher, s.logger, p)
	s.logger.Info("product deleted", zap.String("product_id", id.String()), zap.String("sku", p.SKU))
	return nil
}

func (s *ProductService) find(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
		}
		return nil, err
	}
	return p, nil
}

func (s *ProductService) ensureSKUFree(ctx context.Context, sku string, exceptID uuid.UUID) error {
	exists, err := s.productRepo.ExistsBySKU(ctx, strings.TrimSpace(sku), exceptID)
	if err != nil {
		return err
	}
	if exists {
		return shared.Errorf("ALREADY_EXISTS", "A product with SKU %s already exists.", sku)
	}
	return nil
}

func toDomainFilter(filter ProductListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Active != nil {
		f.Filters[catalog.FilterActive] = *filter.Active
	}
	if filter.ProductClass != "" {
		f.Filters[catalog.FilterProductClass] = filter.ProductClass
	}
	return f
}
