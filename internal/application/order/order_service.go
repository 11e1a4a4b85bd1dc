package order

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/application/event"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// OrderService handles order administration and customer order views
type OrderService struct {
	orderRepo      order.OrderRepository
	statusRepo     order.StatusRepository
	productRepo    catalog.ProductRepository
	eventPublisher shared.EventPublisher
	currency       valueobject.Currency
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo order.OrderRepository, statusRepo order.StatusRepository, productRepo catalog.ProductRepository, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orderRepo:   orderRepo,
		statusRepo:  statusRepo,
		productRepo: productRepo,
		currency:    valueobject.DefaultCurrency,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetStoreCurrency sets the currency of orders created without one
func (s *OrderService) SetStoreCurrency(c valueobject.Currency) {
	if c != "" {
		s.currency = c
	}
}

// List returns orders matching the filter
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	domainFilter := toDomainFilter(filter)
	if filter.StatusID != "" {
		domainFilter.Filters[order.FilterStatusID] = filter.StatusID
	}
	if filter.OwnerID != nil {
		domainFilter.Filters[order.FilterOwnerID] = *filter.OwnerID
	}
	if filter.IncludeDeleted {
		domainFilter.Filters[order.FilterIncludeDeleted] = true
	}
	return s.list(ctx, domainFilter)
}

// ListForUser returns the caller's own orders
func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	domainFilter := toDomainFilter(filter)
	domainFilter.Filters[order.FilterOwnerID] = userID
	return s.list(ctx, domainFilter)
}

func (s *OrderService) list(ctx context.Context, filter shared.Filter) ([]OrderListItemResponse, int64, error) {
	statuses, err := order.LoadCatalog(ctx, s.statusRepo)
	if err != nil {
		return nil, 0, err
	}
	orders, err := s.orderRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToOrderListItemResponses(orders, statuses), total, nil
}

func toDomainFilter(filter OrderListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}
	return shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
}

// Create creates an order from the admin UI in the default post-checkout status
func (s *OrderService) Create(ctx context.Context, adminID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	statuses, err := order.LoadCatalog(ctx, s.statusRepo)
	if err != nil {
		return nil, err
	}
	currency := s.currency
	if req.Currency != "" {
		if currency, err = valueobject.ParseCurrency(req.Currency); err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
		}
	}
	orderNumber, err := s.orderRepo.GenerateOrderNumber(ctx)
	if err != nil {
		return nil, err
	}
	ownerID := uuid.Nil
	if req.OwnerID != nil {
		ownerID = *req.OwnerID
	}

	o, err := order.NewAdminOrder(orderNumber, ownerID, currency, statuses, adminID)
	if err != nil {
		return nil, err
	}
	o.PrimaryEmail = strings.TrimSpace(req.PrimaryEmail)

	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}
	s.publish(ctx, o)

	s.logger.Info("order created by administrator",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("admin_id", adminID.String()),
	)
	response := ToOrderResponse(o, statuses)
	return &response, nil
}

// Get returns an order
func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	return s.respond(ctx, func() (*order.Order, error) {
		return s.orderRepo.FindByID(ctx, id)
	})
}

// GetForUser returns an order the caller owns
func (s *OrderService) GetForUser(ctx context.Context, userID, id uuid.UUID) (*OrderResponse, error) {
	return s.respond(ctx, func() (*order.Order, error) {
		o, err := s.orderRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !o.IsOwnedBy(userID) {
			return nil, shared.ErrForbidden
		}
		return o, nil
	})
}

// Update edits the order details
func (s *OrderService) Update(ctx context.Context, id uuid.UUID, req UpdateOrderRequest) (*OrderResponse, error) {
	return s.mutate(ctx, id, func(o *order.Order, _ *order.StatusCatalog) error {
		if o.IsDeleted() {
			return shared.NewDomainError("INVALID_STATE", "Cannot modify a deleted order")
		}
		if req.PrimaryEmail != nil {
			o.PrimaryEmail = strings.TrimSpace(*req.PrimaryEmail)
		}
		if req.BillingAddress != nil {
			o.SetBillingAddress(*req.BillingAddress)
		}
		if req.DeliveryAddress != nil {
			o.SetDeliveryAddress(*req.DeliveryAddress)
		}
		if req.PaymentMethodID != nil {
			o.SetPaymentMethod(*req.PaymentMethodID)
		}
		if req.QuoteMethodID != nil {
			o.SetQuoteMethod(*req.QuoteMethodID)
		}
		if req.Host != nil {
			o.Host = strings.TrimSpace(*req.Host)
		}
		return nil
	})
}

// UpdateStatus moves an order to another status, recording the message as a comment
func (s *OrderService) UpdateStatus(ctx context.Context, id, authorID uuid.UUID, req UpdateStatusRequest) (*OrderResponse, error) {
	return s.mutate(ctx, id, func(o *order.Order, statuses *order.StatusCatalog) error {
		return o.UpdateStatus(statuses, req.StatusID, authorID, req.Message, req.Notify)
	})
}

// AddComment records a customer-visible comment
func (s *OrderService) AddComment(ctx context.Context, id, authorID uuid.UUID, req AddCommentRequest) (*CommentsResponse, error) {
	return s.comment(ctx, id, func(o *order.Order) error {
		return o.AddComment(authorID, req.Message, req.Notify)
	})
}

// AddAdminComment records an admin-only note
func (s *OrderService) AddAdminComment(ctx context.Context, id, authorID uuid.UUID, req AddCommentRequest) (*CommentsResponse, error) {
	return s.comment(ctx, id, func(o *order.Order) error {
		if o.IsDeleted() {
			return shared.NewDomainError("INVALID_STATE", "Cannot modify a deleted order")
		}
		o.AddAdminComment(authorID, req.Message)
		return nil
	})
}

// Comments returns the order history. Deleted orders keep their comments.
func (s *OrderService) Comments(ctx context.Context, id uuid.UUID) (*CommentsResponse, error) {
	statuses, err := order.LoadCatalog(ctx, s.statusRepo)
	if err != nil {
		return nil, err
	}
	o, err := s.orderRepo.FindByIDIncludingDeleted(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToCommentsResponse(o, statuses)
	return &response, nil
}

func (s *OrderService) comment(ctx context.Context, id uuid.UUID, fn func(*order.Order) error) (*CommentsResponse, error) {
	var response CommentsResponse
	_, err := s.mutate(ctx, id, func(o *order.Order, statuses *order.StatusCatalog) error {
		if err := fn(o); err != nil {
			return err
		}
		response = ToCommentsResponse(o, statuses)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// AddProduct adds a statuses product to an order at its current price
func (s *OrderService) AddProduct(ctx context.Context, id uuid.UUID, req AddProductRequest) (*OrderResponse, error) {
	line, err := NewOrderLine(ctx, s.productRepo, req)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(o *order.Order, _ *order.StatusCatalog) error {
		return o.AddProduct(line)
	})
}

// UpdateProduct changes the quantity of an order product. Zero removes it.
func (s *OrderService) UpdateProduct(ctx context.Context, id, productID uuid.UUID, req UpdateProductRequest) (*OrderResponse, error) {
	return s.mutate(ctx, id, func(o *order.Order, _ *order.StatusCatalog) error {
		if req.Qty == 0 {
			return o.RemoveProduct(productID)
		}
		return o.UpdateProductQty(productID, req.Qty)
	})
}

// RemoveProduct removes a product from an order
func (s *OrderService) RemoveProduct(ctx context.Context, id, productID uuid.UUID) (*OrderResponse, error) {
	return s.mutate(ctx, id, func(o *order.Order, _ *order.StatusCatalog) error {
		return o.RemoveProduct(productID)
	})
}

// AddLineItem adds a line item to an order
func (s *OrderService) AddLineItem(ctx context.Context, id uuid.UUID, req AddLineItemRequest) (*OrderResponse, error) {
	return s.mutate(ctx, id, func(o *order.Order, _ *order.StatusCatalog) error {
		li, err := order.NewLineItem(order.LineItemType(req.Type), req.Title, req.Amount, req.Weight)
		if err != nil {
			return err
		}
		return o.AddLineItem(li)
	})
}

// RemoveLineItem removes a line item from an order
func (s *OrderService) RemoveLineItem(ctx context.Context, id, lineItemID uuid.UUID) (*OrderResponse, error) {
	return s.mutate(ctx, id, func(o *order.Order, _ *order.StatusCatalog) error {
		return o.RemoveLineItem(lineItemID)
	})
}

// Delete soft-deletes an order. Comments are retained; packages and shipments
// are removed by the OrderDeleted handler.
func (s *OrderService) Delete(ctx context.Context, id uuid.UUID) error {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := o.MarkDeleted(); err != nil {
		return err
	}
	if err := s.orderRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, o)
	s.logger.Info("order deleted", zap.String("order_id", id.String()))
	return nil
}

// Purge permanently removes an order, including soft-deleted ones
func (s *OrderService) Purge(ctx context.Context, id uuid.UUID) error {
	o, err := s.orderRepo.FindByIDIncludingDeleted(ctx, id)
	if err != nil {
		return err
	}
	if !o.IsDeleted() {
		if err := o.MarkDeleted(); err != nil {
			return err
		}
	}
	if err := s.orderRepo.Purge(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, o)
	s.logger.Info("order purged", zap.String("order_id", id.String()))
	return nil
}

// CartCleanupResult counts the abandoned checkout orders removed by one run
type CartCleanupResult struct {
	Anonymous     int `json:"anonymous"`
	Authenticated int `json:"authenticated"`
}

// DeleteAbandonedCarts purges orders still in checkout whose last update is
// older than the anonymous or authenticated duration. Each purge publishes
// OrderDeleted so dependent records are cleaned up.
func (s *OrderService) DeleteAbandonedCarts(ctx context.Context, now time.Time, anonymous, authenticated time.Duration) (CartCleanupResult, error) {
	var result CartCleanupResult
	statuses, err := order.LoadCatalog(ctx, s.statusRepo)
	if err != nil {
		return result, err
	}
	var statusIDs []string
	for _, st := range statuses.List() {
		if st.State == order.StateInCheckout {
			statusIDs = append(statusIDs, st.ID)
		}
	}
	if len(statusIDs) == 0 {
		return result, nil
	}

	for _, pass := range []struct {
		anonymous bool
		maxAge    time.Duration
		count     *int
	}{
		{anonymous: true, maxAge: anonymous, count: &result.Anonymous},
		{anonymous: false, maxAge: authenticated, count: &result.Authenticated},
	} {
		if pass.maxAge <= 0 {
			continue
		}
		stale, err := s.orderRepo.FindStale(ctx, statusIDs, pass.anonymous, now.Add(-pass.maxAge))
		if err != nil {
			return result, err
		}
		for i := range stale {
			o := &stale[i]
			if err := o.MarkDeleted(); err != nil {
				return result, err
			}
			if err := s.orderRepo.Purge(ctx, o.ID); err != nil {
				return result, err
			}
			s.publish(ctx, o)
			*pass.count++
		}
	}

	if result.Anonymous+result.Authenticated > 0 {
		s.logger.Info("abandoned carts deleted",
			zap.Int("anonymous", result.Anonymous),
			zap.Int("authenticated", result.Authenticated),
		)
	}
	return result, nil
}

// mutate loads an order, applies fn and saves it with optimistic locking
func (s *OrderService) mutate(ctx context.Context, id uuid.UUID, fn func(*order.Order, *order.StatusCatalog) error) (*OrderResponse, error) {
	statuses, err := order.LoadCatalog(ctx, s.statusRepo)
	if err != nil {
		return nil, err
	}
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(o, statuses); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}
	s.publish(ctx, o)
	response := ToOrderResponse(o, statuses)
	return &response, nil
}

func (s *OrderService) respond(ctx context.Context, load func() (*order.Order, error)) (*OrderResponse, error) {
	statuses, err := order.LoadCatalog(ctx, s.statusRepo)
	if err != nil {
		return nil, err
	}
	o, err := load()
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(o, statuses)
	return &response, nil
}

func (s *OrderService) publish(ctx context.Context, o *order.Order) {
	event.PublishPending(ctx, s.eventPublisher, s.logger, o)
}
