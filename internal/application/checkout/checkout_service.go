package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/application/event"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/domain/shipping"
	"github.com/storefront/backend/internal/domain/tax"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// shippingLineWeight orders the quote line item after products and before taxes
const shippingLineWeight = 1

// CheckoutService drives a cart order through checkout
type CheckoutService struct {
	orderRepo      order.OrderRepository
	statusRepo     order.StatusRepository
	productRepo    catalog.ProductRepository
	rateRepo       tax.RateRepository
	quoteRepo      shipping.QuoteMethodRepository
	methodRepo     payment.MethodRepository
	rules          order.CheckoutRules
	currency       valueobject.Currency
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	orderRepo order.OrderRepository,
	statusRepo order.StatusRepository,
	productRepo catalog.ProductRepository,
	rateRepo tax.RateRepository,
	quoteRepo shipping.QuoteMethodRepository,
	methodRepo payment.MethodRepository,
	rules order.CheckoutRules,
	logger *zap.Logger,
) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutService{
		orderRepo:   orderRepo,
		statusRepo:  statusRepo,
		productRepo: productRepo,
		rateRepo:    rateRepo,
		quoteRepo:   quoteRepo,
		methodRepo:  methodRepo,
		rules:       rules,
		currency:    valueobject.DefaultCurrency,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *CheckoutService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetStoreCurrency sets the currency of carts created without one
func (s *CheckoutService) SetStoreCurrency(c valueobject.Currency) {
	if c != "" {
		s.currency = c
	}
}

// CreateCart creates an in-checkout order holding the cart contents.
// userID is uuid.Nil for anonymous visitors.
func (s *CheckoutService) CreateCart(ctx context.Context, userID uuid.UUID, req CreateCartRequest) (*orderapp.OrderResponse, error) {
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
	o, err := order.NewOrder(orderNumber, userID, currency, statuses)
	if err != nil {
		return nil, err
	}
	o.PrimaryEmail = strings.TrimSpace(req.PrimaryEmail)
	for _, item := range req.Products {
		line, err := orderapp.NewOrderLine(ctx, s.productRepo, item)
		if err != nil {
			return nil, err
		}
		if err := o.AddProduct(line); err != nil {
			return nil, err
		}
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}
	event.PublishPending(ctx, s.eventPublisher, s.logger, o)

	response := orderapp.ToOrderResponse(o, statuses)
	return &response, nil
}

// Start enters checkout. Anonymous carts are claimed by the authenticated user.
func (s *CheckoutService) Start(ctx context.Context, orderID, userID uuid.UUID) (*orderapp.OrderResponse, error) {
	statuses, err := order.LoadCatalog(ctx, s.statusRepo)
	if err != nil {
		return nil, err
	}
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := o.StartCheckout(statuses, s.rules, userID); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}
	event.PublishPending(ctx, s.eventPublisher, s.logger, o)

	response := orderapp.ToOrderResponse(o, statuses)
	return &response, nil
}

// Update stores the checkout pane values
func (s *CheckoutService) Update(ctx context.Context, orderID, userID uuid.UUID, req UpdateCheckoutRequest) (*orderapp.OrderResponse, error) {
	statuses, o, err := s.loadInCheckout(ctx, orderID, userID)
	if err != nil {
		return nil, err
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
	if err := s.rules.CheckAddresses(o); err != nil {
		return nil, err
	}
	if req.PaymentMethodID != nil {
		if _, err := s.enabledMethod(ctx, *req.PaymentMethodID); err != nil {
			return nil, err
		}
		o.SetPaymentMethod(*req.PaymentMethodID)
	}
	if req.QuoteMethodID != nil {
		if *req.QuoteMethodID != "" {
			if _, err := s.enabledQuote(ctx, *req.QuoteMethodID); err != nil {
				return nil, err
			}
		}
		o.SetQuoteMethod(*req.QuoteMethodID)
	}
	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}
	response := orderapp.ToOrderResponse(o, statuses)
	return &response, nil
}

// Review returns the order as it will be submitted: shipping quote and taxes applied.
// Nothing is stored.
func (s *CheckoutService) Review(ctx context.Context, orderID, userID uuid.UUID) (*ReviewResponse, error) {
	statuses, o, err := s.loadInCheckout(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	quote, lines, err := s.applyCharges(ctx, o)
	if err != nil {
		return nil, err
	}

	review := &ReviewResponse{
		OrderID:  o.ID,
		Order:    orderapp.ToOrderResponse(o, statuses),
		Quote:    quote,
		TaxLines: lines,
		TaxTotal: decimal.Zero,
		Total:    o.Total(),
	}
	for _, l := range lines {
		review.TaxTotal = review.TaxTotal.Add(l.Amount)
	}
	if o.PaymentMethodID != "" {
		if m, err := s.methodRepo.FindByID(ctx, o.PaymentMethodID); err == nil {
			review.PaymentMethod = &PaymentMethodSummary{ID: m.ID, Plugin: m.Plugin.String(), Label: m.Label}
		} else if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	return review, nil
}

// Complete submits the order: the shipping quote and taxes become line items
// and the order moves to the default post-checkout status.
func (s *CheckoutService) Complete(ctx context.Context, orderID, userID uuid.UUID) (_ *orderapp.OrderResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "checkout.complete", telemetry.SpanOrderID.String(orderID.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	statuses, o, err := s.loadInCheckout(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethodID != "" {
		if _, err := s.enabledMethod(ctx, o.PaymentMethodID); err != nil {
			return nil, err
		}
	}
	if _, _, err := s.applyCharges(ctx, o); err != nil {
		return nil, err
	}
	if err := o.CompleteCheckout(statuses, s.rules, userID); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}
	event.PublishPending(ctx, s.eventPublisher, s.logger, o)
	span.SetAttributes(telemetry.SpanOrderNumber.String(o.OrderNumber))

	s.logger.Info("checkout completed",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("total", o.Total().String()),
	)
	response := orderapp.ToOrderResponse(o, statuses)
	return &response, nil
}

func (s *CheckoutService) loadInCheckout(ctx context.Context, orderID, userID uuid.UUID) (*order.StatusCatalog, *order.Order, error) {
	statuses, err := order.LoadCatalog(ctx, s.statusRepo)
	if err != nil {
		return nil, nil, err
	}
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if !o.IsAnonymous() && !o.IsOwnedBy(userID) {
		return nil, nil, shared.NewDomainError("FORBIDDEN", "This order belongs to another customer.")
	}
	if o.State(statuses) != order.StateInCheckout {
		return nil, nil, shared.NewDomainError("INVALID_STATE", "This order has already been checked out.")
	}
	return statuses, o, nil
}

// applyCharges replaces the order's shipping and tax line items with a fresh
// quote and tax calculation
func (s *CheckoutService) applyCharges(ctx context.Context, o *order.Order) (*QuoteResponse, []tax.Line, error) {
	o.RemoveLineItemsOfType(order.LineItemShipping)
	o.RemoveLineItemsOfType(order.LineItemTax)
	o.RemoveLineItemsOfType(order.LineItemTaxSubtotal)

	var quote *QuoteResponse
	if o.QuoteMethodID != "" && o.IsShippable() {
		method, err := s.enabledQuote(ctx, o.QuoteMethodID)
		if err != nil {
			return nil, nil, err
		}
		amount := method.Quote(o).Round(o.Currency.Scale())
		li, err := order.NewLineItem(order.LineItemShipping, method.Label, amount, shippingLineWeight)
		if err != nil {
			return nil, nil, err
		}
		li.Data["method_id"] = method.ID
		if err := o.AddLineItem(li); err != nil {
			return nil, nil, err
		}
		quote = &QuoteResponse{MethodID: method.ID, Label: method.Label, Amount: amount}
	}

	rates, err := s.rateRepo.FindEnabled(ctx)
	if err != nil {
		return nil, nil, err
	}
	lines := tax.Calculate(o, rates)
	items, err := tax.ToLineItems(o, lines)
	if err != nil {
		return nil, nil, err
	}
	for _, li := range items {
		if err := o.AddLineItem(li); err != nil {
			return nil, nil, err
		}
	}
	if lines == nil {
		lines = []tax.Line{}
	}
	return quote, lines, nil
}

func (s *CheckoutService) enabledMethod(ctx context.Context, id string) (*payment.Method, error) {
	m, err := s.methodRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_INPUT", "The selected payment method is not available.")
		}
		return nil, err
	}
	if !m.Enabled {
		return nil, shared.NewDomainError("INVALID_INPUT", "The selected payment method is not available.")
	}
	return m, nil
}

func (s *CheckoutService) enabledQuote(ctx context.Context, id string) (*shipping.QuoteMethod, error) {
	m, err := s.quoteRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_INPUT", "The selected shipping method is not available.")
		}
		return nil, err
	}
	if !m.Enabled {
		return nil, shared.NewDomainError("INVALID_INPUT", "The selected shipping method is not available.")
	}
	return m, nil
}
