package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/application/event"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MessagePayPalFailed is returned when a PayPal payment cannot be created or completed
const MessagePayPalFailed = "There was an error completing the PayPal payment."

// CheckoutFlow is the part of checkout PayPal drives
type CheckoutFlow interface {
	Review(ctx context.Context, orderID, userID uuid.UUID) (*checkout.ReviewResponse, error)
	Complete(ctx context.Context, orderID, userID uuid.UUID) (*orderapp.OrderResponse, error)
}

// PayPalService creates and executes PayPal Checkout payments for orders in checkout
type PayPalService struct {
	orderRepo      order.OrderRepository
	statusRepo     order.StatusRepository
	methodRepo     payment.MethodRepository
	receiptRepo    payment.ReceiptRepository
	scope          TransactionScope
	gateway        payment.PayPalGateway
	checkout       CheckoutFlow
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPayPalService creates a new PayPalService
func NewPayPalService(
	orderRepo order.OrderRepository,
	statusRepo order.StatusRepository,
	methodRepo payment.MethodRepository,
	receiptRepo payment.ReceiptRepository,
	gateway payment.PayPalGateway,
	checkout CheckoutFlow,
	logger *zap.Logger,
) *PayPalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayPalService{
		orderRepo:   orderRepo,
		statusRepo:  statusRepo,
		methodRepo:  methodRepo,
		receiptRepo: receiptRepo,
		scope:       NewNoOpTransactionScope(orderRepo, receiptRepo),
		gateway:     gateway,
		checkout:    checkout,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *PayPalService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetTransactionScope makes the order update and its receipt commit together
func (s *PayPalService) SetTransactionScope(scope TransactionScope) {
	if scope != nil {
		s.scope = scope
	}
}

// Create creates a PayPal payment for the reviewed order total
func (s *PayPalService) Create(ctx context.Context, orderID, userID uuid.UUID, req PayPalCreateRequest) (*PayPalCreateResponse, error) {
	review, err := s.checkout.Review(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	method, err := s.method(ctx, review.PaymentMethod)
	if err != nil {
		return nil, err
	}

	shipping := review.Quote
	amount := payment.PayPalAmount{
		Total:    review.Total,
		Currency: review.Order.Currency,
		Tax:      review.TaxTotal,
	}
	if shipping != nil {
		amount.Shipping = shipping.Amount
	}
	amount.Subtotal = amount.Total.Sub(amount.Shipping).Sub(amount.Tax)

	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = req.ReturnURL
	}
	created, err := s.gateway.CreatePayment(ctx, method.PayPalSettings(), payment.PayPalCreateRequest{
		Amount:    amount,
		ReturnURL: req.ReturnURL,
		CancelURL: cancelURL,
	})
	if err != nil {
		return nil, s.fail(orderID, "create", err)
	}
	s.logger.Info("paypal payment created",
		zap.String("order_id", orderID.String()),
		zap.String("payment_id", created.ID))
	return &PayPalCreateResponse{PaymentID: created.ID, ApprovalURL: created.ApprovalURL}, nil
}

// Execute executes an approved PayPal payment, logs its receipt and completes checkout
func (s *PayPalService) Execute(ctx context.Context, orderID, userID uuid.UUID, req PayPalExecuteRequest) (*orderapp.OrderResponse, error) {
	review, err := s.checkout.Review(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	method, err := s.method(ctx, review.PaymentMethod)
	if err != nil {
		return nil, err
	}
	settings := method.PayPalSettings()

	executed, err := s.gateway.ExecutePayment(ctx, settings, req.PaymentID, req.PayerID)
	if err != nil {
		return nil, s.fail(orderID, "execute", err)
	}

	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.SetPaymentMethod(method.ID)
	if settings.UsePayPalBillingAddress && executed.ShippingAddress != nil {
		billing := *executed.ShippingAddress
		billing.FirstName = executed.PayerFirst
		billing.LastName = executed.PayerLast
		o.SetBillingAddress(billing)
	}
	currency := executed.Currency
	if currency == "" {
		currency = o.Currency.String()
	}
	r, err := payment.NewReceipt(o.ID, method.ID, executed.Total, currency, userID, "PayPal payment ID: "+executed.ID)
	if err != nil {
		return nil, s.fail(orderID, "receipt", err)
	}
	r.Data[payment.DataPaymentID] = executed.ID
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.OrderRepo().SaveWithLock(ctx, o); err != nil {
			return err
		}
		return repos.ReceiptRepo().Save(ctx, r)
	})
	if err != nil {
		return nil, s.fail(orderID, "receipt", err)
	}
	publishEvents(ctx, s.eventPublisher, s.logger, payment.NewPaymentEnteredEvent(r))

	if _, err := s.checkout.Complete(ctx, orderID, userID); err != nil {
		return nil, s.fail(orderID, "complete checkout", err)
	}

	catalog, err := order.LoadCatalog(ctx, s.statusRepo)
	if err != nil {
		return nil, err
	}
	o, err = s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.AddAdminComment(uuid.Nil, fmt.Sprintf("PayPal Checkout API reported a payment of %s.", formatAmount(r.Amount, r.Currency)))
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := settle(ctx, repos, catalog, o, uuid.Nil); err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	event.PublishPending(ctx, s.eventPublisher, s.logger, o)
	s.logger.Info("paypal payment completed",
		zap.String("order_id", orderID.String()),
		zap.String("payment_id", executed.ID),
		zap.String("amount", r.Amount.String()),
		zap.String("status_id", o.StatusID))

	response := orderapp.ToOrderResponse(o, catalog)
	return &response, nil
}

// method resolves the PayPal Checkout method of an order: the selected one, or
// the first enabled PayPal Checkout method when none is selected.
func (s *PayPalService) method(ctx context.Context, selected *checkout.PaymentMethodSummary) (*payment.Method, error) {
	if selected != nil {
		m, err := s.methodRepo.FindByID(ctx, selected.ID)
		if err != nil {
			return nil, err
		}
		if m.Plugin != payment.PluginPayPalCheckout || !m.Enabled {
			return nil, shared.NewDomainError("INVALID_INPUT", "The selected payment method is not PayPal Checkout.")
		}
		return m, nil
	}
	methods, err := s.methodRepo.FindEnabled(ctx)
	if err != nil {
		return nil, err
	}
	for i := range methods {
		if methods[i].Plugin == payment.PluginPayPalCheckout {
			return &methods[i], nil
		}
	}
	return nil, shared.NewDomainError("INVALID_INPUT", "PayPal Checkout is not available.")
}

func (s *PayPalService) fail(orderID uuid.UUID, step string, err error) error {
	s.logger.Error("paypal checkout failed",
		zap.String("order_id", orderID.String()),
		zap.String("step", step),
		zap.Error(err))
	if errors.Is(err, shared.ErrForbidden) || errors.Is(err, shared.ErrUnauthorized) {
		return err
	}
	return shared.NewDomainError("INVALID_STATE", MessagePayPalFailed)
}
