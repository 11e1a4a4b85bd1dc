package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/application/event"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReceiptService records payments received against orders
type ReceiptService struct {
	orderRepo      order.OrderRepository
	statusRepo     order.StatusRepository
	methodRepo     payment.MethodRepository
	receiptRepo    payment.ReceiptRepository
	scope          TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(
	orderRepo order.OrderRepository,
	statusRepo order.StatusRepository,
	methodRepo payment.MethodRepository,
	receiptRepo payment.ReceiptRepository,
	logger *zap.Logger,
) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptService{
		orderRepo:   orderRepo,
		statusRepo:  statusRepo,
		methodRepo:  methodRepo,
		receiptRepo: receiptRepo,
		scope:       NewNoOpTransactionScope(orderRepo, receiptRepo),
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ReceiptService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetTransactionScope makes receipt and order writes commit together
func (s *ReceiptService) SetTransactionScope(scope TransactionScope) {
	if scope != nil {
		s.scope = scope
	}
}

// List returns the receipts of an order with its balance
func (s *ReceiptService) List(ctx context.Context, orderID uuid.UUID) (*PaymentsResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	receipts, err := s.receiptRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]ReceiptResponse, len(receipts))
	for i := range receipts {
		out[i] = ToReceiptResponse(&receipts[i])
	}
	return &PaymentsResponse{
		OrderID:  o.ID,
		Total:    o.Total(),
		Balance:  payment.Balance(o.Total(), receipts),
		Currency: o.Currency.String(),
		Receipts: out,
	}, nil
}

// Enter logs a payment against an order and records an admin comment
func (s *ReceiptService) Enter(ctx context.Context, orderID, authorID uuid.UUID, req EnterPaymentRequest) (*ReceiptResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	method, err := s.methodRepo.FindByID(ctx, req.MethodID)
	if err != nil {
		return nil, err
	}
	r, err := payment.NewReceipt(o.ID, method.ID, req.Amount, o.Currency.String(), authorID, req.Comment)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, o, r, method.Label, authorID)
}

// ReceiveCheck logs a received check with its expected clear date.
// Only one check can be received per order.
func (s *ReceiptService) ReceiveCheck(ctx context.Context, orderID, authorID uuid.UUID, req ReceiveCheckRequest) (*ReceiptResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	clearDate, err := time.Parse(time.DateOnly, req.ClearDate)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Clear date must be formatted as YYYY-MM-DD.")
	}
	receipts, err := s.receiptRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	for i := range receipts {
		if _, ok := receipts[i].ClearDate(); ok {
			return nil, shared.NewDomainError("INVALID_STATE", "A check has already been received for this order.")
		}
	}

	methodID, label := string(payment.PluginCheck), "Check"
	if o.PaymentMethodID != "" {
		if m, err := s.methodRepo.FindByID(ctx, o.PaymentMethodID); err == nil && m.Plugin == payment.PluginCheck {
			methodID, label = m.ID, m.Label
		}
	}

	amount := o.Total()
	if req.Amount != nil {
		amount = *req.Amount
	}
	r, err := payment.NewReceipt(o.ID, methodID, amount, o.Currency.String(), authorID, req.Comment)
	if err != nil {
		return nil, err
	}
	r.SetClearDate(clearDate)
	return s.record(ctx, o, r, label, authorID)
}

// Delete removes a receipt and records an admin comment on its order
func (s *ReceiptService) Delete(ctx context.Context, orderID, receiptID, authorID uuid.UUID) error {
	r, err := s.receiptRepo.FindByID(ctx, receiptID)
	if err != nil {
		return err
	}
	if r.OrderID != orderID {
		return shared.ErrNotFound
	}
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.ReceiptRepo().Delete(ctx, receiptID); err != nil {
			return err
		}
		o.AddAdminComment(authorID, fmt.Sprintf("Payment for %s deleted.", formatAmount(r.Amount, r.Currency)))
		return repos.OrderRepo().SaveWithLock(ctx, o)
	})
	if err != nil {
		return err
	}
	s.publishEvents(ctx, payment.NewPaymentDeletedEvent(r))
	event.PublishPending(ctx, s.eventPublisher, s.logger, o)
	s.logger.Info("payment deleted",
		zap.String("order_id", orderID.String()),
		zap.String("receipt_id", receiptID.String()))
	return nil
}

// record saves the receipt with its admin comment and settles a paid order
func (s *ReceiptService) record(ctx context.Context, o *order.Order, r *payment.Receipt, label string, authorID uuid.UUID) (*ReceiptResponse, error) {
	catalog, err := order.LoadCatalog(ctx, s.statusRepo)
	if err != nil {
		return nil, err
	}
	var balance decimal.Decimal
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.ReceiptRepo().Save(ctx, r); err != nil {
			return err
		}
		o.AddAdminComment(authorID, fmt.Sprintf("%s payment for %s entered.", label, formatAmount(r.Amount, r.Currency)))
		if balance, err = settle(ctx, repos, catalog, o, authorID); err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, payment.NewPaymentEnteredEvent(r))
	event.PublishPending(ctx, s.eventPublisher, s.logger, o)
	s.logger.Info("payment entered",
		zap.String("order_id", o.ID.String()),
		zap.String("method_id", r.MethodID),
		zap.String("amount", r.Amount.String()),
		zap.String("balance", balance.String()),
		zap.String("status_id", o.StatusID))
	resp := ToReceiptResponse(r)
	return &resp, nil
}

func (s *ReceiptService) publishEvents(ctx context.Context, events ...shared.DomainEvent) {
	publishEvents(ctx, s.eventPublisher, s.logger, events...)
}

func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, events ...shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Error("failed to publish payment events", zap.String("event", events[0].EventType()), zap.Error(err))
	}
}

func formatAmount(amount decimal.Decimal, currency string) string {
	return amount.StringFixed(2) + " " + currency
}
