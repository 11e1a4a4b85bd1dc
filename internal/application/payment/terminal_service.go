package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/application/event"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MessageCreditFailed is returned when the gateway fails or declines a terminal transaction
const MessageCreditFailed = "There was an error processing the credit card."

// TerminalService runs credit card transactions against orders through a gateway
type TerminalService struct {
	orderRepo      order.OrderRepository
	statusRepo     order.StatusRepository
	receiptRepo    payment.ReceiptRepository
	scope          TransactionScope
	gateway        payment.CreditGateway
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewTerminalService creates a new TerminalService
func NewTerminalService(
	orderRepo order.OrderRepository,
	statusRepo order.StatusRepository,
	receiptRepo payment.ReceiptRepository,
	gateway payment.CreditGateway,
	logger *zap.Logger,
) *TerminalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TerminalService{
		orderRepo:   orderRepo,
		statusRepo:  statusRepo,
		receiptRepo: receiptRepo,
		scope:       NewNoOpTransactionScope(orderRepo, receiptRepo),
		gateway:     gateway,
		logger:      logger,
		now:         time.Now,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *TerminalService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetTransactionScope makes the order update and its receipt commit together
func (s *TerminalService) SetTransactionScope(scope TransactionScope) {
	if scope != nil {
		s.scope = scope
	}
}

// Terminal returns the terminal view of an order: balance, offered actions,
// uncaptured authorizations and stored references.
func (s *TerminalService) Terminal(ctx context.Context, orderID uuid.UUID) (*TerminalResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	balance, err := s.balance(ctx, o)
	if err != nil {
		return nil, err
	}
	defaultAmount := decimal.Zero
	if balance.IsPositive() {
		defaultAmount = balance
	}

	types := s.gateway.SupportedTypes()
	options := make([]TransactionOption, len(types))
	for i, t := range types {
		options[i] = TransactionOption{Type: t.String(), Label: t.Label()}
	}
	return &TerminalResponse{
		OrderID:        o.ID,
		Gateway:        s.gateway.ID(),
		OrderTotal:     o.Total(),
		Balance:        balance,
		DefaultAmount:  defaultAmount,
		Currency:       o.Currency.String(),
		Transactions:   options,
		Authorizations: toAuthorizationResponses(o.UncapturedAuthorizations()),
		References:     toReferenceResponses(o.SortedReferences()),
	}, nil
}

// Process validates and submits a terminal transaction. A successful money
// moving transaction logs a receipt unless the gateway reports otherwise.
func (s *TerminalService) Process(ctx context.Context, orderID, authorID uuid.UUID, req TerminalRequest) (_ *TerminalResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "terminal.process",
		telemetry.SpanOrderID.String(orderID.String()),
		telemetry.SpanTxnType.String(req.Type),
		telemetry.SpanGateway.String(s.gateway.ID()))
	defer func() { telemetry.EndSpan(span, err) }()

	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	txnType := payment.TransactionType(req.Type)
	if err := s.validate(o, txnType, req); err != nil {
		return nil, err
	}

	gwReq := payment.GatewayRequest{
		OrderID:  o.ID,
		Type:     txnType,
		Amount:   req.Amount.Round(o.Currency.Scale()),
		Currency: o.Currency.String(),
		Card:     req.Card,
		AuthID:   req.AuthID,
		RefID:    req.RefID,
	}
	result, err := s.gateway.Process(ctx, gwReq)
	if err != nil {
		s.logger.Error("credit gateway error",
			zap.String("order_id", o.ID.String()),
			zap.String("gateway", s.gateway.ID()),
			zap.String("txn_type", txnType.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("INVALID_STATE", MessageCreditFailed)
	}
	if !result.Success {
		s.logger.Warn("credit transaction declined",
			zap.String("order_id", o.ID.String()),
			zap.String("txn_type", txnType.String()),
			zap.String("message", result.Message))
		o.AddAdminComment(authorID, result.Message)
		if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
			return nil, err
		}
		event.PublishPending(ctx, s.eventPublisher, s.logger, o)
		return nil, shared.NewDomainError("INVALID_STATE", MessageCreditFailed)
	}

	catalog, err := order.LoadCatalog(ctx, s.statusRepo)
	if err != nil {
		return nil, err
	}
	if err := s.recordTransaction(o, gwReq, result); err != nil {
		return nil, err
	}
	o.AddAdminComment(authorID, result.Message)

	var receipt *payment.Receipt
	if result.LogPayment && txnType.ReceiptSign() != 0 {
		if receipt, err = s.newReceipt(o, gwReq, result, authorID); err != nil {
			return nil, err
		}
	}
	out := &TerminalResult{
		Success:       true,
		Message:       result.Message,
		TransactionID: result.TransactionID,
	}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if receipt != nil {
			if err := repos.ReceiptRepo().Save(ctx, receipt); err != nil {
				return err
			}
		}
		balance, err := settle(ctx, repos, catalog, o, authorID)
		if err != nil {
			return err
		}
		out.Balance = balance
		return repos.OrderRepo().SaveWithLock(ctx, o)
	})
	if err != nil {
		s.logger.Error("credit transaction not stored",
			zap.String("order_id", o.ID.String()),
			zap.String("txn_type", txnType.String()),
			zap.String("txn_id", result.TransactionID),
			zap.Error(err))
		return nil, err
	}

	if receipt != nil {
		resp := ToReceiptResponse(receipt)
		out.Receipt = &resp
		publishEvents(ctx, s.eventPublisher, s.logger, payment.NewPaymentEnteredEvent(receipt))
		telemetry.AddEvent(ctx, "receipt_logged")
	}
	event.PublishPending(ctx, s.eventPublisher, s.logger, o)
	s.logger.Info("credit transaction processed",
		zap.String("order_id", o.ID.String()),
		zap.String("txn_type", txnType.String()),
		zap.String("txn_id", result.TransactionID))
	return out, nil
}

func (s *TerminalService) validate(o *order.Order, t payment.TransactionType, req TerminalRequest) error {
	if !t.IsValid() || !payment.Supports(s.gateway, t) {
		return shared.NewDomainError("INVALID_INPUT", "The selected transaction type is not supported.")
	}
	if t.MovesMoney() && !req.Amount.IsPositive() {
		return shared.NewDomainError("INVALID_INPUT", "You must enter a positive number for the amount.")
	}
	if t.RequiresCard() {
		if req.Card == nil {
			return shared.NewDomainError("INVALID_INPUT", "Credit card details are required.")
		}
		if err := req.Card.Validate(s.now()); err != nil {
			return err
		}
	}
	if t.RequiresAuthorization() {
		auth, ok := o.CreditTxns.Authorizations[req.AuthID]
		if !ok || auth.IsCaptured() {
			return shared.NewDomainError("INVALID_INPUT", "You must select a valid authorization.")
		}
	}
	if t.RequiresReference() {
		if _, ok := o.CreditTxns.References[req.RefID]; !ok {
			return shared.NewDomainError("INVALID_INPUT", "You must select a valid reference.")
		}
	}
	return nil
}

func (s *TerminalService) recordTransaction(o *order.Order, req payment.GatewayRequest, result *payment.GatewayResult) error {
	now := s.now()
	switch req.Type {
	case payment.TxnAuthOnly:
		o.LogAuthorization(result.TransactionID, req.Amount, now)
	case payment.TxnPriorAuthCapture:
		return o.CaptureAuthorization(req.AuthID, now)
	case payment.TxnVoid:
		return o.VoidAuthorization(req.AuthID)
	case payment.TxnReferenceSet:
		o.LogReference(result.TransactionID, req.Card.Last4(), now)
	case payment.TxnReferenceRemove:
		return o.RemoveReference(req.RefID)
	}
	return nil
}

func (s *TerminalService) newReceipt(o *order.Order, req payment.GatewayRequest, result *payment.GatewayResult, authorID uuid.UUID) (*payment.Receipt, error) {
	methodID := o.PaymentMethodID
	if methodID == "" {
		methodID = string(payment.PluginCredit)
	}
	amount := req.Amount.Mul(decimal.NewFromInt(int64(req.Type.ReceiptSign())))
	r, err := payment.NewReceipt(o.ID, methodID, amount, req.Currency, authorID, result.Message)
	if err != nil {
		return nil, err
	}
	r.Data[payment.DataTxnType] = req.Type.String()
	r.Data[payment.DataTxnID] = result.TransactionID
	return r, nil
}

func (s *TerminalService) balance(ctx context.Context, o *order.Order) (decimal.Decimal, error) {
	receipts, err := s.receiptRepo.FindByOrder(ctx, o.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return payment.Balance(o.Total(), receipts), nil
}
