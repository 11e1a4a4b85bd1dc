package payment

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domain "github.com/storefront/backend/internal/domain/payment"
)

// TestGatewayID identifies the built-in test credit gateway
const TestGatewayID = "test_gateway"

// TestGatewayDeclinedCard is always declined by the test gateway
const TestGatewayDeclinedCard = "0000000000000000"

// TestGateway is a credit gateway that approves everything except the declined
// card number and amounts ending in .13. It never contacts a payment processor.
type TestGateway struct {
	seq       atomic.Int64
	cardDebug bool
	logger    *zap.Logger
}

// NewTestGateway creates a new test gateway. cardDebug logs masked card details.
func NewTestGateway(cardDebug bool, logger *zap.Logger) *TestGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TestGateway{cardDebug: cardDebug, logger: logger.Named(TestGatewayID)}
}

// ID returns the gateway identifier
func (g *TestGateway) ID() string {
	return TestGatewayID
}

// SupportedTypes returns every transaction type
func (g *TestGateway) SupportedTypes() []domain.TransactionType {
	return domain.AllTransactionTypes()
}

// Process approves or declines the transaction
func (g *TestGateway) Process(ctx context.Context, req domain.GatewayRequest) (*domain.GatewayResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("test gateway: unsupported transaction type %q", req.Type)
	}
	if req.Type.RequiresCard() && req.Card == nil {
		return &domain.GatewayResult{Message: "Credit card details are required."}, nil
	}
	if req.Type.RequiresAuthorization() && req.AuthID == "" {
		return &domain.GatewayResult{Message: "An authorization must be selected."}, nil
	}
	if req.Type.RequiresReference() && req.RefID == "" {
		return &domain.GatewayResult{Message: "A reference must be selected."}, nil
	}

	if g.cardDebug && req.Card != nil {
		g.logger.Debug("test gateway card",
			zap.String("order_id", req.OrderID.String()),
			zap.String("txn_type", req.Type.String()),
			zap.String("last4", req.Card.Last4()),
			zap.Int("exp_month", req.Card.ExpMonth),
			zap.Int("exp_year", req.Card.ExpYear),
		)
	}

	if declined(req) {
		return &domain.GatewayResult{
			Message: fmt.Sprintf("Credit card charge failed for %s %s.", req.Amount.StringFixed(2), req.Currency),
		}, nil
	}

	id := fmt.Sprintf("%s-%d-%d", strings.ToUpper(req.Type.String()[:3]), time.Now().Unix(), g.seq.Add(1))
	result := &domain.GatewayResult{
		Success:       true,
		TransactionID: id,
		LogPayment:    req.Type.ReceiptSign() != 0,
	}
	switch req.Type {
	case domain.TxnAuthOnly:
		result.Message = fmt.Sprintf("Authorized %s %s. Authorization ID: %s", req.Amount.StringFixed(2), req.Currency, id)
	case domain.TxnReferenceSet:
		result.Message = "Reference set: " + id
	case domain.TxnVoid:
		result.Message = "Authorization " + req.AuthID + " voided."
	case domain.TxnReferenceRemove:
		result.Message = "Reference " + req.RefID + " removed."
	default:
		result.Message = fmt.Sprintf("Credit card %s processed for %s %s.", req.Type.Label(), req.Amount.StringFixed(2), req.Currency)
	}
	return result, nil
}

var cents13 = decimal.RequireFromString("0.13")

func declined(req domain.GatewayRequest) bool {
	if req.Card != nil && strings.ReplaceAll(req.Card.Number, " ", "") == TestGatewayDeclinedCard {
		return true
	}
	if !req.Type.MovesMoney() {
		return false
	}
	cents := req.Amount.Abs().Sub(req.Amount.Abs().Floor())
	return cents.Round(2).Equal(cents13)
}

var _ domain.CreditGateway = (*TestGateway)(nil)
