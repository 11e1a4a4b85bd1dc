package payment

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Receipt data keys
const (
	DataClearDate = "clear_date"
	DataPaymentID = "payment_id"
	DataTxnType   = "txn_type"
	DataTxnID     = "txn_id"
)

// Receipt records a payment entered against an order. Negative amounts are refunds.
type Receipt struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MethodID   string
	Amount     decimal.Decimal
	Currency   string
	AuthorID   uuid.UUID
	Comment    string
	Data       map[string]string
	ReceivedAt time.Time
}

// NewReceipt creates a payment receipt
func NewReceipt(orderID uuid.UUID, methodID string, amount decimal.Decimal, currency string, authorID uuid.UUID, comment string) (*Receipt, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if strings.TrimSpace(methodID) == "" {
		return nil, shared.NewDomainError("INVALID_METHOD", "Payment method cannot be empty")
	}
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount cannot be zero")
	}
	return &Receipt{
		ID:         uuid.New(),
		OrderID:    orderID,
		MethodID:   methodID,
		Amount:     amount,
		Currency:   currency,
		AuthorID:   authorID,
		Comment:    strings.TrimSpace(comment),
		Data:       map[string]string{},
		ReceivedAt: time.Now(),
	}, nil
}

// ClearDate returns the check clear date stored on the receipt, if any
func (r *Receipt) ClearDate() (time.Time, bool) {
	v, ok := r.Data[DataClearDate]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SetClearDate stores a check clear date
func (r *Receipt) SetClearDate(t time.Time) {
	if r.Data == nil {
		r.Data = map[string]string{}
	}
	r.Data[DataClearDate] = t.Format(time.DateOnly)
}

// Balance returns total minus the sum of the receipts
func Balance(total decimal.Decimal, receipts []Receipt) decimal.Decimal {
	paid := decimal.Zero
	for _, r := range receipts {
		paid = paid.Add(r.Amount)
	}
	return total.Sub(paid)
}
