package payment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypePayment = "Payment"

// Event type constants
const (
	EventTypePaymentEntered = "PaymentEntered"
	EventTypePaymentDeleted = "PaymentDeleted"
)

// PaymentEnteredEvent is raised when a receipt is logged against an order
type PaymentEnteredEvent struct {
	shared.BaseDomainEvent
	ReceiptID uuid.UUID       `json:"receipt_id"`
	OrderID   uuid.UUID       `json:"order_id"`
	MethodID  string          `json:"method_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

// NewPaymentEnteredEvent creates a new PaymentEnteredEvent
func NewPaymentEnteredEvent(r *Receipt) *PaymentEnteredEvent {
	return &PaymentEnteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentEntered, AggregateTypePayment, r.OrderID),
		ReceiptID:       r.ID,
		OrderID:         r.OrderID,
		MethodID:        r.MethodID,
		Amount:          r.Amount,
		Currency:        r.Currency,
	}
}

// EventType returns the event type name
func (e *PaymentEnteredEvent) EventType() string {
	return EventTypePaymentEntered
}

// PaymentDeletedEvent is raised when a receipt is removed
type PaymentDeletedEvent struct {
	shared.BaseDomainEvent
	ReceiptID uuid.UUID       `json:"receipt_id"`
	OrderID   uuid.UUID       `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewPaymentDeletedEvent creates a new PaymentDeletedEvent
func NewPaymentDeletedEvent(r *Receipt) *PaymentDeletedEvent {
	return &PaymentDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentDeleted, AggregateTypePayment, r.OrderID),
		ReceiptID:       r.ID,
		OrderID:         r.OrderID,
		Amount:          r.Amount,
	}
}

// EventType returns the event type name
func (e *PaymentDeletedEvent) EventType() string {
	return EventTypePaymentDeleted
}
