package payment

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
)

// CreateMethodRequest represents a new payment method
type CreateMethodRequest struct {
	ID       string          `json:"id" binding:"required,max=32"`
	Plugin   string          `json:"plugin" binding:"required,oneof=check cod credit paypal_checkout other"`
	Label    string          `json:"label" binding:"required,max=255"`
	Weight   int             `json:"weight"`
	Settings json.RawMessage `json:"settings" swaggertype:"object"`
}

// UpdateMethodRequest represents a payment method update
type UpdateMethodRequest struct {
	Label    *string         `json:"label" binding:"omitempty,max=255"`
	Weight   *int            `json:"weight"`
	Settings json.RawMessage `json:"settings" swaggertype:"object"`
}

// MethodResponse represents a payment method in API responses
type MethodResponse struct {
	ID        string          `json:"id"`
	Plugin    string          `json:"plugin"`
	Label     string          `json:"label"`
	Weight    int             `json:"weight"`
	Enabled   bool            `json:"enabled"`
	Settings  json.RawMessage `json:"settings" swaggertype:"object"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ToMethodResponse converts a payment method to a response. PayPal secrets are masked.
func ToMethodResponse(m *payment.Method) MethodResponse {
	settings := m.Settings
	if m.Plugin == payment.PluginPayPalCheckout {
		s := m.PayPalSettings()
		if s.Secret != "" {
			s.Secret = "********"
		}
		if raw, err := json.Marshal(s); err == nil {
			settings = raw
		}
	}
	return MethodResponse{
		ID:        m.ID,
		Plugin:    m.Plugin.String(),
		Label:     m.Label,
		Weight:    m.Weight,
		Enabled:   m.Enabled,
		Settings:  settings,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// EnterPaymentRequest represents a payment entered by an administrator
type EnterPaymentRequest struct {
	MethodID string          `json:"method_id" binding:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Comment  string          `json:"comment" binding:"max=2000"`
}

// ReceiveCheckRequest represents a received check
type ReceiveCheckRequest struct {
	// Amount defaults to the order total
	Amount    *decimal.Decimal `json:"amount"`
	ClearDate string           `json:"clear_date" binding:"required,datetime=2006-01-02"`
	Comment   string           `json:"comment" binding:"max=2000"`
}

// ReceiptResponse represents a payment receipt in API responses
type ReceiptResponse struct {
	ID         uuid.UUID         `json:"id"`
	OrderID    uuid.UUID         `json:"order_id"`
	MethodID   string            `json:"method_id"`
	Amount     decimal.Decimal   `json:"amount"`
	Currency   string            `json:"currency"`
	AuthorID   uuid.UUID         `json:"author_id"`
	Comment    string            `json:"comment,omitempty"`
	ClearDate  string            `json:"clear_date,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	ReceivedAt time.Time         `json:"received_at"`
}

// ToReceiptResponse converts a receipt to a response
func ToReceiptResponse(r *payment.Receipt) ReceiptResponse {
	resp := ReceiptResponse{
		ID:         r.ID,
		OrderID:    r.OrderID,
		MethodID:   r.MethodID,
		Amount:     r.Amount,
		Currency:   r.Currency,
		AuthorID:   r.AuthorID,
		Comment:    r.Comment,
		Data:       r.Data,
		ReceivedAt: r.ReceivedAt,
	}
	if d, ok := r.ClearDate(); ok {
		resp.ClearDate = d.Format(time.DateOnly)
	}
	return resp
}

// PaymentsResponse lists the receipts of an order with its balance
type PaymentsResponse struct {
	OrderID  uuid.UUID         `json:"order_id"`
	Total    decimal.Decimal   `json:"total"`
	Balance  decimal.Decimal   `json:"balance"`
	Currency string            `json:"currency"`
	Receipts []ReceiptResponse `json:"receipts"`
}

// TransactionOption is a terminal action offered by the gateway
type TransactionOption struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

// AuthorizationResponse is an uncaptured authorization shown in the terminal
type AuthorizationResponse struct {
	ID           string          `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	AuthorizedAt time.Time       `json:"authorized_at"`
}

// ReferenceResponse is a stored card reference shown in the terminal
type ReferenceResponse struct {
	ID        string    `json:"id"`
	CardLast4 string    `json:"card_last4,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TerminalResponse is the credit card terminal view of an order
type TerminalResponse struct {
	OrderID        uuid.UUID               `json:"order_id"`
	Gateway        string                  `json:"gateway"`
	OrderTotal     decimal.Decimal         `json:"order_total"`
	Balance        decimal.Decimal         `json:"balance"`
	DefaultAmount  decimal.Decimal         `json:"default_amount"`
	Currency       string                  `json:"currency"`
	Transactions   []TransactionOption     `json:"transactions"`
	Authorizations []AuthorizationResponse `json:"authorizations"`
	References     []ReferenceResponse     `json:"references"`
}

func toAuthorizationResponses(auths []order.Authorization) []AuthorizationResponse {
	out := make([]AuthorizationResponse, len(auths))
	for i, a := range auths {
		out[i] = AuthorizationResponse{ID: a.ID, Amount: a.Amount, AuthorizedAt: a.AuthorizedAt}
	}
	return out
}

func toReferenceResponses(refs []order.Reference) []ReferenceResponse {
	out := make([]ReferenceResponse, len(refs))
	for i, r := range refs {
		out[i] = ReferenceResponse{ID: r.ID, CardLast4: r.CardLast4, CreatedAt: r.CreatedAt}
	}
	return out
}

// TerminalRequest is a transaction submitted from the credit card terminal
type TerminalRequest struct {
	Type   string            `json:"type" binding:"required"`
	Amount decimal.Decimal   `json:"amount"`
	Card   *payment.CardData `json:"card"`
	AuthID string            `json:"auth_id"`
	RefID  string            `json:"ref_id"`
}

// TerminalResult is the outcome of a terminal transaction
type TerminalResult struct {
	Success       bool             `json:"success"`
	Message       string           `json:"message"`
	TransactionID string           `json:"transaction_id,omitempty"`
	Receipt       *ReceiptResponse `json:"receipt,omitempty"`
	Balance       decimal.Decimal  `json:"balance"`
}

// PayPalCreateRequest asks for a PayPal payment for a checkout order
type PayPalCreateRequest struct {
	ReturnURL string `json:"return_url" binding:"required,url"`
	CancelURL string `json:"cancel_url" binding:"omitempty,url"`
}

// PayPalCreateResponse is the created PayPal payment
type PayPalCreateResponse struct {
	PaymentID   string `json:"payment_id"`
	ApprovalURL string `json:"approval_url"`
}

// PayPalExecuteRequest executes an approved PayPal payment
type PayPalExecuteRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
	PayerID   string `json:"payer_id" binding:"required"`
}
