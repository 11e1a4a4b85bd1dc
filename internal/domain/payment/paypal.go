package payment

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// PayPalPartnerAttributionID is sent with every PayPal REST request
const PayPalPartnerAttributionID = "Ubercart_PayFlowPro_EC_US"

// PayPalAmount is the amount of a PayPal transaction
type PayPalAmount struct {
	Total    decimal.Decimal
	Currency string
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
}

// PayPalCreateRequest describes a payment to create
type PayPalCreateRequest struct {
	Amount    PayPalAmount
	ReturnURL string
	CancelURL string
}

// PayPalPayment is a payment returned by the PayPal REST API
type PayPalPayment struct {
	ID          string
	State       string
	ApprovalURL string
	Total       decimal.Decimal
	Currency    string
	PayerFirst  string
	PayerLast   string
	// ShippingAddress is the payer's shipping address when PayPal returned one
	ShippingAddress *valueobject.Address
}

// PayPalGateway talks to the PayPal REST API with the given settings
type PayPalGateway interface {
	// CreatePayment creates a sale payment awaiting payer approval
	CreatePayment(ctx context.Context, settings PayPalSettings, req PayPalCreateRequest) (*PayPalPayment, error)
	// ExecutePayment executes an approved payment
	ExecutePayment(ctx context.Context, settings PayPalSettings, paymentID, payerID string) (*PayPalPayment, error)
}
