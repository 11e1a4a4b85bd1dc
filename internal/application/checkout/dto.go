package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/domain/tax"
)

// CreateCartRequest represents a new shopping cart order
type CreateCartRequest struct {
	PrimaryEmail string                       `json:"primary_email" binding:"omitempty,email,max=254"`
	Currency     string                       `json:"currency" binding:"omitempty,len=3"`
	Products     []orderapp.AddProductRequest `json:"products" binding:"required,min=1,dive"`
}

// UpdateCheckoutRequest represents the checkout panes submitted by the customer
type UpdateCheckoutRequest struct {
	PrimaryEmail    *string              `json:"primary_email" binding:"omitempty,email,max=254"`
	BillingAddress  *valueobject.Address `json:"billing_address"`
	DeliveryAddress *valueobject.Address `json:"delivery_address"`
	PaymentMethodID *string              `json:"payment_method_id"`
	QuoteMethodID   *string              `json:"quote_method_id"`
}

// PaymentMethodSummary names the payment method selected for an order
type PaymentMethodSummary struct {
	ID     string `json:"id"`
	Plugin string `json:"plugin"`
	Label  string `json:"label"`
}

// QuoteResponse is the shipping quote of an order
type QuoteResponse struct {
	MethodID string          `json:"method_id"`
	Label    string          `json:"label"`
	Amount   decimal.Decimal `json:"amount"`
}

// ReviewResponse is the checkout review shown before the order is submitted
type ReviewResponse struct {
	OrderID       uuid.UUID              `json:"order_id"`
	Order         orderapp.OrderResponse `json:"order"`
	PaymentMethod *PaymentMethodSummary  `json:"payment_method,omitempty"`
	Quote         *QuoteResponse         `json:"quote,omitempty"`
	TaxLines      []tax.Line             `json:"tax_lines"`
	TaxTotal      decimal.Decimal        `json:"tax_total"`
	Total         decimal.Decimal        `json:"total"`
}
