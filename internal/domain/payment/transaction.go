package payment

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// TransactionType is a credit card gateway transaction type
type TransactionType string

const (
	TxnAuthCapture      TransactionType = "auth_capture"
	TxnAuthOnly         TransactionType = "authorize"
	TxnReferenceSet     TransactionType = "reference_set"
	TxnCredit           TransactionType = "credit"
	TxnPriorAuthCapture TransactionType = "prior_auth_capture"
	TxnVoid             TransactionType = "void"
	TxnReferenceTxn     TransactionType = "reference_txn"
	TxnReferenceRemove  TransactionType = "reference_remove"
	TxnReferenceCredit  TransactionType = "reference_credit"
)

// AllTransactionTypes returns every transaction type
func AllTransactionTypes() []TransactionType {
	return []TransactionType{
		TxnAuthCapture, TxnAuthOnly, TxnReferenceSet, TxnCredit, TxnPriorAuthCapture,
		TxnVoid, TxnReferenceTxn, TxnReferenceRemove, TxnReferenceCredit,
	}
}

// IsValid checks if the transaction type is known
func (t TransactionType) IsValid() bool {
	for _, v := range AllTransactionTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// RequiresAuthorization reports whether the transaction acts on a prior authorization
func (t TransactionType) RequiresAuthorization() bool {
	return t == TxnPriorAuthCapture || t == TxnVoid
}

// RequiresReference reports whether the transaction acts on a stored reference
func (t TransactionType) RequiresReference() bool {
	return t == TxnReferenceTxn || t == TxnReferenceRemove || t == TxnReferenceCredit
}

// RequiresCard reports whether the transaction needs card details
func (t TransactionType) RequiresCard() bool {
	return t == TxnAuthCapture || t == TxnAuthOnly || t == TxnReferenceSet || t == TxnCredit
}

// MovesMoney reports whether the transaction needs a positive amount
func (t TransactionType) MovesMoney() bool {
	switch t {
	case TxnAuthCapture, TxnAuthOnly, TxnCredit, TxnPriorAuthCapture, TxnReferenceTxn, TxnReferenceCredit:
		return true
	}
	return false
}

// ReceiptSign returns +1 for charges, -1 for credits and 0 when no payment is logged
func (t TransactionType) ReceiptSign() int {
	switch t {
	case TxnAuthCapture, TxnPriorAuthCapture, TxnReferenceTxn:
		return 1
	case TxnCredit, TxnReferenceCredit:
		return -1
	}
	return 0
}

// Label returns the admin-facing action name
func (t TransactionType) Label() string {
	switch t {
	case TxnAuthCapture:
		return "Charge amount"
	case TxnAuthOnly:
		return "Authorize amount only"
	case TxnReferenceSet:
		return "Set a reference only"
	case TxnCredit:
		return "Credit amount to this card"
	case TxnPriorAuthCapture:
		return "Capture amount to this authorization"
	case TxnVoid:
		return "Void authorization"
	case TxnReferenceTxn:
		return "Charge amount to this reference"
	case TxnReferenceRemove:
		return "Remove reference"
	case TxnReferenceCredit:
		return "Credit amount to this reference"
	}
	return string(t)
}

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// CardData holds card details for a single terminal transaction. It is never persisted.
type CardData struct {
	Owner    string `json:"cc_owner,omitempty"`
	Number   string `json:"cc_number"`
	ExpMonth int    `json:"cc_exp_month"`
	ExpYear  int    `json:"cc_exp_year"`
	CVV      string `json:"cc_cvv,omitempty"`
}

// Validate checks the card number and expiration against now
func (c CardData) Validate(now time.Time) error {
	number := strings.ReplaceAll(strings.TrimSpace(c.Number), " ", "")
	if len(number) < 13 || len(number) > 19 || !digitsOnly.MatchString(number) {
		return shared.NewDomainError("INVALID_CARD", "You have entered an invalid credit card number.")
	}
	if c.ExpMonth < 1 || c.ExpMonth > 12 {
		return shared.NewDomainError("INVALID_CARD", "You have entered an invalid expiration date.")
	}
	if c.ExpYear < now.Year() || (c.ExpYear == now.Year() && c.ExpMonth < int(now.Month())) {
		return shared.NewDomainError("INVALID_CARD", "The credit card you entered has expired.")
	}
	if c.CVV != "" && (!digitsOnly.MatchString(c.CVV) || len(c.CVV) < 3 || len(c.CVV) > 4) {
		return shared.NewDomainError("INVALID_CARD", "You have entered an invalid CVV number.")
	}
	return nil
}

// Last4 returns the last four digits of the card number
func (c CardData) Last4() string {
	number := strings.ReplaceAll(strings.TrimSpace(c.Number), " ", "")
	if len(number) <= 4 {
		return number
	}
	return number[len(number)-4:]
}

// GatewayRequest is sent to a credit gateway
type GatewayRequest struct {
	OrderID  uuid.UUID
	Type     TransactionType
	Amount   decimal.Decimal
	Currency string
	Card     *CardData
	AuthID   string
	RefID    string
}

// GatewayResult is the gateway's answer
type GatewayResult struct {
	Success       bool
	TransactionID string
	Message       string
	// LogPayment is false when the gateway already accounted for the payment
	LogPayment bool
}

// CreditGateway processes credit card transactions
type CreditGateway interface {
	// ID returns the gateway identifier
	ID() string
	// SupportedTypes returns the transaction types the gateway can process
	SupportedTypes() []TransactionType
	// Process executes a transaction
	Process(ctx context.Context, req GatewayRequest) (*GatewayResult, error)
}

// Supports reports whether the gateway supports the transaction type
func Supports(g CreditGateway, t TransactionType) bool {
	for _, s := range g.SupportedTypes() {
		if s == t {
			return true
		}
	}
	return false
}
