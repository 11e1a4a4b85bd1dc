package order

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Authorization is a credit card authorization held against an order
type Authorization struct {
	ID           string          `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	AuthorizedAt time.Time       `json:"authorized"`
	CapturedAt   *time.Time      `json:"captured,omitempty"`
}

// IsCaptured returns true once the authorization has been captured
func (a Authorization) IsCaptured() bool {
	return a.CapturedAt != nil
}

// Reference is a stored card reference usable for later transactions
type Reference struct {
	ID        string    `json:"id"`
	CardLast4 string    `json:"card,omitempty"`
	CreatedAt time.Time `json:"created"`
}

// CreditTxns holds the credit card authorizations and references of an order
type CreditTxns struct {
	Authorizations map[string]Authorization `json:"authorizations,omitempty"`
	References     map[string]Reference     `json:"references,omitempty"`
}

// NewCreditTxns returns an empty CreditTxns
func NewCreditTxns() CreditTxns {
	return CreditTxns{
		Authorizations: make(map[string]Authorization),
		References:     make(map[string]Reference),
	}
}

func (t *CreditTxns) init() {
	if t.Authorizations == nil {
		t.Authorizations = make(map[string]Authorization)
	}
	if t.References == nil {
		t.References = make(map[string]Reference)
	}
}

// Value implements driver.Valuer for database storage
func (t CreditTxns) Value() (driver.Value, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database retrieval
func (t *CreditTxns) Scan(value any) error {
	*t = NewCreditTxns()
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into CreditTxns", value)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, t); err != nil {
		return err
	}
	t.init()
	return nil
}

// LogAuthorization records a new authorization
func (o *Order) LogAuthorization(authID string, amount decimal.Decimal, at time.Time) {
	o.CreditTxns.init()
	o.CreditTxns.Authorizations[authID] = Authorization{ID: authID, Amount: amount, AuthorizedAt: at}
	o.touch()
}

// CaptureAuthorization marks an authorization captured. Each authorization captures once.
func (o *Order) CaptureAuthorization(authID string, at time.Time) error {
	o.CreditTxns.init()
	auth, ok := o.CreditTxns.Authorizations[authID]
	if !ok {
		return shared.NewDomainError("AUTHORIZATION_NOT_FOUND", "Authorization not found: "+authID)
	}
	if auth.IsCaptured() {
		return shared.NewDomainError("INVALID_STATE", "Authorization has already been captured: "+authID)
	}
	auth.CapturedAt = &at
	o.CreditTxns.Authorizations[authID] = auth
	o.touch()
	return nil
}

// VoidAuthorization removes an authorization
func (o *Order) VoidAuthorization(authID string) error {
	o.CreditTxns.init()
	if _, ok := o.CreditTxns.Authorizations[authID]; !ok {
		return shared.NewDomainError("AUTHORIZATION_NOT_FOUND", "Authorization not found: "+authID)
	}
	delete(o.CreditTxns.Authorizations, authID)
	o.touch()
	return nil
}

// LogReference records a card reference
func (o *Order) LogReference(refID, cardLast4 string, at time.Time) {
	o.CreditTxns.init()
	o.CreditTxns.References[refID] = Reference{ID: refID, CardLast4: cardLast4, CreatedAt: at}
	o.touch()
}

// RemoveReference deletes a card reference
func (o *Order) RemoveReference(refID string) error {
	o.CreditTxns.init()
	if _, ok := o.CreditTxns.References[refID]; !ok {
		return shared.NewDomainError("REFERENCE_NOT_FOUND", "Reference not found: "+refID)
	}
	delete(o.CreditTxns.References, refID)
	o.touch()
	return nil
}

// UncapturedAuthorizations returns authorizations not yet captured, oldest first
func (o *Order) UncapturedAuthorizations() []Authorization {
	out := make([]Authorization, 0, len(o.CreditTxns.Authorizations))
	for _, a := range o.CreditTxns.Authorizations {
		if !a.IsCaptured() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AuthorizedAt.Equal(out[j].AuthorizedAt) {
			return out[i].AuthorizedAt.Before(out[j].AuthorizedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SortedReferences returns the stored references, oldest first
func (o *Order) SortedReferences() []Reference {
	out := make([]Reference, 0, len(o.CreditTxns.References))
	for _, r := range o.CreditTxns.References {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
