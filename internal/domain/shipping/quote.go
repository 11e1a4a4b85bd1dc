package shipping

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// PluginFlatrate is the flat rate quote plugin
const PluginFlatrate = "flatrate"

// MessageFlatrateDeleted is returned after a flat rate method is removed
const MessageFlatrateDeleted = "Flat rate shipping method deleted."

var quoteIDPattern = regexp.MustCompile(`^[a-z0-9_]{1,32}$`)

// QuoteMethod is a configured shipping quote method
type QuoteMethod struct {
	ID          string
	Plugin      string
	Label       string
	Weight      int
	Enabled     bool
	BaseRate    decimal.Decimal
	ProductRate decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewFlatrateMethod creates an enabled flat rate method
func NewFlatrateMethod(id, label string, baseRate, productRate decimal.Decimal) (*QuoteMethod, error) {
	id = strings.TrimSpace(id)
	if !quoteIDPattern.MatchString(id) {
		return nil, shared.NewDomainError("INVALID_METHOD_ID", "Machine name must contain only lowercase letters, numbers and underscores")
	}
	m := &QuoteMethod{ID: id, Plugin: PluginFlatrate, Enabled: true, CreatedAt: time.Now()}
	if err := m.Update(label, 0, baseRate, productRate); err != nil {
		return nil, err
	}
	return m, nil
}

// Update changes the method settings
func (m *QuoteMethod) Update(label string, weight int, baseRate, productRate decimal.Decimal) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return shared.NewDomainError("INVALID_LABEL", "Label cannot be empty")
	}
	if baseRate.IsNegative() || productRate.IsNegative() {
		return shared.NewDomainError("INVALID_RATE", "Shipping rates cannot be negative")
	}
	m.Label = label
	m.Weight = weight
	m.BaseRate = baseRate
	m.ProductRate = productRate
	m.UpdatedAt = time.Now()
	return nil
}

// Enable enables the method
func (m *QuoteMethod) Enable() {
	m.Enabled = true
	m.UpdatedAt = time.Now()
}

// Disable disables the method
func (m *QuoteMethod) Disable() {
	m.Enabled = false
	m.UpdatedAt = time.Now()
}

// Accessorials returns the shipping line item titles this method produces
func (m *QuoteMethod) Accessorials() []string {
	return []string{m.Label}
}

// Quote returns base rate plus product rate per shippable unit.
// Orders with nothing shippable are quoted zero.
func (m *QuoteMethod) Quote(o *order.Order) decimal.Decimal {
	units := 0
	for _, p := range o.Products {
		if p.Shippable {
			units += p.Qty
		}
	}
	if units == 0 {
		return decimal.Zero
	}
	return m.BaseRate.Add(m.ProductRate.Mul(decimal.NewFromInt(int64(units))))
}

// ShippingMethodCondition tests whether an order was quoted by a particular method
type ShippingMethodCondition struct {
	MethodID     string   `json:"method_id"`
	Accessorials []string `json:"accessorials"`
}

// Evaluate checks the order's quote method, falling back to its shipping line item titles
func (c ShippingMethodCondition) Evaluate(o *order.Order) bool {
	if o.QuoteMethodID != "" {
		return o.QuoteMethodID == c.MethodID
	}
	for _, li := range o.LineItemsOfType(order.LineItemShipping) {
		for _, a := range c.Accessorials {
			if li.Title == a {
				return true
			}
		}
	}
	return false
}

// QuoteMethodRepository defines the interface for quote method persistence
type QuoteMethodRepository interface {
	// FindAll returns every quote method ordered by weight
	FindAll(ctx context.Context) ([]QuoteMethod, error)

	// FindEnabled returns enabled quote methods ordered by weight
	FindEnabled(ctx context.Context) ([]QuoteMethod, error)

	// FindByID finds a quote method
	FindByID(ctx context.Context, id string) (*QuoteMethod, error)

	// Save creates or updates a quote method
	Save(ctx context.Context, m *QuoteMethod) error

	// Delete removes a quote method
	Delete(ctx context.Context, id string) error
}
