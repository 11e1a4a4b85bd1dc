package tax

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// PluginPercentageRate is the percentage tax plugin
const PluginPercentageRate = "percentage_rate"

// MessageNoRates is shown when no tax rate exists
const MessageNoRates = "No tax rates have been configured yet."

// SubtotalTitle is the title of the display-only subtotal line added when taxes apply
const SubtotalTitle = "Subtotal excluding taxes"

var rateIDPattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// Rate is a percentage tax rule
type Rate struct {
	ID             string
	Plugin         string
	Label          string
	Rate           decimal.Decimal // fraction, 0.06 for 6%
	Jurisdiction   string
	ShippableOnly  bool
	ProductTypes   []string
	LineItemTypes  []string
	Weight         int
	DisplayInclude bool
	InclusionText  string
	Enabled        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RateSettings are the editable fields of a tax rate
type RateSettings struct {
	Label          string
	Rate           decimal.Decimal
	Jurisdiction   string
	ShippableOnly  bool
	ProductTypes   []string
	LineItemTypes  []string
	Weight         int
	DisplayInclude bool
	InclusionText  string
}

// NewRate creates an enabled percentage tax rate
func NewRate(id string, s RateSettings) (*Rate, error) {
	id = strings.TrimSpace(id)
	if !rateIDPattern.MatchString(id) {
		return nil, shared.NewDomainError("INVALID_RATE_ID", "Machine name must contain only lowercase letters, numbers and underscores")
	}
	r := &Rate{ID: id, Plugin: PluginPercentageRate, Enabled: true, CreatedAt: time.Now()}
	if err := r.Update(s); err != nil {
		return nil, err
	}
	return r, nil
}

// Update replaces the editable fields
func (r *Rate) Update(s RateSettings) error {
	label := strings.TrimSpace(s.Label)
	if label == "" {
		return shared.NewDomainError("INVALID_LABEL", "Label cannot be empty")
	}
	if s.Rate.IsNegative() {
		return shared.NewDomainError("INVALID_RATE", "Tax rate cannot be negative")
	}
	for _, t := range s.LineItemTypes {
		if !order.LineItemType(t).IsValid() {
			return shared.NewDomainError("INVALID_LINE_ITEM_TYPE", "Unknown line item type: "+t)
		}
	}
	r.Label = label
	r.Rate = s.Rate
	r.Jurisdiction = strings.TrimSpace(s.Jurisdiction)
	r.ShippableOnly = s.ShippableOnly
	r.ProductTypes = dedupe(s.ProductTypes)
	r.LineItemTypes = dedupe(s.LineItemTypes)
	r.Weight = s.Weight
	r.DisplayInclude = s.DisplayInclude
	r.InclusionText = s.InclusionText
	r.UpdatedAt = time.Now()
	return nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Enable enables the rate and returns the confirmation message
func (r *Rate) Enable() string {
	r.Enabled = true
	r.UpdatedAt = time.Now()
	return fmt.Sprintf("The %s tax rate has been enabled.", r.Label)
}

// Disable disables the rate and returns the confirmation message
func (r *Rate) Disable() string {
	r.Enabled = false
	r.UpdatedAt = time.Now()
	return fmt.Sprintf("The %s tax rate has been disabled.", r.Label)
}

// Clone returns a copy with ID "<id>_clone" and label "Copy of <label>", plus the confirmation message
func (r *Rate) Clone() (*Rate, string) {
	now := time.Now()
	c := *r
	c.ID = r.ID + "_clone"
	c.Label = "Copy of " + r.Label
	c.ProductTypes = append([]string(nil), r.ProductTypes...)
	c.LineItemTypes = append([]string(nil), r.LineItemTypes...)
	c.CreatedAt = now
	c.UpdatedAt = now
	return &c, fmt.Sprintf("Tax rate %s was cloned.", r.Label)
}

// DeletedMessage returns the confirmation shown after deleting the rate
func (r *Rate) DeletedMessage() string {
	return fmt.Sprintf("Tax rate %s has been deleted.", r.Label)
}

// RatePercent renders the rate as a percentage, e.g. "20%"
func (r *Rate) RatePercent() string {
	return r.Rate.Mul(decimal.NewFromInt(100)).String() + "%"
}

// ProductTypesSummary describes the taxed products
func (r *Rate) ProductTypesSummary() string {
	if r.ShippableOnly {
		return "Shippable products only"
	}
	return "Any product"
}

func (r *Rate) appliesToProduct(p *order.OrderProduct) bool {
	if r.ShippableOnly && !p.Shippable {
		return false
	}
	if len(r.ProductTypes) == 0 {
		return true
	}
	for _, t := range r.ProductTypes {
		if t == p.ProductClass {
			return true
		}
	}
	return false
}

func (r *Rate) appliesToLineItem(li order.LineItem) bool {
	for _, t := range r.LineItemTypes {
		if order.LineItemType(t) == li.Type {
			return true
		}
	}
	return false
}

// Taxable returns the amount the rate applies to on the given products and line items
func (r *Rate) Taxable(products []order.OrderProduct, lineItems []order.LineItem) decimal.Decimal {
	taxable := decimal.Zero
	for i := range products {
		if r.appliesToProduct(&products[i]) {
			taxable = taxable.Add(products[i].LineTotal())
		}
	}
	for _, li := range lineItems {
		if r.appliesToLineItem(li) {
			taxable = taxable.Add(li.Amount)
		}
	}
	return taxable
}

// Apply returns the unrounded tax for the order
func (r *Rate) Apply(o *order.Order) decimal.Decimal {
	return r.Rate.Mul(r.Taxable(o.Products, o.LineItems))
}

// Line is a computed tax for an order
type Line struct {
	RateID       string          `json:"rate_id"`
	Label        string          `json:"label"`
	Rate         decimal.Decimal `json:"rate"`
	Jurisdiction string          `json:"jurisdiction,omitempty"`
	Taxable      decimal.Decimal `json:"taxable_amount"`
	Amount       decimal.Decimal `json:"amount"`
	Weight       int             `json:"weight"`
}

// Calculate applies every enabled rate in weight order. Existing tax line items on the
// order are ignored; taxes computed earlier in the run are visible to later rates that
// tax the "tax" line item type. Amounts are rounded to the order currency.
func Calculate(o *order.Order, rates []Rate) []Line {
	sorted := make([]Rate, 0, len(rates))
	for _, r := range rates {
		if r.Enabled {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Weight != sorted[j].Weight {
			return sorted[i].Weight < sorted[j].Weight
		}
		return sorted[i].ID < sorted[j].ID
	})

	items := make([]order.LineItem, 0, len(o.LineItems)+len(sorted))
	for _, li := range o.LineItems {
		if li.Type != order.LineItemTax && li.Type != order.LineItemTaxSubtotal {
			items = append(items, li)
		}
	}

	scale := o.Currency.Scale()
	var lines []Line
	for i := range sorted {
		r := &sorted[i]
		taxable := r.Taxable(o.Products, items)
		amount := r.Rate.Mul(taxable).Round(scale)
		if amount.IsZero() {
			continue
		}
		lines = append(lines, Line{
			RateID:       r.ID,
			Label:        r.Label,
			Rate:         r.Rate,
			Jurisdiction: r.Jurisdiction,
			Taxable:      taxable,
			Amount:       amount,
			Weight:       r.Weight,
		})
		items = append(items, order.LineItem{Type: order.LineItemTax, Title: r.Label, Amount: amount})
	}
	return lines
}

// ToLineItems converts tax lines to order line items, adding a display-only
// subtotal when any tax applies.
func ToLineItems(o *order.Order, lines []Line) ([]*order.LineItem, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	out := make([]*order.LineItem, 0, len(lines)+1)
	subtotal := o.Subtotal()
	for _, li := range o.LineItems {
		if li.Type != order.LineItemTax && li.Type != order.LineItemTaxSubtotal && li.Type.InTotal() {
			subtotal = subtotal.Add(li.Amount)
		}
	}
	st, err := order.NewLineItem(order.LineItemTaxSubtotal, SubtotalTitle, subtotal, 8)
	if err != nil {
		return nil, err
	}
	out = append(out, st)
	for _, l := range lines {
		li, err := order.NewLineItem(order.LineItemTax, l.Label, l.Amount, 9)
		if err != nil {
			return nil, err
		}
		li.Data["tax_id"] = l.RateID
		li.Data["tax_rate"] = l.Rate.String()
		li.Data["taxable_amount"] = l.Taxable.String()
		li.Data["tax_jurisdiction"] = l.Jurisdiction
		out = append(out, li)
	}
	return out, nil
}

// RateRepository defines the interface for tax rate persistence
type RateRepository interface {
	// FindAll returns every tax rate ordered by weight
	FindAll(ctx context.Context) ([]Rate, error)

	// FindEnabled returns enabled tax rates ordered by weight
	FindEnabled(ctx context.Context) ([]Rate, error)

	// FindByID finds a tax rate
	FindByID(ctx context.Context, id string) (*Rate, error)

	// ExistsByID checks if a tax rate exists
	ExistsByID(ctx context.Context, id string) (bool, error)

	// Save creates or updates a tax rate
	Save(ctx context.Context, r *Rate) error

	// Delete removes a tax rate
	Delete(ctx context.Context, id string) error
}
