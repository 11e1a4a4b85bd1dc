package order

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// CheckoutCompleteComment is recorded when an order leaves checkout
const CheckoutCompleteComment = "Order created through website."

// CheckoutRules are the store-wide checkout settings
type CheckoutRules struct {
	Enabled           bool
	AnonymousCheckout bool
	MinimumSubtotal   decimal.Decimal
	// Countries lists the enabled ISO country codes. Empty enables all.
	Countries []string
}

// CountryEnabled reports whether addresses in the country are accepted
func (r CheckoutRules) CountryEnabled(code string) bool {
	if len(r.Countries) == 0 {
		return true
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	return slices.ContainsFunc(r.Countries, func(c string) bool {
		return strings.EqualFold(strings.TrimSpace(c), code)
	})
}

// CheckAddresses rejects billing or delivery addresses outside the enabled countries
func (r CheckoutRules) CheckAddresses(o *Order) error {
	if c := o.BillingAddress.Country; c != "" && !r.CountryEnabled(c) {
		return shared.Errorf("INVALID_INPUT", "Billing country %s is not available.", c)
	}
	if c := o.DeliveryAddress.Country; c != "" && !r.CountryEnabled(c) {
		return shared.Errorf("INVALID_INPUT", "Delivery country %s is not available.", c)
	}
	return nil
}

// check applies the rules shared by every checkout step
func (r CheckoutRules) check(o *Order, catalog *StatusCatalog, userID uuid.UUID) error {
	if !r.Enabled {
		return shared.NewDomainError("INVALID_STATE", "Checkout is currently disabled.")
	}
	if userID == uuid.Nil && !r.AnonymousCheckout {
		return shared.NewDomainError("UNAUTHORIZED", "You must login before you can proceed to checkout.")
	}
	if !o.IsAnonymous() && o.OwnerID != userID {
		return shared.NewDomainError("FORBIDDEN", "This order belongs to another customer.")
	}
	if o.State(catalog) != StateInCheckout {
		return shared.NewDomainError("INVALID_STATE", "This order has already been checked out.")
	}
	if len(o.Products) == 0 {
		return shared.NewDomainError("INVALID_STATE", "There are no products in the shopping cart.")
	}
	if r.MinimumSubtotal.IsPositive() && o.Subtotal().LessThan(r.MinimumSubtotal) {
		return shared.NewDomainError("INVALID_STATE",
			"The minimum order subtotal for checkout is "+r.MinimumSubtotal.StringFixed(o.Currency.Scale())+" "+o.Currency.String()+".")
	}
	return nil
}

// StartCheckout validates that the order can enter checkout and raises CheckoutStarted.
// userID is uuid.Nil for anonymous visitors.
func (o *Order) StartCheckout(catalog *StatusCatalog, rules CheckoutRules, userID uuid.UUID) error {
	if err := rules.check(o, catalog, userID); err != nil {
		return err
	}
	if o.IsAnonymous() && userID != uuid.Nil {
		o.OwnerID = userID
	}
	o.AddDomainEvent(NewCheckoutStartedEvent(o))
	return nil
}

// CompleteCheckout re-applies the checkout rules and moves the order to the
// default post-checkout status
func (o *Order) CompleteCheckout(catalog *StatusCatalog, rules CheckoutRules, userID uuid.UUID) error {
	if err := rules.check(o, catalog, userID); err != nil {
		return err
	}
	if err := rules.CheckAddresses(o); err != nil {
		return err
	}
	status, ok := catalog.DefaultStatus(StatePostCheckout)
	if !ok {
		return shared.NewDomainError("INVALID_STATE", "No post checkout status configured")
	}
	if err := o.UpdateStatus(catalog, status.ID, userID, CheckoutCompleteComment, false); err != nil {
		return err
	}
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewCheckoutCompletedEvent(o))
	return nil
}
