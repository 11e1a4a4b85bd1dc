package order

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// AdminCreatedComment is the admin comment recorded on orders created from the admin UI
const AdminCreatedComment = "Order created by the administration."

// LineItemType classifies an order line item
type LineItemType string

const (
	LineItemGeneric     LineItemType = "generic"
	LineItemShipping    LineItemType = "shipping"
	LineItemTax         LineItemType = "tax"
	LineItemTaxSubtotal LineItemType = "tax_subtotal"
)

// IsValid checks if the line item type is known
func (t LineItemType) IsValid() bool {
	switch t {
	case LineItemGeneric, LineItemShipping, LineItemTax, LineItemTaxSubtotal:
		return true
	}
	return false
}

// InTotal reports whether line items of this type are added to the order total.
// Tax subtotals are display-only.
func (t LineItemType) InTotal() bool {
	return t != LineItemTaxSubtotal
}

// CommentKind distinguishes customer-visible order comments from admin-only notes
type CommentKind string

const (
	CommentKindOrder CommentKind = "order"
	CommentKindAdmin CommentKind = "admin"
)

// OrderProduct is a product purchased on an order
type OrderProduct struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ProductID    uuid.UUID
	SKU          string
	Title        string
	ProductClass string
	Qty          int
	Price        decimal.Decimal
	Cost         decimal.Decimal
	Weight       decimal.Decimal
	WeightUnit   string
	Shippable    bool
	Data         map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewOrderProduct creates a new order product
func NewOrderProduct(productID uuid.UUID, sku, title string, qty int, price decimal.Decimal) (*OrderProduct, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "Product SKU cannot be empty")
	}
	if strings.TrimSpace(title) == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Product title cannot be empty")
	}
	if qty <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	now := time.Now()
	return &OrderProduct{
		ID:         uuid.New(),
		ProductID:  productID,
		SKU:        strings.TrimSpace(sku),
		Title:      strings.TrimSpace(title),
		Qty:        qty,
		Price:      price,
		Cost:       decimal.Zero,
		Weight:     decimal.Zero,
		WeightUnit: "lb",
		Shippable:  true,
		Data:       map[string]any{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// LineTotal returns price * qty
func (p *OrderProduct) LineTotal() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Qty)))
}

// LineCost returns cost * qty
func (p *OrderProduct) LineCost() decimal.Decimal {
	return p.Cost.Mul(decimal.NewFromInt(int64(p.Qty)))
}

// LineItem is a non-product amount on an order such as shipping or tax
type LineItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Type      LineItemType
	Title     string
	Amount    decimal.Decimal
	Weight    int
	Data      map[string]any
	CreatedAt time.Time
}

// NewLineItem creates a new line item
func NewLineItem(itemType LineItemType, title string, amount decimal.Decimal, weight int) (*LineItem, error) {
	if !itemType.IsValid() {
		return nil, shared.NewDomainError("INVALID_LINE_ITEM_TYPE", "Unknown line item type: "+string(itemType))
	}
	if strings.TrimSpace(title) == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Line item title cannot be empty")
	}
	return &LineItem{
		ID:        uuid.New(),
		Type:      itemType,
		Title:     strings.TrimSpace(title),
		Amount:    amount,
		Weight:    weight,
		Data:      map[string]any{},
		CreatedAt: time.Now(),
	}, nil
}

// Comment is an entry in the order history
type Comment struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	AuthorID  uuid.UUID
	Kind      CommentKind
	Message   string
	StatusID  string
	Notified  bool
	CreatedAt time.Time
}

// Order is the aggregate root for a store order
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber     string
	OwnerID         uuid.UUID // uuid.Nil for anonymous customers
	PrimaryEmail    string
	StatusID        string
	Currency        valueobject.Currency
	Products        []OrderProduct
	LineItems       []LineItem
	BillingAddress  valueobject.Address
	DeliveryAddress valueobject.Address
	PaymentMethodID string
	QuoteMethodID   string
	CreditTxns      CreditTxns
	Comments        []Comment
	Host            string
	DeletedAt       *time.Time
}

// NewOrder creates an order in the default in-checkout status
func NewOrder(orderNumber string, ownerID uuid.UUID, currency valueobject.Currency, catalog *StatusCatalog) (*Order, error) {
	return newOrder(orderNumber, ownerID, currency, catalog, StateInCheckout)
}

// NewAdminOrder creates an order on behalf of a customer in the default post-checkout status
func NewAdminOrder(orderNumber string, ownerID uuid.UUID, currency valueobject.Currency, catalog *StatusCatalog, adminID uuid.UUID) (*Order, error) {
	o, err := newOrder(orderNumber, ownerID, currency, catalog, StatePostCheckout)
	if err != nil {
		return nil, err
	}
	o.AddAdminComment(adminID, AdminCreatedComment)
	return o, nil
}

func newOrder(orderNumber string, ownerID uuid.UUID, currency valueobject.Currency, catalog *StatusCatalog, state State) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	status, ok := catalog.DefaultStatus(state)
	if !ok {
		return nil, shared.NewDomainError("INVALID_STATE", "No status configured for state "+state.Label())
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		OwnerID:           ownerID,
		StatusID:          status.ID,
		Currency:          currency,
		Products:          make([]OrderProduct, 0),
		LineItems:         make([]LineItem, 0),
		Comments:          make([]Comment, 0),
		CreditTxns:        NewCreditTxns(),
	}
	o.AddDomainEvent(NewOrderCreatedEvent(o))
	return o, nil
}

// IsAnonymous returns true if the order has no registered owner
func (o *Order) IsAnonymous() bool {
	return o.OwnerID == uuid.Nil
}

// IsDeleted returns true if the order was soft-deleted
func (o *Order) IsDeleted() bool {
	return o.DeletedAt != nil
}

// State returns the state of the current status
func (o *Order) State(catalog *StatusCatalog) State {
	return catalog.StateOf(o.StatusID)
}

func (o *Order) ensureEditable() error {
	if o.IsDeleted() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a deleted order")
	}
	return nil
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now()
}

// AddProduct attaches a product to the order
func (o *Order) AddProduct(p *OrderProduct) error {
	if err := o.ensureEditable(); err != nil {
		return err
	}
	if p == nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product cannot be nil")
	}
	p.OrderID = o.ID
	o.Products = append(o.Products, *p)
	o.touch()
	return nil
}

// GetProduct returns the order product with the given ID, or nil
func (o *Order) GetProduct(id uuid.UUID) *OrderProduct {
	for i := range o.Products {
		if o.Products[i].ID == id {
			return &o.Products[i]
		}
	}
	return nil
}

// UpdateProductQty changes the quantity of an order product
func (o *Order) UpdateProductQty(id uuid.UUID, qty int) error {
	if err := o.ensureEditable(); err != nil {
		return err
	}
	if qty <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	p := o.GetProduct(id)
	if p == nil {
		return shared.NewDomainError("PRODUCT_NOT_FOUND", "Order product not found")
	}
	p.Qty = qty
	p.UpdatedAt = time.Now()
	o.touch()
	return nil
}

// RemoveProduct removes an order product
func (o *Order) RemoveProduct(id uuid.UUID) error {
	if err := o.ensureEditable(); err != nil {
		return err
	}
	for idx := range o.Products {
		if o.Products[idx].ID == id {
			o.Products = append(o.Products[:idx], o.Products[idx+1:]...)
			o.touch()
			return nil
		}
	}
	return shared.NewDomainError("PRODUCT_NOT_FOUND", "Order product not found")
}

// AddLineItem attaches a line item to the order
func (o *Order) AddLineItem(li *LineItem) error {
	if err := o.ensureEditable(); err != nil {
		return err
	}
	if li == nil {
		return shared.NewDomainError("INVALID_LINE_ITEM", "Line item cannot be nil")
	}
	li.OrderID = o.ID
	o.LineItems = append(o.LineItems, *li)
	o.sortLineItems()
	o.touch()
	return nil
}

// RemoveLineItem removes a line item by ID
func (o *Order) RemoveLineItem(id uuid.UUID) error {
	if err := o.ensureEditable(); err != nil {
		return err
	}
	for idx := range o.LineItems {
		if o.LineItems[idx].ID == id {
			o.LineItems = append(o.LineItems[:idx], o.LineItems[idx+1:]...)
			o.touch()
			return nil
		}
	}
	return shared.NewDomainError("LINE_ITEM_NOT_FOUND", "Line item not found")
}

// RemoveLineItemsOfType removes every line item of the given type
func (o *Order) RemoveLineItemsOfType(t LineItemType) {
	kept := o.LineItems[:0]
	for _, li := range o.LineItems {
		if li.Type != t {
			kept = append(kept, li)
		}
	}
	o.LineItems = kept
}

// LineItemsOfType returns the line items of the given type
func (o *Order) LineItemsOfType(t LineItemType) []LineItem {
	var out []LineItem
	for _, li := range o.LineItems {
		if li.Type == t {
			out = append(out, li)
		}
	}
	return out
}

func (o *Order) sortLineItems() {
	sort.SliceStable(o.LineItems, func(i, j int) bool {
		return o.LineItems[i].Weight < o.LineItems[j].Weight
	})
}

// SetBillingAddress replaces the billing address
func (o *Order) SetBillingAddress(a valueobject.Address) {
	o.BillingAddress = a.Normalize()
	o.touch()
}

// SetDeliveryAddress replaces the delivery address
func (o *Order) SetDeliveryAddress(a valueobject.Address) {
	o.DeliveryAddress = a.Normalize()
	o.touch()
}

// SetPaymentMethod selects the payment method
func (o *Order) SetPaymentMethod(methodID string) {
	o.PaymentMethodID = methodID
	o.touch()
}

// SetQuoteMethod selects the shipping quote method
func (o *Order) SetQuoteMethod(methodID string) {
	o.QuoteMethodID = methodID
	o.touch()
}

// Subtotal returns the sum of price * qty over all products
func (o *Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Products {
		total = total.Add(o.Products[i].LineTotal())
	}
	return total
}

// Total returns the subtotal plus every line item counted in the total
func (o *Order) Total() decimal.Decimal {
	total := o.Subtotal()
	for _, li := range o.LineItems {
		if li.Type.InTotal() {
			total = total.Add(li.Amount)
		}
	}
	return total
}

// TotalMoney returns the order total as Money in the order currency
func (o *Order) TotalMoney() valueobject.Money {
	return valueobject.MustMoney(o.Total(), o.Currency)
}

// ProductCount returns the total quantity over all products
func (o *Order) ProductCount() int {
	n := 0
	for _, p := range o.Products {
		n += p.Qty
	}
	return n
}

// IsShippable returns true if any product on the order is shippable
func (o *Order) IsShippable() bool {
	for _, p := range o.Products {
		if p.Shippable {
			return true
		}
	}
	return false
}

// ProductClasses returns the distinct product classes on the order, sorted
func (o *Order) ProductClasses() []string {
	seen := make(map[string]struct{})
	for _, p := range o.Products {
		if p.ProductClass != "" {
			seen[p.ProductClass] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Weight returns the total product weight
func (o *Order) Weight() decimal.Decimal {
	total := decimal.Zero
	for _, p := range o.Products {
		total = total.Add(p.Weight.Mul(decimal.NewFromInt(int64(p.Qty))))
	}
	return total
}

// UpdateStatus moves the order to a new status and records the change in the order history.
// A status equal to the current one is a no-op unless a message is given.
func (o *Order) UpdateStatus(catalog *StatusCatalog, statusID string, authorID uuid.UUID, message string, notify bool) error {
	if err := o.ensureEditable(); err != nil {
		return err
	}
	if _, ok := catalog.Get(statusID); !ok {
		return shared.Errorf("INVALID_INPUT", "Unknown order status %q", statusID)
	}
	changed := statusID != o.StatusID
	if !changed && strings.TrimSpace(message) == "" {
		return nil
	}

	if changed {
		from := o.StatusID
		o.StatusID = statusID
		o.AddDomainEvent(NewOrderStatusUpdatedEvent(o, from, statusID, authorID))
	}
	o.recordComment(authorID, message, notify)
	o.touch()
	return nil
}

// PaidInFullComment is recorded when a payment settles the order balance
const PaidInFullComment = "Order paid in full."

// SettleBalance moves a post-checkout order whose balance is paid to the
// default payment received status, or to completed when nothing ships.
// It reports whether the status changed.
func (o *Order) SettleBalance(catalog *StatusCatalog, balance decimal.Decimal, authorID uuid.UUID) (bool, error) {
	if balance.IsPositive() || o.IsDeleted() || o.State(catalog) != StatePostCheckout {
		return false, nil
	}
	target := StatePaymentReceived
	if !o.IsShippable() {
		target = StateCompleted
	}
	status, ok := catalog.DefaultStatus(target)
	if !ok {
		return false, shared.Errorf("INVALID_STATE", "No status configured for state %s", target.Label())
	}
	if err := o.UpdateStatus(catalog, status.ID, authorID, PaidInFullComment, false); err != nil {
		return false, err
	}
	return true, nil
}

// AddComment records a customer-visible comment at the current status
func (o *Order) AddComment(authorID uuid.UUID, message string, notify bool) error {
	if err := o.ensureEditable(); err != nil {
		return err
	}
	if strings.TrimSpace(message) == "" {
		return shared.NewDomainError("INVALID_COMMENT", "Comment cannot be empty")
	}
	o.recordComment(authorID, message, notify)
	o.touch()
	return nil
}

func (o *Order) recordComment(authorID uuid.UUID, message string, notify bool) {
	c := Comment{
		ID:        uuid.New(),
		OrderID:   o.ID,
		AuthorID:  authorID,
		Kind:      CommentKindOrder,
		Message:   strings.TrimSpace(message),
		StatusID:  o.StatusID,
		Notified:  notify,
		CreatedAt: time.Now(),
	}
	o.Comments = append(o.Comments, c)
	o.AddDomainEvent(NewOrderCommentAddedEvent(o, c))
	if notify {
		o.AddDomainEvent(NewOrderStatusEmailRequestedEvent(o, c))
	}
}

// AddAdminComment records an admin-only note
func (o *Order) AddAdminComment(authorID uuid.UUID, message string) {
	c := Comment{
		ID:        uuid.New(),
		OrderID:   o.ID,
		AuthorID:  authorID,
		Kind:      CommentKindAdmin,
		Message:   strings.TrimSpace(message),
		StatusID:  o.StatusID,
		CreatedAt: time.Now(),
	}
	o.Comments = append(o.Comments, c)
	o.AddDomainEvent(NewOrderCommentAddedEvent(o, c))
	o.touch()
}

// OrderComments returns the customer-visible comments
func (o *Order) OrderComments() []Comment {
	return o.commentsOfKind(CommentKindOrder)
}

// AdminComments returns the admin-only comments
func (o *Order) AdminComments() []Comment {
	return o.commentsOfKind(CommentKindAdmin)
}

func (o *Order) commentsOfKind(kind CommentKind) []Comment {
	var out []Comment
	for _, c := range o.Comments {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Cancel moves the order to the default canceled status
func (o *Order) Cancel(catalog *StatusCatalog, authorID uuid.UUID, reason string) error {
	if o.State(catalog) == StateCanceled {
		return shared.NewDomainError("INVALID_STATE", "Order is already canceled")
	}
	status, ok := catalog.DefaultStatus(StateCanceled)
	if !ok {
		return shared.NewDomainError("INVALID_STATE", "No canceled status configured")
	}
	return o.UpdateStatus(catalog, status.ID, authorID, reason, false)
}

// MarkDeleted flags the order as deleted. Comments are retained.
func (o *Order) MarkDeleted() error {
	if o.IsDeleted() {
		return shared.NewDomainError("INVALID_STATE", "Order is already deleted")
	}
	now := time.Now()
	o.DeletedAt = &now
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderDeletedEvent(o))
	return nil
}

// IsOwnedBy returns true if userID owns the order
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return !o.IsAnonymous() && o.OwnerID == userID
}
