package testutil

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shipping"
	"github.com/storefront/backend/internal/domain/stock"
	"github.com/storefront/backend/internal/domain/tax"
)

// StubRateRepository keeps tax rates in memory
type StubRateRepository struct {
	mu    sync.Mutex
	rates map[string]tax.Rate
}

// NewStubRateRepository creates a StubRateRepository holding the given rates
func NewStubRateRepository(rates ...*tax.Rate) *StubRateRepository {
	r := &StubRateRepository{rates: make(map[string]tax.Rate)}
	for _, rate := range rates {
		r.rates[rate.ID] = *rate
	}
	return r
}

func (r *StubRateRepository) list(enabledOnly bool) []tax.Rate {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]tax.Rate, 0, len(r.rates))
	for _, rate := range r.rates {
		if !enabledOnly || rate.Enabled {
			out = append(out, rate)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight < out[j].Weight
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *StubRateRepository) FindAll(ctx context.Context) ([]tax.Rate, error) {
	return r.list(false), nil
}

func (r *StubRateRepository) FindEnabled(ctx context.Context) ([]tax.Rate, error) {
	return r.list(true), nil
}

func (r *StubRateRepository) FindByID(ctx context.Context, id string) (*tax.Rate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rate, ok := r.rates[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &rate, nil
}

func (r *StubRateRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rates[id]
	return ok, nil
}

func (r *StubRateRepository) Save(ctx context.Context, rate *tax.Rate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rates[rate.ID] = *rate
	return nil
}

func (r *StubRateRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rates[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.rates, id)
	return nil
}

// StubQuoteMethodRepository keeps shipping quote methods in memory
type StubQuoteMethodRepository struct {
	mu      sync.Mutex
	methods map[string]shipping.QuoteMethod
}

// NewStubQuoteMethodRepository creates a StubQuoteMethodRepository holding the given methods
func NewStubQuoteMethodRepository(methods ...*shipping.QuoteMethod) *StubQuoteMethodRepository {
	r := &StubQuoteMethodRepository{methods: make(map[string]shipping.QuoteMethod)}
	for _, m := range methods {
		r.methods[m.ID] = *m
	}
	return r
}

func (r *StubQuoteMethodRepository) list(enabledOnly bool) []shipping.QuoteMethod {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shipping.QuoteMethod, 0, len(r.methods))
	for _, m := range r.methods {
		if !enabledOnly || m.Enabled {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight < out[j].Weight
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *StubQuoteMethodRepository) FindAll(ctx context.Context) ([]shipping.QuoteMethod, error) {
	return r.list(false), nil
}

func (r *StubQuoteMethodRepository) FindEnabled(ctx context.Context) ([]shipping.QuoteMethod, error) {
	return r.list(true), nil
}

func (r *StubQuoteMethodRepository) FindByID(ctx context.Context, id string) (*shipping.QuoteMethod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.methods[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &m, nil
}

func (r *StubQuoteMethodRepository) Save(ctx context.Context, m *shipping.QuoteMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[m.ID] = *m
	return nil
}

func (r *StubQuoteMethodRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.methods[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.methods, id)
	return nil
}

// StubMethodRepository keeps payment methods in memory
type StubMethodRepository struct {
	mu      sync.Mutex
	methods map[string]payment.Method
}

// NewStubMethodRepository creates a StubMethodRepository holding the given methods
func NewStubMethodRepository(methods ...*payment.Method) *StubMethodRepository {
	r := &StubMethodRepository{methods: make(map[string]payment.Method)}
	for _, m := range methods {
		r.methods[m.ID] = *m
	}
	return r
}

func (r *StubMethodRepository) list(enabledOnly bool) []payment.Method {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]payment.Method, 0, len(r.methods))
	for _, m := range r.methods {
		if !enabledOnly || m.Enabled {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight < out[j].Weight
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *StubMethodRepository) FindAll(ctx context.Context) ([]payment.Method, error) {
	return r.list(false), nil
}

func (r *StubMethodRepository) FindEnabled(ctx context.Context) ([]payment.Method, error) {
	return r.list(true), nil
}

func (r *StubMethodRepository) FindByID(ctx context.Context, id string) (*payment.Method, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.methods[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &m, nil
}

func (r *StubMethodRepository) Save(ctx context.Context, m *payment.Method) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[m.ID] = *m
	return nil
}

func (r *StubMethodRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.methods[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.methods, id)
	return nil
}

// StubReceiptRepository keeps payment receipts in memory, in insertion order
type StubReceiptRepository struct {
	mu       sync.Mutex
	receipts []payment.Receipt
}

// NewStubReceiptRepository creates an empty StubReceiptRepository
func NewStubReceiptRepository() *StubReceiptRepository {
	return &StubReceiptRepository{}
}

func (r *StubReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rc := range r.receipts {
		if rc.ID == id {
			return &rc, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *StubReceiptRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]payment.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []payment.Receipt{}
	for _, rc := range r.receipts {
		if rc.OrderID == orderID {
			out = append(out, rc)
		}
	}
	return out, nil
}

func (r *StubReceiptRepository) Save(ctx context.Context, rc *payment.Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.receipts {
		if r.receipts[i].ID == rc.ID {
			r.receipts[i] = *rc
			return nil
		}
	}
	r.receipts = append(r.receipts, *rc)
	return nil
}

func (r *StubReceiptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.receipts {
		if r.receipts[i].ID == id {
			r.receipts = append(r.receipts[:i], r.receipts[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r *StubReceiptRepository) DeleteByOrder(ctx context.Context, orderID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.receipts[:0]
	for _, rc := range r.receipts {
		if rc.OrderID != orderID {
			kept = append(kept, rc)
		}
	}
	r.receipts = kept
	return nil
}

// StubPackageRepository keeps packages in memory, in insertion order
type StubPackageRepository struct {
	mu       sync.Mutex
	packages []fulfillment.Package
}

// NewStubPackageRepository creates an empty StubPackageRepository
func NewStubPackageRepository() *StubPackageRepository {
	return &StubPackageRepository{}
}

func (r *StubPackageRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.packages {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *StubPackageRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []fulfillment.Package{}
	for _, p := range r.packages {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *StubPackageRepository) FindByShipment(ctx context.Context, shipmentID uuid.UUID) ([]fulfillment.Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []fulfillment.Package{}
	for _, p := range r.packages {
		if p.ShipmentID != nil && *p.ShipmentID == shipmentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *StubPackageRepository) Save(ctx context.Context, p *fulfillment.Package) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.packages {
		if r.packages[i].ID == p.ID {
			r.packages[i] = *p
			return nil
		}
	}
	r.packages = append(r.packages, *p)
	return nil
}

func (r *StubPackageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.packages {
		if r.packages[i].ID == id {
			r.packages = append(r.packages[:i], r.packages[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r *StubPackageRepository) DeleteByOrder(ctx context.Context, orderID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.packages[:0]
	for _, p := range r.packages {
		if p.OrderID != orderID {
			kept = append(kept, p)
		}
	}
	r.packages = kept
	return nil
}

// StubShipmentRepository keeps shipments in memory, in insertion order
type StubShipmentRepository struct {
	mu        sync.Mutex
	shipments []*fulfillment.Shipment
}

// NewStubShipmentRepository creates an empty StubShipmentRepository
func NewStubShipmentRepository() *StubShipmentRepository {
	return &StubShipmentRepository{}
}

func (r *StubShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shipments {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *StubShipmentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []fulfillment.Shipment{}
	for _, s := range r.shipments {
		if s.OrderID == orderID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *StubShipmentRepository) Save(ctx context.Context, s *fulfillment.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.shipments {
		if r.shipments[i].ID == s.ID {
			r.shipments[i] = s
			return nil
		}
	}
	r.shipments = append(r.shipments, s)
	return nil
}

func (r *StubShipmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.shipments {
		if r.shipments[i].ID == id {
			r.shipments = append(r.shipments[:i], r.shipments[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r *StubShipmentRepository) DeleteByOrder(ctx context.Context, orderID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.shipments[:0]
	for _, s := range r.shipments {
		if s.OrderID != orderID {
			kept = append(kept, s)
		}
	}
	r.shipments = kept
	return nil
}

// StubStockRepository keeps stock levels in memory
type StubStockRepository struct {
	mu     sync.Mutex
	levels map[string]stock.Level
}

// NewStubStockRepository creates a StubStockRepository holding the given levels
func NewStubStockRepository(levels ...*stock.Level) *StubStockRepository {
	r := &StubStockRepository{levels: make(map[string]stock.Level)}
	for _, l := range levels {
		r.levels[l.SKU] = *l
	}
	return r
}

func (r *StubStockRepository) FindBySKU(ctx context.Context, sku string) (*stock.Level, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.levels[sku]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &l, nil
}

func (r *StubStockRepository) FindAll(ctx context.Context, filter shared.Filter) ([]stock.Level, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stock.Level, 0, len(r.levels))
	for _, l := range r.levels {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (r *StubStockRepository) Save(ctx context.Context, l *stock.Level) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := *l
	saved.ClearDomainEvents()
	r.levels[l.SKU] = saved
	return nil
}

func (r *StubStockRepository) DecrementWithLock(ctx context.Context, sku string, qty int, productTitle string) (*stock.Level, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.levels[sku]
	if !ok {
		return nil, shared.ErrNotFound
	}
	l.ClearDomainEvents()
	if !l.Decrement(qty, productTitle) {
		return &l, nil
	}
	stored := l
	stored.ClearDomainEvents()
	r.levels[sku] = stored
	return &l, nil
}

// StubProductRepository keeps catalog products in memory
type StubProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]catalog.Product
}

// NewStubProductRepository creates a StubProductRepository holding the given products
func NewStubProductRepository(products ...*catalog.Product) *StubProductRepository {
	r := &StubProductRepository{products: make(map[uuid.UUID]catalog.Product)}
	for _, p := range products {
		stored := *p
		stored.ClearDomainEvents()
		r.products[p.ID] = stored
	}
	return r
}

func (r *StubProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r *StubProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SKU == sku {
			return &p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *StubProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.Product, 0, len(r.products))
	for _, p := range r.products {
		if active, ok := filter.Filters[catalog.FilterActive]; ok && active != p.Active {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *StubProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	products, err := r.FindAll(ctx, filter)
	return int64(len(products)), err
}

func (r *StubProductRepository) ExistsBySKU(ctx context.Context, sku string, exceptID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.products {
		if p.SKU == sku && id != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (r *StubProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *p
	stored.ClearDomainEvents()
	r.products[p.ID] = stored
	return nil
}

func (r *StubProductRepository) SaveWithLock(ctx context.Context, p *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.products[p.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if current.Version != p.Version {
		return shared.ErrConcurrencyConflict
	}
	p.Version++
	stored := *p
	stored.ClearDomainEvents()
	r.products[p.ID] = stored
	return nil
}

func (r *StubProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

var _ catalog.ProductRepository = (*StubProductRepository)(nil)

// NewCatalogProduct builds an active catalog product with cost at half the price
func NewCatalogProduct(t testing.TB, sku, title string, price int64, shippable bool) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(catalog.Details{
		SKU:       sku,
		Title:     title,
		Price:     decimal.NewFromInt(price),
		Cost:      decimal.NewFromInt(price).Div(decimal.NewFromInt(2)),
		Shippable: shippable,
	})
	if err != nil {
		t.Fatalf("catalog product %s: %v", sku, err)
	}
	p.ClearDomainEvents()
	return p
}
