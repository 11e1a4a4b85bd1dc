package stock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// MessageSaved is returned after stock settings are stored
const MessageSaved = "Stock settings saved."

// ThresholdSubject is the subject of threshold notifications
const ThresholdSubject = "Stock threshold limit reached"

// Level is the tracked stock of one SKU
type Level struct {
	SKU       string
	ProductID uuid.UUID
	Active    bool
	Stock     int
	Threshold int
	UpdatedAt time.Time

	events []shared.DomainEvent
}

// NewLevel creates an inactive level with zero stock and threshold
func NewLevel(sku string, productID uuid.UUID) (*Level, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	return &Level{SKU: sku, ProductID: productID, UpdatedAt: time.Now()}, nil
}

// Set replaces the stock settings
func (l *Level) Set(active bool, stock, threshold int) error {
	if threshold < 0 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Threshold cannot be negative")
	}
	l.Active = active
	l.Stock = stock
	l.Threshold = threshold
	l.UpdatedAt = time.Now()
	return nil
}

// Decrement lowers the stock by qty when tracking is active. It raises
// StockThresholdReached when the new level is at or below the threshold.
// Returns false when tracking is inactive.
func (l *Level) Decrement(qty int, productTitle string) bool {
	if !l.Active || qty <= 0 {
		return false
	}
	l.Stock -= qty
	l.UpdatedAt = time.Now()
	if l.Stock <= l.Threshold {
		l.events = append(l.events, NewStockThresholdReachedEvent(l, productTitle))
	}
	return true
}

// GetDomainEvents returns pending events
func (l *Level) GetDomainEvents() []shared.DomainEvent {
	return l.events
}

// ClearDomainEvents clears pending events
func (l *Level) ClearDomainEvents() {
	l.events = nil
}

// ThresholdMessage renders the body of a threshold notification
func ThresholdMessage(productTitle, sku string, stock int) string {
	return fmt.Sprintf("This message has been sent to let you know that the stock level for \"%s\" with SKU %s has reached %d. There may not be enough units in stock to fulfill any more orders.", productTitle, sku, stock)
}

// Aggregate type constant
const AggregateTypeStock = "Stock"

// EventTypeStockThresholdReached is raised when a level drops to its threshold
const EventTypeStockThresholdReached = "StockThresholdReached"

// StockThresholdReachedEvent notifies that a SKU reached its threshold
type StockThresholdReachedEvent struct {
	shared.BaseDomainEvent
	SKU          string    `json:"sku"`
	ProductID    uuid.UUID `json:"product_id"`
	ProductTitle string    `json:"product_title"`
	Stock        int       `json:"stock"`
	Threshold    int       `json:"threshold"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
}

// NewStockThresholdReachedEvent creates a new StockThresholdReachedEvent
func NewStockThresholdReachedEvent(l *Level, productTitle string) *StockThresholdReachedEvent {
	return &StockThresholdReachedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockThresholdReached, AggregateTypeStock, l.ProductID),
		SKU:             l.SKU,
		ProductID:       l.ProductID,
		ProductTitle:    productTitle,
		Stock:           l.Stock,
		Threshold:       l.Threshold,
		Subject:         ThresholdSubject,
		Body:            ThresholdMessage(productTitle, l.SKU, l.Stock),
	}
}

// EventType returns the event type name
func (e *StockThresholdReachedEvent) EventType() string {
	return EventTypeStockThresholdReached
}

// Repository defines the interface for stock persistence
type Repository interface {
	// FindBySKU finds the level of a SKU
	FindBySKU(ctx context.Context, sku string) (*Level, error)

	// FindAll returns every stock level with pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Level, error)

	// Save creates or updates a stock level
	Save(ctx context.Context, l *Level) error

	// DecrementWithLock atomically decrements an active level and returns it
	DecrementWithLock(ctx context.Context, sku string, qty int, productTitle string) (*Level, error)
}
