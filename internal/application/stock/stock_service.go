package stock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/application/event"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/stock"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SetStockRequest replaces the stock settings of a SKU
type SetStockRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Active    bool      `json:"active"`
	Stock     int       `json:"stock"`
	Threshold int       `json:"threshold" binding:"min=0"`
}

// LevelResponse represents a stock level in API responses
type LevelResponse struct {
	SKU       string    `json:"sku"`
	ProductID uuid.UUID `json:"product_id"`
	Active    bool      `json:"active"`
	Stock     int       `json:"stock"`
	Threshold int       `json:"threshold"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetStockResponse is returned after saving stock settings
type SetStockResponse struct {
	Level   LevelResponse `json:"level"`
	Message string        `json:"message"`
}

// ToLevelResponse converts a stock level to a response
func ToLevelResponse(l *stock.Level) LevelResponse {
	return LevelResponse{
		SKU:       l.SKU,
		ProductID: l.ProductID,
		Active:    l.Active,
		Stock:     l.Stock,
		Threshold: l.Threshold,
		UpdatedAt: l.UpdatedAt,
	}
}

// StockService manages per-SKU stock tracking
type StockService struct {
	repo           stock.Repository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewStockService creates a new StockService
func NewStockService(repo stock.Repository, logger *zap.Logger) *StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockService{repo: repo, logger: logger}
}

// SetEventPublisher sets the event publisher for threshold notifications
func (s *StockService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Get returns the stock level of a SKU
func (s *StockService) Get(ctx context.Context, sku string) (*LevelResponse, error) {
	l, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	resp := ToLevelResponse(l)
	return &resp, nil
}

// List returns every tracked stock level
func (s *StockService) List(ctx context.Context, filter shared.Filter) ([]LevelResponse, error) {
	levels, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]LevelResponse, len(levels))
	for i := range levels {
		out[i] = ToLevelResponse(&levels[i])
	}
	return out, nil
}

// Set stores the stock settings of a SKU, creating the level when it is new
func (s *StockService) Set(ctx context.Context, sku string, req SetStockRequest) (*SetStockResponse, error) {
	l, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		if l, err = stock.NewLevel(sku, req.ProductID); err != nil {
			return nil, err
		}
	}
	if req.ProductID != uuid.Nil {
		l.ProductID = req.ProductID
	}
	if err := l.Set(req.Active, req.Stock, req.Threshold); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, l); err != nil {
		return nil, err
	}

	s.logger.Info("stock settings saved",
		zap.String("sku", l.SKU),
		zap.Bool("active", l.Active),
		zap.Int("stock", l.Stock),
		zap.Int("threshold", l.Threshold))
	return &SetStockResponse{Level: ToLevelResponse(l), Message: stock.MessageSaved}, nil
}

// Decrement lowers the stock of a SKU by qty. Untracked SKUs are ignored.
// It returns the updated level, or nil when the SKU is not tracked.
func (s *StockService) Decrement(ctx context.Context, sku string, qty int, productTitle string) (_ *stock.Level, err error) {
	if sku == "" || qty <= 0 {
		return nil, nil
	}
	ctx, span := telemetry.StartSpan(ctx, "stock.decrement",
		telemetry.SpanSKU.String(sku), telemetry.SpanQuantity.Int(qty))
	defer func() { telemetry.EndSpan(span, err) }()

	l, err := s.repo.DecrementWithLock(ctx, sku, qty, productTitle)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(l.GetDomainEvents()) > 0 {
		telemetry.AddEvent(ctx, "threshold_reached")
		s.logger.Warn("stock threshold reached",
			zap.String("sku", l.SKU),
			zap.Int("stock", l.Stock),
			zap.Int("threshold", l.Threshold))
	}
	event.PublishPending(ctx, s.eventPublisher, s.logger, l)
	return l, nil
}
