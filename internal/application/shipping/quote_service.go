package shipping

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shipping"
	"go.uber.org/zap"
)

// CreateQuoteMethodRequest adds a flat rate method
type CreateQuoteMethodRequest struct {
	ID          string          `json:"id" binding:"required,max=32"`
	Label       string          `json:"label" binding:"required,max=255"`
	Weight      int             `json:"weight"`
	BaseRate    decimal.Decimal `json:"base_rate"`
	ProductRate decimal.Decimal `json:"product_rate"`
}

// UpdateQuoteMethodRequest edits a flat rate method
type UpdateQuoteMethodRequest struct {
	Label       string          `json:"label" binding:"required,max=255"`
	Weight      int             `json:"weight"`
	BaseRate    decimal.Decimal `json:"base_rate"`
	ProductRate decimal.Decimal `json:"product_rate"`
}

// QuoteMethodResponse represents a quote method in API responses
type QuoteMethodResponse struct {
	ID          string          `json:"id"`
	Plugin      string          `json:"plugin"`
	Label       string          `json:"label"`
	Weight      int             `json:"weight"`
	Enabled     bool            `json:"enabled"`
	BaseRate    decimal.Decimal `json:"base_rate"`
	ProductRate decimal.Decimal `json:"product_rate"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// QuoteResponse is the price of shipping an order with one method
type QuoteResponse struct {
	MethodID string          `json:"method_id"`
	Label    string          `json:"label"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// ToQuoteMethodResponse converts a quote method to a response
func ToQuoteMethodResponse(m *shipping.QuoteMethod) QuoteMethodResponse {
	return QuoteMethodResponse{
		ID:          m.ID,
		Plugin:      m.Plugin,
		Label:       m.Label,
		Weight:      m.Weight,
		Enabled:     m.Enabled,
		BaseRate:    m.BaseRate,
		ProductRate: m.ProductRate,
		UpdatedAt:   m.UpdatedAt,
	}
}

// QuoteService manages shipping quote methods and quotes orders
type QuoteService struct {
	quoteRepo shipping.QuoteMethodRepository
	orderRepo order.OrderRepository
	logger    *zap.Logger
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(quoteRepo shipping.QuoteMethodRepository, orderRepo order.OrderRepository, logger *zap.Logger) *QuoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteService{quoteRepo: quoteRepo, orderRepo: orderRepo, logger: logger}
}

// List returns every quote method ordered by weight
func (s *QuoteService) List(ctx context.Context) ([]QuoteMethodResponse, error) {
	methods, err := s.quoteRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]QuoteMethodResponse, len(methods))
	for i := range methods {
		out[i] = ToQuoteMethodResponse(&methods[i])
	}
	return out, nil
}

// Get returns one quote method
func (s *QuoteService) Get(ctx context.Context, id string) (*QuoteMethodResponse, error) {
	m, err := s.quoteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToQuoteMethodResponse(m)
	return &resp, nil
}

// Create adds a flat rate method
func (s *QuoteService) Create(ctx context.Context, req CreateQuoteMethodRequest) (*QuoteMethodResponse, error) {
	if _, err := s.quoteRepo.FindByID(ctx, req.ID); err == nil {
		return nil, shared.Errorf("ALREADY_EXISTS", "A shipping method with machine name %s already exists.", req.ID)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	m, err := shipping.NewFlatrateMethod(req.ID, req.Label, req.BaseRate, req.ProductRate)
	if err != nil {
		return nil, err
	}
	m.Weight = req.Weight
	if err := s.quoteRepo.Save(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info("shipping quote method created", zap.String("method_id", m.ID))
	resp := ToQuoteMethodResponse(m)
	return &resp, nil
}

// Update edits a flat rate method
func (s *QuoteService) Update(ctx context.Context, id string, req UpdateQuoteMethodRequest) (*QuoteMethodResponse, error) {
	m, err := s.quoteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.Update(req.Label, req.Weight, req.BaseRate, req.ProductRate); err != nil {
		return nil, err
	}
	if err := s.quoteRepo.Save(ctx, m); err != nil {
		return nil, err
	}
	resp := ToQuoteMethodResponse(m)
	return &resp, nil
}

// Enable enables a quote method
func (s *QuoteService) Enable(ctx context.Context, id string) (*QuoteMethodResponse, error) {
	return s.toggle(ctx, id, true)
}

// Disable disables a quote method
func (s *QuoteService) Disable(ctx context.Context, id string) (*QuoteMethodResponse, error) {
	return s.toggle(ctx, id, false)
}

func (s *QuoteService) toggle(ctx context.Context, id string, enabled bool) (*QuoteMethodResponse, error) {
	m, err := s.quoteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if enabled {
		m.Enable()
	} else {
		m.Disable()
	}
	if err := s.quoteRepo.Save(ctx, m); err != nil {
		return nil, err
	}
	resp := ToQuoteMethodResponse(m)
	return &resp, nil
}

// Delete removes a quote method and returns the confirmation message
func (s *QuoteService) Delete(ctx context.Context, id string) (string, error) {
	if _, err := s.quoteRepo.FindByID(ctx, id); err != nil {
		return "", err
	}
	if err := s.quoteRepo.Delete(ctx, id); err != nil {
		return "", err
	}
	s.logger.Info("shipping quote method deleted", zap.String("method_id", id))
	return shipping.MessageFlatrateDeleted, nil
}

// Quote prices the order with every enabled method, rounded to the order currency
func (s *QuoteService) Quote(ctx context.Context, orderID uuid.UUID) ([]QuoteResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	methods, err := s.quoteRepo.FindEnabled(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]QuoteResponse, 0, len(methods))
	for i := range methods {
		m := &methods[i]
		out = append(out, QuoteResponse{
			MethodID: m.ID,
			Label:    m.Label,
			Amount:   m.Quote(o).Round(o.Currency.Scale()),
			Currency: o.Currency.String(),
		})
	}
	return out, nil
}
