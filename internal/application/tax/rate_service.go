package tax

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/tax"
	"go.uber.org/zap"
)

// RateRequest carries the editable fields of a tax rate
type RateRequest struct {
	Label          string          `json:"label" binding:"required,max=255"`
	Rate           decimal.Decimal `json:"rate"`
	Jurisdiction   string          `json:"jurisdiction" binding:"max=255"`
	ShippableOnly  bool            `json:"shippable"`
	ProductTypes   []string        `json:"product_types"`
	LineItemTypes  []string        `json:"line_item_types"`
	Weight         int             `json:"weight"`
	DisplayInclude bool            `json:"display_include"`
	InclusionText  string          `json:"inclusion_text" binding:"max=255"`
}

func (r RateRequest) settings() tax.RateSettings {
	return tax.RateSettings{
		Label:          r.Label,
		Rate:           r.Rate,
		Jurisdiction:   r.Jurisdiction,
		ShippableOnly:  r.ShippableOnly,
		ProductTypes:   r.ProductTypes,
		LineItemTypes:  r.LineItemTypes,
		Weight:         r.Weight,
		DisplayInclude: r.DisplayInclude,
		InclusionText:  r.InclusionText,
	}
}

// CreateRateRequest adds a tax rate
type CreateRateRequest struct {
	ID string `json:"id" binding:"required,max=64"`
	RateRequest
}

// RateResponse represents a tax rate in API responses
type RateResponse struct {
	ID             string          `json:"id"`
	Plugin         string          `json:"plugin"`
	Label          string          `json:"label"`
	Rate           decimal.Decimal `json:"rate"`
	RatePercent    string          `json:"rate_percent"`
	Jurisdiction   string          `json:"jurisdiction,omitempty"`
	ShippableOnly  bool            `json:"shippable"`
	Applies        string          `json:"applies_to"`
	ProductTypes   []string        `json:"product_types"`
	LineItemTypes  []string        `json:"line_item_types"`
	Weight         int             `json:"weight"`
	DisplayInclude bool            `json:"display_include"`
	InclusionText  string          `json:"inclusion_text,omitempty"`
	Enabled        bool            `json:"enabled"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// RatesResponse lists tax rates, with a message when none exist
type RatesResponse struct {
	Rates   []RateResponse `json:"rates"`
	Message string         `json:"message,omitempty"`
}

// RateMessageResponse pairs a rate with a confirmation message
type RateMessageResponse struct {
	Rate    RateResponse `json:"rate"`
	Message string       `json:"message"`
}

// CalculationResponse is the tax due on an order
type CalculationResponse struct {
	OrderID  uuid.UUID       `json:"order_id"`
	Lines    []tax.Line      `json:"lines"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

// ToRateResponse converts a tax rate to a response
func ToRateResponse(r *tax.Rate) RateResponse {
	return RateResponse{
		ID:             r.ID,
		Plugin:         r.Plugin,
		Label:          r.Label,
		Rate:           r.Rate,
		RatePercent:    r.RatePercent(),
		Jurisdiction:   r.Jurisdiction,
		ShippableOnly:  r.ShippableOnly,
		Applies:        r.ProductTypesSummary(),
		ProductTypes:   r.ProductTypes,
		LineItemTypes:  r.LineItemTypes,
		Weight:         r.Weight,
		DisplayInclude: r.DisplayInclude,
		InclusionText:  r.InclusionText,
		Enabled:        r.Enabled,
		UpdatedAt:      r.UpdatedAt,
	}
}

// RateService manages tax rates and calculates order taxes
type RateService struct {
	rateRepo  tax.RateRepository
	orderRepo order.OrderRepository
	logger    *zap.Logger
}

// NewRateService creates a new RateService
func NewRateService(rateRepo tax.RateRepository, orderRepo order.OrderRepository, logger *zap.Logger) *RateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateService{rateRepo: rateRepo, orderRepo: orderRepo, logger: logger}
}

// List returns every tax rate ordered by weight
func (s *RateService) List(ctx context.Context) (*RatesResponse, error) {
	rates, err := s.rateRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	resp := &RatesResponse{Rates: make([]RateResponse, len(rates))}
	for i := range rates {
		resp.Rates[i] = ToRateResponse(&rates[i])
	}
	if len(rates) == 0 {
		resp.Message = tax.MessageNoRates
	}
	return resp, nil
}

// Get returns one tax rate
func (s *RateService) Get(ctx context.Context, id string) (*RateResponse, error) {
	r, err := s.rateRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToRateResponse(r)
	return &resp, nil
}

// Create adds a tax rate
func (s *RateService) Create(ctx context.Context, req CreateRateRequest) (*RateResponse, error) {
	if err := s.ensureUnused(ctx, req.ID); err != nil {
		return nil, err
	}
	r, err := tax.NewRate(req.ID, req.settings())
	if err != nil {
		return nil, err
	}
	if err := s.rateRepo.Save(ctx, r); err != nil {
		return nil, err
	}
	s.logger.Info("tax rate created", zap.String("rate_id", r.ID), zap.String("rate", r.RatePercent()))
	resp := ToRateResponse(r)
	return &resp, nil
}

// Update edits a tax rate
func (s *RateService) Update(ctx context.Context, id string, req RateRequest) (*RateResponse, error) {
	r, err := s.rateRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.Update(req.settings()); err != nil {
		return nil, err
	}
	if err := s.rateRepo.Save(ctx, r); err != nil {
		return nil, err
	}
	resp := ToRateResponse(r)
	return &resp, nil
}

// Clone copies a tax rate under "<id>_clone"
func (s *RateService) Clone(ctx context.Context, id string) (*RateMessageResponse, error) {
	r, err := s.rateRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	clone, msg := r.Clone()
	if err := s.ensureUnused(ctx, clone.ID); err != nil {
		return nil, err
	}
	if err := s.rateRepo.Save(ctx, clone); err != nil {
		return nil, err
	}
	return &RateMessageResponse{Rate: ToRateResponse(clone), Message: msg}, nil
}

// Enable enables a tax rate
func (s *RateService) Enable(ctx context.Context, id string) (*RateMessageResponse, error) {
	return s.toggle(ctx, id, true)
}

// Disable disables a tax rate
func (s *RateService) Disable(ctx context.Context, id string) (*RateMessageResponse, error) {
	return s.toggle(ctx, id, false)
}

func (s *RateService) toggle(ctx context.Context, id string, enabled bool) (*RateMessageResponse, error) {
	r, err := s.rateRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var msg string
	if enabled {
		msg = r.Enable()
	} else {
		msg = r.Disable()
	}
	if err := s.rateRepo.Save(ctx, r); err != nil {
		return nil, err
	}
	return &RateMessageResponse{Rate: ToRateResponse(r), Message: msg}, nil
}

// Delete removes a tax rate and returns the confirmation message
func (s *RateService) Delete(ctx context.Context, id string) (string, error) {
	r, err := s.rateRepo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.rateRepo.Delete(ctx, id); err != nil {
		return "", err
	}
	s.logger.Info("tax rate deleted", zap.String("rate_id", id))
	return r.DeletedMessage(), nil
}

// Calculate returns the taxes due on an order under the enabled rates.
// The order itself is not modified.
func (s *RateService) Calculate(ctx context.Context, orderID uuid.UUID) (*CalculationResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	rates, err := s.rateRepo.FindEnabled(ctx)
	if err != nil {
		return nil, err
	}
	lines := tax.Calculate(o, rates)
	if lines == nil {
		lines = []tax.Line{}
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return &CalculationResponse{OrderID: o.ID, Lines: lines, Total: total, Currency: o.Currency.String()}, nil
}

func (s *RateService) ensureUnused(ctx context.Context, id string) error {
	exists, err := s.rateRepo.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if exists {
		return shared.Errorf("ALREADY_EXISTS", "A tax rate with machine name %s already exists.", id)
	}
	return nil
}
