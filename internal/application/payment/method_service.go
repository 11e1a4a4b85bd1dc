package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
)

// MethodService manages payment method configuration
type MethodService struct {
	methodRepo payment.MethodRepository
}

// NewMethodService creates a new MethodService
func NewMethodService(methodRepo payment.MethodRepository) *MethodService {
	return &MethodService{methodRepo: methodRepo}
}

// List returns every payment method ordered by weight
func (s *MethodService) List(ctx context.Context) ([]MethodResponse, error) {
	methods, err := s.methodRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MethodResponse, len(methods))
	for i := range methods {
		out[i] = ToMethodResponse(&methods[i])
	}
	return out, nil
}

// Get returns a payment method
func (s *MethodService) Get(ctx context.Context, id string) (*MethodResponse, error) {
	m, err := s.methodRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToMethodResponse(m)
	return &resp, nil
}

// Create adds a payment method with the plugin's settings
func (s *MethodService) Create(ctx context.Context, req CreateMethodRequest) (*MethodResponse, error) {
	if _, err := s.methodRepo.FindByID(ctx, req.ID); err == nil {
		return nil, shared.Errorf("ALREADY_EXISTS", "A payment method with machine name %s already exists.", req.ID)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	m, err := payment.NewMethod(req.ID, payment.Plugin(req.Plugin), req.Label)
	if err != nil {
		return nil, err
	}
	m.Weight = req.Weight
	if len(req.Settings) > 0 {
		if err := m.SetSettings(req.Settings); err != nil {
			return nil, err
		}
	}
	if err := s.methodRepo.Save(ctx, m); err != nil {
		return nil, err
	}
	resp := ToMethodResponse(m)
	return &resp, nil
}

// Update changes the label, weight and settings of a payment method.
// A masked PayPal secret keeps the stored one.
func (s *MethodService) Update(ctx context.Context, id string, req UpdateMethodRequest) (*MethodResponse, error) {
	m, err := s.methodRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	label, weight := m.Label, m.Weight
	if req.Label != nil {
		label = *req.Label
	}
	if req.Weight != nil {
		weight = *req.Weight
	}
	if err := m.Update(label, weight); err != nil {
		return nil, err
	}
	if len(req.Settings) > 0 {
		settings := req.Settings
		if m.Plugin == payment.PluginPayPalCheckout {
			if settings, err = keepPayPalSecret(m, settings); err != nil {
				return nil, err
			}
		}
		if err := m.SetSettings(settings); err != nil {
			return nil, err
		}
	}
	if err := s.methodRepo.Save(ctx, m); err != nil {
		return nil, err
	}
	resp := ToMethodResponse(m)
	return &resp, nil
}

// Enable enables a payment method
func (s *MethodService) Enable(ctx context.Context, id string) (*MethodResponse, error) {
	return s.toggle(ctx, id, true)
}

// Disable disables a payment method
func (s *MethodService) Disable(ctx context.Context, id string) (*MethodResponse, error) {
	return s.toggle(ctx, id, false)
}

func (s *MethodService) toggle(ctx context.Context, id string, enabled bool) (*MethodResponse, error) {
	m, err := s.methodRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if enabled {
		m.Enable()
	} else {
		m.Disable()
	}
	if err := s.methodRepo.Save(ctx, m); err != nil {
		return nil, err
	}
	resp := ToMethodResponse(m)
	return &resp, nil
}

// Delete removes a payment method and returns the confirmation message
func (s *MethodService) Delete(ctx context.Context, id string) (string, error) {
	m, err := s.methodRepo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.methodRepo.Delete(ctx, id); err != nil {
		return "", err
	}
	return fmt.Sprintf("Payment method %s has been deleted.", m.Label), nil
}

func keepPayPalSecret(m *payment.Method, raw []byte) ([]byte, error) {
	incoming := m.PayPalSettings()
	incoming.Secret = ""
	if err := json.Unmarshal(raw, &incoming); err != nil {
		return nil, shared.NewDomainError("INVALID_SETTINGS", "Settings must be a JSON object")
	}
	if incoming.Secret == "" || incoming.Secret == "********" {
		incoming.Secret = m.PayPalSettings().Secret
	}
	return json.Marshal(incoming)
}
