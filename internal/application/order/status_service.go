package order

import (
	"context"
	"errors"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// StatusService manages order status configuration
type StatusService struct {
	statusRepo order.StatusRepository
	orderRepo  order.OrderRepository
}

// NewStatusService creates a new StatusService
func NewStatusService(statusRepo order.StatusRepository, orderRepo order.OrderRepository) *StatusService {
	return &StatusService{statusRepo: statusRepo, orderRepo: orderRepo}
}

// Config lists every state with its default status and every status
func (s *StatusService) Config(ctx context.Context) (*StatusConfigResponse, error) {
	catalog, err := order.LoadCatalog(ctx, s.statusRepo)
	if err != nil {
		return nil, err
	}
	response := StatusConfigResponse{}
	for _, state := range order.AllStates() {
		def, _ := catalog.DefaultStatus(state)
		response.States = append(response.States, StateResponse{
			ID:            string(state),
			Label:         state.Label(),
			DefaultStatus: def.ID,
		})
	}
	for _, st := range catalog.List() {
		response.Statuses = append(response.Statuses, ToStatusResponse(st, catalog))
	}
	return &response, nil
}

// Get returns one status
func (s *StatusService) Get(ctx context.Context, id string) (*StatusResponse, error) {
	catalog, err := order.LoadCatalog(ctx, s.statusRepo)
	if err != nil {
		return nil, err
	}
	st, ok := catalog.Get(id)
	if !ok {
		return nil, shared.ErrNotFound
	}
	response := ToStatusResponse(st, catalog)
	return &response, nil
}

// Create adds a custom status
func (s *StatusService) Create(ctx context.Context, req CreateStatusRequest) (*StatusResponse, error) {
	st, err := order.NewStatus(req.ID, req.Name, order.State(req.State), req.Weight)
	if err != nil {
		return nil, err
	}
	if _, err := s.statusRepo.FindByID(ctx, st.ID); err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "An order status with that ID already exists.")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if err := s.statusRepo.Save(ctx, st); err != nil {
		return nil, err
	}
	return s.Get(ctx, st.ID)
}

// Update renames or reweights a status. The state of a status never changes.
func (s *StatusService) Update(ctx context.Context, id string, req UpdateStatusConfigRequest) (*StatusResponse, error) {
	st, err := s.statusRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if err := st.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Weight != nil {
		st.Weight = *req.Weight
	}
	if err := s.statusRepo.Save(ctx, st); err != nil {
		return nil, err
	}
	return s.Get(ctx, st.ID)
}

// Delete removes a custom status that no order uses
func (s *StatusService) Delete(ctx context.Context, id string) error {
	st, err := s.statusRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if st.Locked {
		return shared.NewDomainError("INVALID_STATE", "Core order statuses cannot be deleted.")
	}
	inUse, err := s.orderRepo.CountByStatus(ctx, id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return shared.NewDomainError("INVALID_STATE", "This status is in use and cannot be deleted.")
	}
	return s.statusRepo.Delete(ctx, id)
}

// SetStateDefault makes statusID the default status of the state
func (s *StatusService) SetStateDefault(ctx context.Context, state string, req SetStateDefaultRequest) (*StatusConfigResponse, error) {
	st := order.State(state)
	if !st.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown order state: "+state)
	}
	status, err := s.statusRepo.FindByID(ctx, req.StatusID)
	if err != nil {
		return nil, err
	}
	if status.State != st {
		return nil, shared.NewDomainError("INVALID_INPUT", "The default status must belong to the "+st.Label()+" state.")
	}
	if err := s.statusRepo.SetStateDefault(ctx, st, status.ID); err != nil {
		return nil, err
	}
	return s.Config(ctx)
}
