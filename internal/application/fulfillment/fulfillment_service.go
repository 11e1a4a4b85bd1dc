package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/application/event"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// FulfillmentService packages order products and ships packages
type FulfillmentService struct {
	orderRepo      order.OrderRepository
	packageRepo    fulfillment.PackageRepository
	shipmentRepo   fulfillment.ShipmentRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewFulfillmentService creates a new FulfillmentService
func NewFulfillmentService(orderRepo order.OrderRepository, packageRepo fulfillment.PackageRepository, shipmentRepo fulfillment.ShipmentRepository, logger *zap.Logger) *FulfillmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FulfillmentService{
		orderRepo:    orderRepo,
		packageRepo:  packageRepo,
		shipmentRepo: shipmentRepo,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *FulfillmentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Unpackaged returns the shippable quantities of an order not yet in a package
func (s *FulfillmentService) Unpackaged(ctx context.Context, orderID uuid.UUID) ([]ShippableProductResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	packages, err := s.packageRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	remaining := fulfillment.UnpackagedQuantities(shippableProducts(o), packages)
	out := make([]ShippableProductResponse, len(remaining))
	for i, p := range remaining {
		out[i] = ShippableProductResponse{OrderProductID: p.OrderProductID, SKU: p.SKU, Title: p.Title, Qty: p.Qty}
	}
	return out, nil
}

// Packages lists the packages of an order
func (s *FulfillmentService) Packages(ctx context.Context, orderID uuid.UUID) (*PackagesResponse, error) {
	if _, err := s.orderRepo.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	packages, err := s.packageRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := &PackagesResponse{Packages: make([]PackageResponse, len(packages))}
	for i := range packages {
		resp.Packages[i] = ToPackageResponse(&packages[i])
	}
	if len(packages) == 0 {
		resp.Message = fulfillment.MessageNoPackages
	}
	return resp, nil
}

// CreatePackages packages the selected products into one package, or one
// package per product line when SeparatePackages is set
func (s *FulfillmentService) CreatePackages(ctx context.Context, orderID uuid.UUID, req CreatePackagesRequest) ([]PackageResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	existing, err := s.packageRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	available := fulfillment.UnpackagedQuantities(shippableProducts(o), existing)
	lines, err := toPackageLines(o, req.Products)
	if err != nil {
		return nil, err
	}
	if err := fulfillment.ValidatePackaging(available, lines); err != nil {
		return nil, err
	}

	groups := [][]fulfillment.PackageLine{lines}
	if req.SeparatePackages {
		groups = make([][]fulfillment.PackageLine, len(lines))
		for i, l := range lines {
			groups[i] = []fulfillment.PackageLine{l}
		}
	}
	out := make([]PackageResponse, 0, len(groups))
	for _, g := range groups {
		p, err := fulfillment.NewPackage(orderID, req.ShippingType, g)
		if err != nil {
			return nil, err
		}
		if err := s.packageRepo.Save(ctx, p); err != nil {
			return nil, err
		}
		out = append(out, ToPackageResponse(p))
	}
	s.logger.Info("packages created", zap.String("order_id", orderID.String()), zap.Int("count", len(out)))
	return out, nil
}

// UpdatePackage edits an unshipped package
func (s *FulfillmentService) UpdatePackage(ctx context.Context, orderID, packageID uuid.UUID, req UpdatePackageRequest) (*PackageResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	p, err := s.findPackage(ctx, orderID, packageID)
	if err != nil {
		return nil, err
	}
	existing, err := s.packageRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	others := make([]fulfillment.Package, 0, len(existing))
	for _, e := range existing {
		if e.ID != packageID {
			others = append(others, e)
		}
	}
	lines, err := toPackageLines(o, req.Products)
	if err != nil {
		return nil, err
	}
	if err := fulfillment.ValidatePackaging(fulfillment.UnpackagedQuantities(shippableProducts(o), others), lines); err != nil {
		return nil, err
	}
	if err := p.Update(req.ShippingType, lines, req.Weight, req.Dimensions, req.Value, req.TrackingNumber); err != nil {
		return nil, err
	}
	if err := s.packageRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	resp := ToPackageResponse(p)
	return &resp, nil
}

// DeletePackage removes an unshipped package
func (s *FulfillmentService) DeletePackage(ctx context.Context, orderID, packageID uuid.UUID) error {
	p, err := s.findPackage(ctx, orderID, packageID)
	if err != nil {
		return err
	}
	if p.IsShipped() {
		return shared.NewDomainError("INVALID_STATE", "Shipped packages cannot be deleted")
	}
	return s.packageRepo.Delete(ctx, packageID)
}

// Shipments lists the shipments of an order
func (s *FulfillmentService) Shipments(ctx context.Context, orderID uuid.UUID) (*ShipmentsResponse, error) {
	if _, err := s.orderRepo.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	shipments, err := s.shipmentRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := &ShipmentsResponse{Shipments: make([]ShipmentResponse, len(shipments))}
	for i := range shipments {
		resp.Shipments[i] = ToShipmentResponse(&shipments[i])
	}
	if len(shipments) == 0 {
		resp.Message = fulfillment.MessageNoShipments
	}
	return resp, nil
}

// CreateShipment ships unshipped packages of an order. The destination
// defaults to the order's delivery address.
func (s *FulfillmentService) CreateShipment(ctx context.Context, orderID uuid.UUID, req ShipmentRequest) (*ShipmentResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	packages := make([]*fulfillment.Package, 0, len(req.PackageIDs))
	for _, id := range req.PackageIDs {
		p, err := s.findPackage(ctx, orderID, id)
		if err != nil {
			return nil, err
		}
		packages = append(packages, p)
	}

	shipment, err := fulfillment.NewShipment(orderID, packages, s.details(o, req))
	if err != nil {
		return nil, err
	}
	if err := s.shipmentRepo.Save(ctx, shipment); err != nil {
		return nil, err
	}
	for _, p := range packages {
		if err := s.packageRepo.Save(ctx, p); err != nil {
			return nil, err
		}
	}
	event.PublishPending(ctx, s.eventPublisher, s.logger, shipment)

	s.logger.Info("shipment created",
		zap.String("order_id", orderID.String()),
		zap.String("shipment_id", shipment.ID.String()),
		zap.Int("packages", len(packages)))
	resp := ToShipmentResponse(shipment)
	return &resp, nil
}

// UpdateShipment edits the details of a shipment
func (s *FulfillmentService) UpdateShipment(ctx context.Context, orderID, shipmentID uuid.UUID, req ShipmentRequest) (*ShipmentResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	shipment, err := s.findShipment(ctx, orderID, shipmentID)
	if err != nil {
		return nil, err
	}
	d := s.details(o, req)
	if req.Destination == nil || req.Destination.IsEmpty() {
		d.Destination = shipment.Destination
	}
	if req.Origin.IsEmpty() {
		d.Origin = shipment.Origin
	}
	shipment.Update(d)
	if err := s.shipmentRepo.Save(ctx, shipment); err != nil {
		return nil, err
	}
	event.PublishPending(ctx, s.eventPublisher, s.logger, shipment)
	resp := ToShipmentResponse(shipment)
	return &resp, nil
}

// DeleteShipment removes a shipment and frees its packages for reshipping
func (s *FulfillmentService) DeleteShipment(ctx context.Context, orderID, shipmentID uuid.UUID) error {
	shipment, err := s.findShipment(ctx, orderID, shipmentID)
	if err != nil {
		return err
	}
	packages, err := s.packageRepo.FindByShipment(ctx, shipmentID)
	if err != nil {
		return err
	}
	ptrs := make([]*fulfillment.Package, len(packages))
	for i := range packages {
		ptrs[i] = &packages[i]
	}
	fulfillment.ReleasePackages(ptrs)
	for _, p := range ptrs {
		if err := s.packageRepo.Save(ctx, p); err != nil {
			return err
		}
	}
	if err := s.shipmentRepo.Delete(ctx, shipment.ID); err != nil {
		return err
	}
	s.logger.Info("shipment deleted",
		zap.String("order_id", orderID.String()),
		zap.String("shipment_id", shipmentID.String()))
	return nil
}

// TrackingNumbers returns the tracking numbers of an order's shipments
func (s *FulfillmentService) TrackingNumbers(ctx context.Context, orderID uuid.UUID) ([]string, error) {
	shipments, err := s.shipmentRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	packages, err := s.packageRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return fulfillment.TrackingNumbers(shipments, packages), nil
}

// DeleteForOrder removes every shipment and package of an order
func (s *FulfillmentService) DeleteForOrder(ctx context.Context, orderID uuid.UUID) error {
	if err := s.shipmentRepo.DeleteByOrder(ctx, orderID); err != nil {
		return err
	}
	return s.packageRepo.DeleteByOrder(ctx, orderID)
}

func (s *FulfillmentService) details(o *order.Order, req ShipmentRequest) fulfillment.ShipmentDetails {
	d := fulfillment.ShipmentDetails{
		Method:           req.Method,
		Carrier:          req.Carrier,
		AccessorialNote:  req.AccessorialNote,
		TransactionID:    req.TransactionID,
		TrackingNumber:   req.TrackingNumber,
		ExpectedDelivery: req.ExpectedDelivery,
		Cost:             req.Cost,
		Currency:         o.Currency.String(),
		Origin:           req.Origin,
		Destination:      o.DeliveryAddress,
	}
	if req.ShipDate != nil {
		d.ShipDate = *req.ShipDate
	}
	if req.Destination != nil && !req.Destination.IsEmpty() {
		d.Destination = *req.Destination
	}
	return d
}

func (s *FulfillmentService) findPackage(ctx context.Context, orderID, packageID uuid.UUID) (*fulfillment.Package, error) {
	p, err := s.packageRepo.FindByID(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if p.OrderID != orderID {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (s *FulfillmentService) findShipment(ctx context.Context, orderID, shipmentID uuid.UUID) (*fulfillment.Shipment, error) {
	shipment, err := s.shipmentRepo.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.OrderID != orderID {
		return nil, shared.ErrNotFound
	}
	return shipment, nil
}

func shippableProducts(o *order.Order) []fulfillment.ShippableProduct {
	var out []fulfillment.ShippableProduct
	for _, p := range o.Products {
		if p.Shippable {
			out = append(out, fulfillment.ShippableProduct{OrderProductID: p.ID, SKU: p.SKU, Title: p.Title, Qty: p.Qty})
		}
	}
	return out
}

func toPackageLines(o *order.Order, items []PackageLineRequest) ([]fulfillment.PackageLine, error) {
	lines := make([]fulfillment.PackageLine, 0, len(items))
	for _, item := range items {
		p := o.GetProduct(item.OrderProductID)
		if p == nil || !p.Shippable {
			return nil, shared.NewDomainError("INVALID_INPUT", "Product is not a shippable product of this order")
		}
		lines = append(lines, fulfillment.PackageLine{OrderProductID: p.ID, SKU: p.SKU, Qty: item.Qty})
	}
	return lines, nil
}
