package fulfillment

import (
	"context"

	"github.com/google/uuid"
)

// PackageRepository defines the interface for package persistence
type PackageRepository interface {
	// FindByID finds a package
	FindByID(ctx context.Context, id uuid.UUID) (*Package, error)

	// FindByOrder returns the packages of an order, oldest first
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Package, error)

	// FindByShipment returns the packages of a shipment
	FindByShipment(ctx context.Context, shipmentID uuid.UUID) ([]Package, error)

	// Save creates or updates a package
	Save(ctx context.Context, p *Package) error

	// Delete removes a package
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByOrder removes every package of an order
	DeleteByOrder(ctx context.Context, orderID uuid.UUID) error
}

// ShipmentRepository defines the interface for shipment persistence
type ShipmentRepository interface {
	// FindByID finds a shipment
	FindByID(ctx context.Context, id uuid.UUID) (*Shipment, error)

	// FindByOrder returns the shipments of an order, oldest first
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Shipment, error)

	// Save creates or updates a shipment
	Save(ctx context.Context, s *Shipment) error

	// Delete removes a shipment
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByOrder removes every shipment of an order
	DeleteByOrder(ctx context.Context, orderID uuid.UUID) error
}
