package fulfillment

import (
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeShipment = "Shipment"

// Event type constants
const (
	EventTypeShipmentSaved = "ShipmentSaved"
)

// ShipmentSavedEvent is raised when a shipment is created or edited
type ShipmentSavedEvent struct {
	shared.BaseDomainEvent
	ShipmentID     uuid.UUID   `json:"shipment_id"`
	OrderID        uuid.UUID   `json:"order_id"`
	Method         string      `json:"method"`
	Carrier        string      `json:"carrier"`
	TrackingNumber string      `json:"tracking_number"`
	PackageIDs     []uuid.UUID `json:"package_ids"`
}

// NewShipmentSavedEvent creates a new ShipmentSavedEvent
func NewShipmentSavedEvent(s *Shipment) *ShipmentSavedEvent {
	return &ShipmentSavedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShipmentSaved, AggregateTypeShipment, s.ID),
		ShipmentID:      s.ID,
		OrderID:         s.OrderID,
		Method:          s.Method,
		Carrier:         s.Carrier,
		TrackingNumber:  s.TrackingNumber,
		PackageIDs:      s.PackageIDs,
	}
}

// EventType returns the event type name
func (e *ShipmentSavedEvent) EventType() string {
	return EventTypeShipmentSaved
}
