package ports

import (
	"context"

	"leopards-connector/internal/features/shipments/domain"

	"github.com/google/uuid"
)

// ShipmentView is a shipment with its public tracking link.
type ShipmentView struct {
	domain.Shipment
	TrackingURL string `json:"tracking_url,omitempty"`
}

// OrderShipments lists every shipment of an order with its CNs joined.
type OrderShipments struct {
	Reference    string         `json:"reference"`
	TrackingRefs string         `json:"tracking_refs"`
	Shipments    []ShipmentView `json:"shipments"`
}

// ShipmentService is the primary port used by the HTTP handlers and the CLI.
type ShipmentService interface {
	Quote(ctx context.Context, req domain.QuoteRequest) domain.Quote
	Book(ctx context.Context, req domain.BookingRequest) (*ShipmentView, error)
	Get(ctx context.Context, id uuid.UUID) (*ShipmentView, error)
	ByReference(ctx context.Context, reference string) (*OrderShipments, error)
	Events(ctx context.Context, id uuid.UUID) ([]domain.Event, error)
	Label(ctx context.Context, id uuid.UUID) (*domain.Label, string, error)
	Refresh(ctx context.Context, id uuid.UUID) (domain.Resolution, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	RequestCancel(ctx context.Context, id uuid.UUID) error
	ClearLocally(ctx context.Context, id uuid.UUID) error
}

// ShipperService is the primary port for the shipper registry.
type ShipperService interface {
	Create(ctx context.Context, shipper *domain.Shipper) error
	List(ctx context.Context, activeOnly bool) ([]domain.Shipper, error)
}
