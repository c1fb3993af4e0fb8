package ports

import (
	"context"
	"errors"
	"time"

	"leopards-connector/internal/features/shipments/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by writes that target a missing record.
var ErrNotFound = errors.New("record not found")

// StatusMutator computes the next label from the locked current one.
type StatusMutator func(current string) domain.Resolution

// ShipmentRepository persists shipment records.
type ShipmentRepository interface {
	// Create inserts a new shipment and assigns its ID when empty.
	Create(ctx context.Context, shipment *domain.Shipment) error
	// Get returns the shipment, or nil, nil when it does not exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.Shipment, error)
	// UpdateStatus locks the record, passes its label to mutate and writes the result when it changed.
	// Only last_status is read and written.
	UpdateStatus(ctx context.Context, id uuid.UUID, mutate StatusMutator) (domain.Resolution, error)
	// MarkCancelled clears the CN, sets the cancelled label and clears the pending flag.
	MarkCancelled(ctx context.Context, id uuid.UUID) error
	// ClearTracking clears the CN and the status label without touching the courier.
	ClearTracking(ctx context.Context, id uuid.UUID) error
	// SetPendingCancel sets or clears the queued-cancellation flag.
	SetPendingCancel(ctx context.Context, id uuid.UUID, pending bool) error
	// SetLabel records where the slip is stored.
	SetLabel(ctx context.Context, id uuid.UUID, key string) error
	// SetPrice records the courier tariff.
	SetPrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error
	// ListByReference returns the shipments of an order, oldest first.
	ListByReference(ctx context.Context, reference string) ([]domain.Shipment, error)
	// ListDueForRefresh returns shipments with a CN, no pending cancel and a non-terminal label,
	// touched since the cutoff, newest first.
	ListDueForRefresh(ctx context.Context, since time.Time, limit int) ([]domain.Shipment, error)
	// ListPendingCancel returns shipments with a CN and a queued cancellation.
	ListPendingCancel(ctx context.Context, limit int) ([]domain.Shipment, error)
}

// ShipperRepository persists shipper identities.
type ShipperRepository interface {
	Create(ctx context.Context, shipper *domain.Shipper) error
	// Get returns the shipper, or nil, nil when it does not exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.Shipper, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Shipper, error)
}

// EventLog is the append-only shipment timeline.
type EventLog interface {
	Append(ctx context.Context, shipmentID uuid.UUID, body string) error
	List(ctx context.Context, shipmentID uuid.UUID) ([]domain.Event, error)
}

// LabelStore keeps downloaded slips.
type LabelStore interface {
	Put(ctx context.Context, key string, label domain.Label) error
	// Get returns the slip, or nil, nil when it does not exist.
	Get(ctx context.Context, key string) (*domain.Label, error)
	// URL returns a temporary download URL, or "" when the store serves bytes only.
	URL(ctx context.Context, key string) (string, error)
}

// TariffCache remembers recent tariff totals.
type TariffCache interface {
	// Get returns the cached total and whether it was present.
	Get(ctx context.Context, key string) (decimal.Decimal, bool)
	Set(ctx context.Context, key string, total decimal.Decimal)
}
