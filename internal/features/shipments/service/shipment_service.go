package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leopards-connector/internal/core/logger"
	"leopards-connector/internal/features/shipments/domain"
	"leopards-connector/internal/features/shipments/ports"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"go.uber.org/zap"
)

var (
	// ErrShipmentNotFound is returned when the shipment does not exist.
	ErrShipmentNotFound = errors.New("shipment not found")
	// ErrShipperNotFound is returned when a booking names an unknown shipper.
	ErrShipperNotFound = errors.New("shipper not found")
	// ErrNoTrackingNumber is returned by operations that need a CN on a shipment without one.
	ErrNoTrackingNumber = errors.New("shipment has no tracking number")
	// ErrLabelNotFound is returned when no slip is stored for the shipment.
	ErrLabelNotFound = errors.New("label not found")
	// ErrReferenceRequired is returned by order lookups without a reference.
	ErrReferenceRequired = errors.New("reference is required")
)

// Settings holds the behaviour switches of ShipmentService.
type Settings struct {
	// Company is the sender used when neither the request nor the configuration names a shipper.
	Company domain.Company
	// DefaultShipperID is used when a booking request names no shipper.
	DefaultShipperID *uuid.UUID
	// TrackingURL is the public tracking page.
	TrackingURL string
	// TrustCancelHint treats cancellation keywords in track errors as a cancellation.
	TrustCancelHint bool
	// RefreshLookback bounds how old a shipment may be for the periodic refresh.
	RefreshLookback time.Duration
	// RefreshBatch is the maximum number of shipments per refresh run.
	RefreshBatch int
	// CancelBatch is the maximum number of queued cancellations per run.
	CancelBatch int
}

// ShipmentService books, tracks and cancels Leopards shipments.
type ShipmentService struct {
	courier   ports.Courier
	quotes    *QuoteService
	shipments ports.ShipmentRepository
	shippers  ports.ShipperRepository
	events    ports.EventLog
	labels    ports.LabelStore
	renderer  ports.LabelRenderer
	settings  Settings
	clock     clock.Clock
	logger    *zap.Logger
}

// NewShipmentService creates a ShipmentService. renderer may be nil to store HTML slips as-is.
func NewShipmentService(
	courier ports.Courier,
	quotes *QuoteService,
	shipments ports.ShipmentRepository,
	shippers ports.ShipperRepository,
	events ports.EventLog,
	labels ports.LabelStore,
	renderer ports.LabelRenderer,
	settings Settings,
	clk clock.Clock,
) *ShipmentService {
	if clk == nil {
		clk = clock.WallClock
	}
	return &ShipmentService{
		courier:   courier,
		quotes:    quotes,
		shipments: shipments,
		shippers:  shippers,
		events:    events,
		labels:    labels,
		renderer:  renderer,
		settings:  settings,
		clock:     clk,
		logger:    logger.Named("shipments"),
	}
}

// Quote prices an order.
func (s *ShipmentService) Quote(ctx context.Context, req domain.QuoteRequest) domain.Quote {
	return s.quotes.Quote(ctx, req)
}

// Get returns the shipment with its tracking link.
func (s *ShipmentService) Get(ctx context.Context, id uuid.UUID) (*ports.ShipmentView, error) {
	shipment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(shipment), nil
}

// ByReference returns the shipments of an order and their comma-joined CNs.
func (s *ShipmentService) ByReference(ctx context.Context, reference string) (*ports.OrderShipments, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, ErrReferenceRequired
	}

	shipments, err := s.shipments.ListByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to list order shipments: %w", err)
	}

	out := &ports.OrderShipments{
		Reference:    reference,
		TrackingRefs: domain.JoinTrackingRefs(shipments),
		Shipments:    make([]ports.ShipmentView, 0, len(shipments)),
	}
	for i := range shipments {
		out.Shipments = append(out.Shipments, *s.view(&shipments[i]))
	}
	return out, nil
}

// Events returns the shipment's timeline.
func (s *ShipmentService) Events(ctx context.Context, id uuid.UUID) ([]domain.Event, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	events, err := s.events.List(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// Label returns the stored slip. When the store serves links, the slip is nil and the URL is set.
func (s *ShipmentService) Label(ctx context.Context, id uuid.UUID) (*domain.Label, string, error) {
	shipment, err := s.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if shipment.LabelKey == "" {
		return nil, "", ErrLabelNotFound
	}

	link, err := s.labels.URL(ctx, shipment.LabelKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get label link: %w", err)
	}
	if link != "" {
		return nil, link, nil
	}

	label, err := s.labels.Get(ctx, shipment.LabelKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get label: %w", err)
	}
	if label == nil {
		return nil, "", ErrLabelNotFound
	}
	return label, "", nil
}

// load fetches a shipment, mapping a miss to ErrShipmentNotFound.
func (s *ShipmentService) load(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	shipment, err := s.shipments.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load shipment: %w", err)
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}
	return shipment, nil
}

func (s *ShipmentService) view(shipment *domain.Shipment) *ports.ShipmentView {
	return &ports.ShipmentView{
		Shipment:    *shipment,
		TrackingURL: domain.TrackingLink(s.settings.TrackingURL, shipment.TrackingRef),
	}
}

// note appends a timeline entry; failures are logged only.
func (s *ShipmentService) note(ctx context.Context, id uuid.UUID, body string) {
	if err := s.events.Append(ctx, id, body); err != nil {
		s.logger.Warn("Failed to append shipment event", zap.String("shipment_id", id.String()), zap.Error(err))
	}
}

// IsNotFound reports whether err means the shipment, shipper or label does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrShipmentNotFound) || errors.Is(err, ErrShipperNotFound) || errors.Is(err, ErrLabelNotFound)
}

// notFound maps the repository miss onto the service error.
func notFound(err error) error {
	if errors.Is(err, ports.ErrNotFound) {
		return ErrShipmentNotFound
	}
	return err
}
