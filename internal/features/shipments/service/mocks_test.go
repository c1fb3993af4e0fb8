package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"leopards-connector/internal/features/shipments/domain"
	"leopards-connector/internal/features/shipments/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// mockCourier is a testify mock of ports.Courier.
type mockCourier struct {
	mock.Mock
}

func (m *mockCourier) GetTariff(ctx context.Context, req domain.TariffRequest) (domain.Tariff, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Tariff), args.Error(1)
}

func (m *mockCourier) BookPacket(ctx context.Context, booking domain.PacketBooking) (*domain.BookingResult, error) {
	args := m.Called(ctx, booking)
	if res := args.Get(0); res != nil {
		return res.(*domain.BookingResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCourier) CancelPackets(ctx context.Context, cn string) error {
	return m.Called(ctx, cn).Error(0)
}

func (m *mockCourier) TrackPackets(ctx context.Context, cn string) (*domain.TrackResult, error) {
	args := m.Called(ctx, cn)
	if res := args.Get(0); res != nil {
		return res.(*domain.TrackResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCourier) DownloadLabel(ctx context.Context, link string) (*domain.Label, error) {
	args := m.Called(ctx, link)
	if res := args.Get(0); res != nil {
		return res.(*domain.Label), args.Error(1)
	}
	return nil, args.Error(1)
}

// mockRenderer is a testify mock of ports.LabelRenderer.
type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) RenderPDF(ctx context.Context, link string) ([]byte, error) {
	args := m.Called(ctx, link)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

// memShipments is an in-memory ports.ShipmentRepository.
type memShipments struct {
	mu    sync.Mutex
	items map[uuid.UUID]*domain.Shipment
}

func newMemShipments() *memShipments {
	return &memShipments{items: map[uuid.UUID]*domain.Shipment{}}
}

func (r *memShipments) put(s domain.Shipment) domain.Shipment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now()
	}
	r.items[s.ID] = &s
	return s
}

func (r *memShipments) Create(ctx context.Context, s *domain.Shipment) error {
	*s = r.put(*s)
	return nil
}

func (r *memShipments) Get(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memShipments) update(id uuid.UUID, fn func(*domain.Shipment)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return ports.ErrNotFound
	}
	fn(s)
	s.UpdatedAt = time.Now()
	return nil
}

func (r *memShipments) UpdateStatus(ctx context.Context, id uuid.UUID, mutate ports.StatusMutator) (domain.Resolution, error) {
	var res domain.Resolution
	err := r.update(id, func(s *domain.Shipment) {
		res = mutate(s.LastStatus)
		if res.Changed() {
			s.LastStatus = res.Label
		}
	})
	return res, err
}

func (r *memShipments) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	return r.update(id, func(s *domain.Shipment) {
		s.TrackingRef = ""
		s.LastStatus = domain.LabelCancelled
		s.PendingCancel = false
	})
}

func (r *memShipments) ClearTracking(ctx context.Context, id uuid.UUID) error {
	return r.update(id, func(s *domain.Shipment) {
		s.TrackingRef = ""
		s.LastStatus = ""
		s.LabelKey = ""
		s.PendingCancel = false
	})
}

func (r *memShipments) SetPendingCancel(ctx context.Context, id uuid.UUID, pending bool) error {
	return r.update(id, func(s *domain.Shipment) { s.PendingCancel = pending })
}

func (r *memShipments) SetLabel(ctx context.Context, id uuid.UUID, key string) error {
	return r.update(id, func(s *domain.Shipment) { s.LabelKey = key })
}

func (r *memShipments) SetPrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error {
	return r.update(id, func(s *domain.Shipment) { s.Price = price })
}

func (r *memShipments) list(keep func(*domain.Shipment) bool, limit int) []domain.Shipment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Shipment
	for _, s := range r.items {
		if keep(s) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *memShipments) ListByReference(ctx context.Context, reference string) ([]domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Shipment
	for _, s := range r.items {
		if s.Reference == reference {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memShipments) ListDueForRefresh(ctx context.Context, since time.Time, limit int) ([]domain.Shipment, error) {
	return r.list(func(s *domain.Shipment) bool {
		return s.TrackingRef != "" && !s.PendingCancel && !domain.IsTerminal(s.LastStatus) && !s.UpdatedAt.Before(since)
	}, limit), nil
}

func (r *memShipments) ListPendingCancel(ctx context.Context, limit int) ([]domain.Shipment, error) {
	return r.list(func(s *domain.Shipment) bool {
		return s.TrackingRef != "" && s.PendingCancel
	}, limit), nil
}

// memShippers is an in-memory ports.ShipperRepository.
type memShippers struct {
	items map[uuid.UUID]domain.Shipper
}

func (r *memShippers) Create(ctx context.Context, s *domain.Shipper) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.items[s.ID] = *s
	return nil
}

func (r *memShippers) Get(ctx context.Context, id uuid.UUID) (*domain.Shipper, error) {
	s, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *memShippers) List(ctx context.Context, activeOnly bool) ([]domain.Shipper, error) {
	var out []domain.Shipper
	for _, s := range r.items {
		if !activeOnly || s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

// memEvents is an in-memory ports.EventLog.
type memEvents struct {
	mu     sync.Mutex
	events []domain.Event
}

func (l *memEvents) Append(ctx context.Context, shipmentID uuid.UUID, body string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, domain.Event{ID: uuid.New(), ShipmentID: shipmentID, Body: body, CreatedAt: time.Now()})
	return nil
}

func (l *memEvents) List(ctx context.Context, shipmentID uuid.UUID) ([]domain.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.Event
	for _, e := range l.events {
		if e.ShipmentID == shipmentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *memEvents) bodies(shipmentID uuid.UUID) []string {
	events, _ := l.List(context.Background(), shipmentID)
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Body)
	}
	return out
}

// memLabels is an in-memory ports.LabelStore. A non-empty link makes URL serve it.
type memLabels struct {
	items map[string]domain.Label
	link  string
}

func (s *memLabels) Put(ctx context.Context, key string, label domain.Label) error {
	s.items[key] = label
	return nil
}

func (s *memLabels) Get(ctx context.Context, key string) (*domain.Label, error) {
	l, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (s *memLabels) URL(ctx context.Context, key string) (string, error) {
	if s.link == "" {
		return "", nil
	}
	return s.link + "/" + key, nil
}

// memTariffs is an in-memory ports.TariffCache.
type memTariffs struct {
	items map[string]decimal.Decimal
}

func (c *memTariffs) Get(ctx context.Context, key string) (decimal.Decimal, bool) {
	v, ok := c.items[key]
	return v, ok
}

func (c *memTariffs) Set(ctx context.Context, key string, total decimal.Decimal) {
	c.items[key] = total
}
