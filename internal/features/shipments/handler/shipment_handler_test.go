package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"leopards-connector/internal/features/shipments/domain"
	"leopards-connector/internal/features/shipments/ports"
	"leopards-connector/internal/features/shipments/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubShipmentService is a mock implementation of ports.ShipmentService for testing.
type stubShipmentService struct {
	quote        domain.Quote
	lastQuote    domain.QuoteRequest
	view         *ports.ShipmentView
	order        *ports.OrderShipments
	reference    string
	lastBooking  domain.BookingRequest
	events       []domain.Event
	label        *domain.Label
	link         string
	resolution   domain.Resolution
	err          error
	cancelled    uuid.UUID
	cancelQueued uuid.UUID
	cleared      uuid.UUID
}

func (s *stubShipmentService) Quote(ctx context.Context, req domain.QuoteRequest) domain.Quote {
	s.lastQuote = req
	return s.quote
}

func (s *stubShipmentService) Book(ctx context.Context, req domain.BookingRequest) (*ports.ShipmentView, error) {
	s.lastBooking = req
	return s.view, s.err
}

func (s *stubShipmentService) Get(ctx context.Context, id uuid.UUID) (*ports.ShipmentView, error) {
	return s.view, s.err
}

func (s *stubShipmentService) ByReference(ctx context.Context, reference string) (*ports.OrderShipments, error) {
	s.reference = reference
	return s.order, s.err
}

func (s *stubShipmentService) Events(ctx context.Context, id uuid.UUID) ([]domain.Event, error) {
	return s.events, s.err
}

func (s *stubShipmentService) Label(ctx context.Context, id uuid.UUID) (*domain.Label, string, error) {
	return s.label, s.link, s.err
}

func (s *stubShipmentService) Refresh(ctx context.Context, id uuid.UUID) (domain.Resolution, error) {
	return s.resolution, s.err
}

func (s *stubShipmentService) Cancel(ctx context.Context, id uuid.UUID) error {
	s.cancelled = id
	return s.err
}

func (s *stubShipmentService) RequestCancel(ctx context.Context, id uuid.UUID) error {
	s.cancelQueued = id
	return s.err
}

func (s *stubShipmentService) ClearLocally(ctx context.Context, id uuid.UUID) error {
	s.cleared = id
	return s.err
}

// stubShipperService is a mock implementation of ports.ShipperService for testing.
type stubShipperService struct {
	created    []domain.Shipper
	activeOnly bool
	err        error
}

func (s *stubShipperService) Create(ctx context.Context, shipper *domain.Shipper) error {
	if s.err != nil {
		return s.err
	}
	shipper.ID = uuid.New()
	s.created = append(s.created, *shipper)
	return nil
}

func (s *stubShipperService) List(ctx context.Context, activeOnly bool) ([]domain.Shipper, error) {
	s.activeOnly = activeOnly
	return s.created, s.err
}

func newTestApp(shipments *stubShipmentService, shippers *stubShipperService) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "test-ray-id")
		return c.Next()
	})
	NewShipmentHandler(shipments, shippers).Register(app)
	return app
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decodeError(t *testing.T, data []byte) ErrorResponse {
	t.Helper()
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(data, &errResp))
	return errResp
}

// TestShipmentHandler_Quote verifies the request is decoded and the quote returned.
func TestShipmentHandler_Quote(t *testing.T) {
	svc := &stubShipmentService{quote: domain.Quote{Success: true, Price: decimal.NewFromInt(350)}}
	app := newTestApp(svc, &stubShipperService{})

	status, data := do(t, app, "POST", "/shipments/quote", `{"city":"Lahore","weight_kg":2.5,"order_total":"1200"}`)

	require.Equal(t, fiber.StatusOK, status)
	var q domain.Quote
	require.NoError(t, json.Unmarshal(data, &q))
	assert.True(t, q.Success)
	assert.Equal(t, "350", q.Price.String())
	assert.Equal(t, "Lahore", svc.lastQuote.City)
	assert.Equal(t, 2.5, svc.lastQuote.WeightKg)
	assert.Equal(t, "1200", svc.lastQuote.OrderTotal.String())
}

// TestShipmentHandler_Quote_Invalid verifies malformed and invalid bodies are rejected.
func TestShipmentHandler_Quote_Invalid(t *testing.T) {
	app := newTestApp(&stubShipmentService{}, &stubShipperService{})

	status, data := do(t, app, "POST", "/shipments/quote", `{"city":`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid request body", decodeError(t, data).Message)

	status, data = do(t, app, "POST", "/shipments/quote", `{"city":"Lahore","weight_kg":-1}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	errResp := decodeError(t, data)
	assert.Contains(t, errResp.Message, "weight_kg")
	assert.Equal(t, "test-ray-id", errResp.RayID)
}

// TestShipmentHandler_Book verifies a successful booking returns 201 with the view.
func TestShipmentHandler_Book(t *testing.T) {
	id := uuid.New()
	svc := &stubShipmentService{view: &ports.ShipmentView{
		Shipment:    domain.Shipment{ID: id, Reference: "SO-1", TrackingRef: "LE1", LastStatus: domain.LabelBooked},
		TrackingURL: "https://www.leopardscourier.com/tracking?cn=LE1",
	}}
	app := newTestApp(svc, &stubShipperService{})

	status, data := do(t, app, "POST", "/shipments",
		`{"reference":"SO-1","consignee":{"name":"Ali","city":"Lahore"},"items":[{"name":"Mug","weight_kg":0.5,"quantity":2}],"cod_amount":"900"}`)

	require.Equal(t, fiber.StatusCreated, status)
	var view ports.ShipmentView
	require.NoError(t, json.Unmarshal(data, &view))
	assert.Equal(t, id, view.ID)
	assert.Equal(t, "LE1", view.TrackingRef)
	assert.Equal(t, "https://www.leopardscourier.com/tracking?cn=LE1", view.TrackingURL)
	assert.Equal(t, "SO-1", svc.lastBooking.Reference)
	assert.Equal(t, "900", svc.lastBooking.CODAmount.String())
	require.Len(t, svc.lastBooking.Items, 1)
}

// TestShipmentHandler_Book_MissingReference verifies the reference is required.
func TestShipmentHandler_Book_MissingReference(t *testing.T) {
	app := newTestApp(&stubShipmentService{}, &stubShipperService{})

	status, data := do(t, app, "POST", "/shipments", `{"consignee":{"city":"Lahore","email":"bad"}}`)

	assert.Equal(t, fiber.StatusBadRequest, status)
	msg := decodeError(t, data).Message
	assert.Contains(t, msg, "reference: This field is required")
	assert.Contains(t, msg, "consignee.email: Invalid email format")
}

// TestShipmentHandler_ErrorMapping verifies service errors map to HTTP statuses.
func TestShipmentHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "shipment not found", err: service.ErrShipmentNotFound, status: fiber.StatusNotFound},
		{name: "shipper not found", err: service.ErrShipperNotFound, status: fiber.StatusNotFound},
		{name: "no tracking number", err: service.ErrNoTrackingNumber, status: fiber.StatusBadRequest},
		{name: "rejected", err: fmt.Errorf("Leopards cancellation failed: %w", fmt.Errorf("%w: already delivered", domain.ErrRejected)), status: fiber.StatusUnprocessableEntity},
		{name: "upstream", err: fmt.Errorf("could not fetch tracking: %w", domain.ErrUpstream), status: fiber.StatusBadGateway},
		{name: "unexpected", err: errors.New("disk full"), status: fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&stubShipmentService{err: tt.err}, &stubShipperService{})

			status, data := do(t, app, "POST", "/shipments/"+uuid.NewString()+"/cancel", "")

			assert.Equal(t, tt.status, status)
			errResp := decodeError(t, data)
			assert.Equal(t, "test-ray-id", errResp.RayID)
			if tt.status == fiber.StatusInternalServerError {
				assert.Equal(t, "internal server error", errResp.Message)
			} else {
				assert.Equal(t, tt.err.Error(), errResp.Message)
			}
		})
	}
}

// TestShipmentHandler_ListByReference verifies the query is passed through and the joined CNs rendered.
func TestShipmentHandler_ListByReference(t *testing.T) {
	svc := &stubShipmentService{order: &ports.OrderShipments{
		Reference:    "WH/OUT/00042",
		TrackingRefs: "LE1,LE2",
		Shipments: []ports.ShipmentView{
			{Shipment: domain.Shipment{Reference: "WH/OUT/00042", TrackingRef: "LE1"}},
			{Shipment: domain.Shipment{Reference: "WH/OUT/00042", TrackingRef: "LE2"}},
		},
	}}
	app := newTestApp(svc, &stubShipperService{})

	status, data := do(t, app, "GET", "/shipments?reference=WH%2FOUT%2F00042", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "WH/OUT/00042", svc.reference)

	var order ports.OrderShipments
	require.NoError(t, json.Unmarshal(data, &order))
	assert.Equal(t, "LE1,LE2", order.TrackingRefs)
	assert.Len(t, order.Shipments, 2)

	svc.err = service.ErrReferenceRequired
	status, data = do(t, app, "GET", "/shipments", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "reference is required", decodeError(t, data).Message)
}

// TestShipmentHandler_InvalidID verifies a malformed id is rejected before the service is called.
func TestShipmentHandler_InvalidID(t *testing.T) {
	svc := &stubShipmentService{}
	app := newTestApp(svc, &stubShipperService{})

	for _, path := range []string{"/shipments/abc", "/shipments/abc/events", "/shipments/abc/label"} {
		status, data := do(t, app, "GET", path, "")
		assert.Equal(t, fiber.StatusBadRequest, status, path)
		assert.Equal(t, "invalid shipment id", decodeError(t, data).Message)
	}
	for _, action := range []string{"refresh", "cancel", "cancel-request", "clear-tracking"} {
		status, _ := do(t, app, "POST", "/shipments/abc/"+action, "")
		assert.Equal(t, fiber.StatusBadRequest, status, action)
	}
	assert.Equal(t, uuid.Nil, svc.cancelled)
}

// TestShipmentHandler_Actions verifies the cancel, queue and clear routes reach the service.
func TestShipmentHandler_Actions(t *testing.T) {
	svc := &stubShipmentService{}
	app := newTestApp(svc, &stubShipperService{})
	id := uuid.New()

	status, _ := do(t, app, "POST", "/shipments/"+id.String()+"/cancel", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, id, svc.cancelled)

	status, _ = do(t, app, "POST", "/shipments/"+id.String()+"/cancel-request", "")
	assert.Equal(t, fiber.StatusAccepted, status)
	assert.Equal(t, id, svc.cancelQueued)

	status, _ = do(t, app, "POST", "/shipments/"+id.String()+"/clear-tracking", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, id, svc.cleared)
}

// TestShipmentHandler_Refresh verifies the resolution is rendered.
func TestShipmentHandler_Refresh(t *testing.T) {
	svc := &stubShipmentService{resolution: domain.Resolution{
		Label:   "Out For Delivery (AC)",
		Code:    "AC",
		Outcome: domain.OutcomeUpdated,
	}}
	app := newTestApp(svc, &stubShipperService{})

	status, data := do(t, app, "POST", "/shipments/"+uuid.NewString()+"/refresh", "")

	require.Equal(t, fiber.StatusOK, status)
	var res RefreshResponse
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, RefreshResponse{Outcome: domain.OutcomeUpdated, Status: "Out For Delivery (AC)", Code: "AC"}, res)
}

// TestShipmentHandler_Events verifies an empty timeline is rendered as an empty array.
func TestShipmentHandler_Events(t *testing.T) {
	app := newTestApp(&stubShipmentService{}, &stubShipperService{})

	status, data := do(t, app, "GET", "/shipments/"+uuid.NewString()+"/events", "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `[]`, string(data))
}

// TestShipmentHandler_Label verifies bytes are streamed and presigned links redirect.
func TestShipmentHandler_Label(t *testing.T) {
	t.Run("bytes", func(t *testing.T) {
		svc := &stubShipmentService{label: &domain.Label{
			Name:        "Leopards_Label_LE1.pdf",
			ContentType: "application/pdf",
			Data:        []byte("%PDF-1.4"),
		}}
		app := newTestApp(svc, &stubShipperService{})

		req := httptest.NewRequest("GET", "/shipments/"+uuid.NewString()+"/label", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.Equal(t, `attachment; filename="Leopards_Label_LE1.pdf"`, resp.Header.Get("Content-Disposition"))
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "%PDF-1.4", string(body))
	})

	t.Run("redirect", func(t *testing.T) {
		svc := &stubShipmentService{link: "https://labels.example/shipments/LE1/x.pdf?X-Amz-Expires=900"}
		app := newTestApp(svc, &stubShipperService{})

		req := httptest.NewRequest("GET", "/shipments/"+uuid.NewString()+"/label", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, svc.link, resp.Header.Get("Location"))
	})

	t.Run("missing", func(t *testing.T) {
		app := newTestApp(&stubShipmentService{err: service.ErrLabelNotFound}, &stubShipperService{})

		status, _ := do(t, app, "GET", "/shipments/"+uuid.NewString()+"/label", "")

		assert.Equal(t, fiber.StatusNotFound, status)
	})
}

// TestShipmentHandler_Shippers verifies creation and the active filter.
func TestShipmentHandler_Shippers(t *testing.T) {
	shippers := &stubShipperService{}
	app := newTestApp(&stubShipmentService{}, shippers)

	status, data := do(t, app, "POST", "/shippers", `{"name":"Main Warehouse","city":"Karachi","active":true}`)
	require.Equal(t, fiber.StatusCreated, status)
	var created domain.Shipper
	require.NoError(t, json.Unmarshal(data, &created))
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "Karachi", created.City)

	status, _ = do(t, app, "POST", "/shippers", `{"city":"Karachi"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, data = do(t, app, "GET", "/shippers?active=true", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, shippers.activeOnly)
	var list []domain.Shipper
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Len(t, list, 1)

	status, _ = do(t, app, "GET", "/shippers?active=maybe", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}
