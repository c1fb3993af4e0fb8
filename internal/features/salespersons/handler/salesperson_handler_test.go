package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leopards-connector/internal/features/salespersons/domain"
	"leopards-connector/internal/features/salespersons/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSalespersonService is a stub implementation of ports.SalespersonService for testing.
type stubSalespersonService struct {
	employee   domain.Employee
	config     domain.Config
	line       domain.OrderLine
	configID   uint
	lineID     uint
	employeeID uint
	from, to   time.Time
	people     []domain.Salesperson
	rows       []domain.ReportRow
	err        error
}

func (s *stubSalespersonService) SaveEmployee(ctx context.Context, e *domain.Employee) error {
	if e.ID == 0 {
		e.ID = 11
	}
	s.employee = *e
	return s.err
}

func (s *stubSalespersonService) SaveConfig(ctx context.Context, cfg *domain.Config) error {
	s.config = *cfg
	return s.err
}

func (s *stubSalespersonService) CreateOrderLine(ctx context.Context, line *domain.OrderLine) error {
	line.ID = 21
	s.line = *line
	return s.err
}

func (s *stubSalespersonService) ForConfig(ctx context.Context, configID uint) ([]domain.Salesperson, error) {
	s.configID = configID
	return s.people, s.err
}

func (s *stubSalespersonService) AssignToLine(ctx context.Context, lineID, employeeID uint) error {
	s.lineID, s.employeeID = lineID, employeeID
	return s.err
}

func (s *stubSalespersonService) Report(ctx context.Context, from, to time.Time) ([]domain.ReportRow, error) {
	s.from, s.to = from, to
	return s.rows, s.err
}

func newTestApp(svc *stubSalespersonService) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "test-ray-id")
		return c.Next()
	})
	NewSalespersonHandler(svc).Register(app)
	return app
}

func send(t *testing.T, app *fiber.App, method, target, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decodeError(t *testing.T, data []byte) ErrorResponse {
	t.Helper()
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

// TestSalespersonHandler_ListSalespersons verifies the list and the id validation.
func TestSalespersonHandler_ListSalespersons(t *testing.T) {
	svc := &stubSalespersonService{people: []domain.Salesperson{domain.NewSalesperson(domain.Employee{ID: 4, Name: "Bilal"})}}
	app := newTestApp(svc)

	status, data := send(t, app, "GET", "/pos/configs/3/salespersons", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, uint(3), svc.configID)

	var people []domain.Salesperson
	require.NoError(t, json.Unmarshal(data, &people))
	require.Len(t, people, 1)
	assert.Equal(t, "employee", people[0].Source)
	assert.Equal(t, "/web/image/hr.employee.public/4/avatar_128", people[0].Image)

	status, data = send(t, app, "GET", "/pos/configs/abc/salespersons", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	resp := decodeError(t, data)
	assert.Equal(t, "invalid config id", resp.Message)
	assert.Equal(t, "test-ray-id", resp.RayID)
}

// TestSalespersonHandler_AssignSalesperson verifies assignment and the error mapping.
func TestSalespersonHandler_AssignSalesperson(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		err    error
		status int
	}{
		{name: "assigned", target: "/pos/order-lines/7/salesperson", body: `{"employee_id":4}`, status: fiber.StatusNoContent},
		{name: "cleared", target: "/pos/order-lines/7/salesperson", body: `{"employee_id":0}`, status: fiber.StatusNoContent},
		{name: "unknown employee", target: "/pos/order-lines/7/salesperson", body: `{"employee_id":4}`, err: service.ErrEmployeeNotFound, status: fiber.StatusNotFound},
		{name: "unknown line", target: "/pos/order-lines/7/salesperson", body: `{"employee_id":4}`, err: service.ErrLineNotFound, status: fiber.StatusNotFound},
		{name: "bad line id", target: "/pos/order-lines/0/salesperson", body: `{"employee_id":4}`, status: fiber.StatusBadRequest},
		{name: "bad body", target: "/pos/order-lines/7/salesperson", body: `{`, status: fiber.StatusBadRequest},
		{name: "storage failure", target: "/pos/order-lines/7/salesperson", body: `{"employee_id":4}`, err: errors.New("db down"), status: fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubSalespersonService{err: tt.err}
			status, _ := send(t, newTestApp(svc), "PUT", tt.target, tt.body)
			assert.Equal(t, tt.status, status)
		})
	}

	svc := &stubSalespersonService{}
	send(t, newTestApp(svc), "PUT", "/pos/order-lines/7/salesperson", `{"employee_id":4}`)
	assert.Equal(t, uint(7), svc.lineID)
	assert.Equal(t, uint(4), svc.employeeID)
}

// TestSalespersonHandler_Report verifies date parsing and the period error.
func TestSalespersonHandler_Report(t *testing.T) {
	svc := &stubSalespersonService{rows: []domain.ReportRow{{SalespersonName: "Ali", Lines: 2, Qty: 3}}}
	app := newTestApp(svc)

	status, data := send(t, app, "GET", "/reports/pos/salespersons?from=2026-03-01&to=2026-04-01T00:00:00Z", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), svc.from)
	assert.True(t, svc.to.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))

	var rows []domain.ReportRow
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].Lines)

	status, _ = send(t, app, "GET", "/reports/pos/salespersons", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, svc.from.IsZero())

	status, data = send(t, app, "GET", "/reports/pos/salespersons?from=yesterday", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid from date", decodeError(t, data).Message)

	svc.err = service.ErrInvalidPeriod
	status, _ = send(t, app, "GET", "/reports/pos/salespersons?from=2026-04-01&to=2026-03-01", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

// TestSalespersonHandler_Seeding verifies the employee, config and order line routes.
func TestSalespersonHandler_Seeding(t *testing.T) {
	svc := &stubSalespersonService{}
	app := newTestApp(svc)

	status, _ := send(t, app, "POST", "/employees", `{"name":"Ayesha","active":true,"show_in_pos_salesperson":true}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Ayesha", svc.employee.Name)
	assert.True(t, svc.employee.ShowInPOSSalesperson)

	status, data := send(t, app, "POST", "/employees", `{"active":true}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, decodeError(t, data).Message, "name")

	status, _ = send(t, app, "PUT", "/pos/configs/5", `{"id":99,"company_id":1,"pos_hr_enabled":true,"basic_employee_ids":[2]}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, uint(5), svc.config.ID)
	assert.Equal(t, []uint{2}, svc.config.BasicEmployeeIDs)

	status, data = send(t, app, "POST", "/pos/order-lines", `{"order_ref":"POS/0001","product_name":"Tea","qty":2,"price_subtotal":"500.00"}`)
	require.Equal(t, fiber.StatusCreated, status)
	var line domain.OrderLine
	require.NoError(t, json.Unmarshal(data, &line))
	assert.Equal(t, uint(21), line.ID)
	assert.Equal(t, "500", svc.line.PriceSubtotal.String())

	status, _ = send(t, app, "POST", "/pos/order-lines", `{"product_name":"Tea"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
