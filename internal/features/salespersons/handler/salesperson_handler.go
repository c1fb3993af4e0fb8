package handler

import (
	"errors"
	"strconv"
	"time"

	"leopards-connector/internal/core/logger"
	"leopards-connector/internal/core/validation"
	"leopards-connector/internal/features/salespersons/domain"
	"leopards-connector/internal/features/salespersons/ports"
	"leopards-connector/internal/features/salespersons/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SalespersonHandler handles HTTP requests for POS line salespersons.
type SalespersonHandler struct {
	service  ports.SalespersonService
	validate *validator.Validate
}

// NewSalespersonHandler creates a new SalespersonHandler.
func NewSalespersonHandler(service ports.SalespersonService) *SalespersonHandler {
	return &SalespersonHandler{service: service, validate: validation.New()}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

// AssignRequest is the body of PUT /pos/order-lines/{id}/salesperson.
type AssignRequest struct {
	// EmployeeID credits the line; 0 clears the salesperson.
	EmployeeID uint `json:"employee_id"`
}

// Register mounts the salesperson routes.
func (h *SalespersonHandler) Register(r fiber.Router) {
	r.Post("/employees", h.SaveEmployee)
	r.Put("/pos/configs/:id", h.SaveConfig)
	r.Get("/pos/configs/:id/salespersons", h.ListSalespersons)
	r.Post("/pos/order-lines", h.CreateOrderLine)
	r.Put("/pos/order-lines/:id/salesperson", h.AssignSalesperson)
	r.Get("/reports/pos/salespersons", h.Report)
}

// SaveEmployee godoc
// @Summary Create or update an employee
// @Tags salespersons
// @Accept json
// @Produce json
// @Param employee body domain.Employee true "Employee"
// @Success 200 {object} domain.Employee
// @Failure 400 {object} ErrorResponse
// @Router /employees [post]
func (h *SalespersonHandler) SaveEmployee(c *fiber.Ctx) error {
	var e domain.Employee
	if err := h.bind(c, &e); err != nil {
		return h.respond(c, fiber.StatusBadRequest, err.Error())
	}
	if err := h.service.SaveEmployee(c.UserContext(), &e); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(e)
}

// SaveConfig godoc
// @Summary Create or update a POS config
// @Description Stores the company, POS-HR flag and the employee lists of a POS config
// @Tags salespersons
// @Accept json
// @Produce json
// @Param id path int true "POS config ID"
// @Param config body domain.Config true "Config"
// @Success 200 {object} domain.Config
// @Failure 400 {object} ErrorResponse
// @Router /pos/configs/{id} [put]
func (h *SalespersonHandler) SaveConfig(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return h.respond(c, fiber.StatusBadRequest, "invalid config id")
	}

	var cfg domain.Config
	if err := h.bind(c, &cfg); err != nil {
		return h.respond(c, fiber.StatusBadRequest, err.Error())
	}
	cfg.ID = id

	if err := h.service.SaveConfig(c.UserContext(), &cfg); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(cfg)
}

// ListSalespersons godoc
// @Summary List line salespersons of a POS config
// @Description Returns the employees selectable as line salesperson, sorted by name
// @Tags salespersons
// @Produce json
// @Param id path int true "POS config ID"
// @Success 200 {array} domain.Salesperson
// @Failure 400 {object} ErrorResponse
// @Router /pos/configs/{id}/salespersons [get]
func (h *SalespersonHandler) ListSalespersons(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return h.respond(c, fiber.StatusBadRequest, "invalid config id")
	}

	people, err := h.service.ForConfig(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(people)
}

// CreateOrderLine godoc
// @Summary Record a POS order line
// @Tags salespersons
// @Accept json
// @Produce json
// @Param line body domain.OrderLine true "Order line"
// @Success 201 {object} domain.OrderLine
// @Failure 400 {object} ErrorResponse
// @Router /pos/order-lines [post]
func (h *SalespersonHandler) CreateOrderLine(c *fiber.Ctx) error {
	var line domain.OrderLine
	if err := h.bind(c, &line); err != nil {
		return h.respond(c, fiber.StatusBadRequest, err.Error())
	}
	line.ID = 0

	if err := h.service.CreateOrderLine(c.UserContext(), &line); err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(line)
}

// AssignSalesperson godoc
// @Summary Set the salesperson of a POS order line
// @Tags salespersons
// @Accept json
// @Produce json
// @Param id path int true "Order line ID"
// @Param request body AssignRequest true "Employee"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /pos/order-lines/{id}/salesperson [put]
func (h *SalespersonHandler) AssignSalesperson(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return h.respond(c, fiber.StatusBadRequest, "invalid order line id")
	}

	var req AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respond(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.AssignToLine(c.UserContext(), id, req.EmployeeID); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Report godoc
// @Summary Salesperson sales report
// @Description Aggregates POS order lines by salesperson over [from, to). Dates are YYYY-MM-DD or RFC 3339.
// @Tags salespersons
// @Produce json
// @Param from query string false "Start (inclusive)"
// @Param to query string false "End (exclusive)"
// @Success 200 {array} domain.ReportRow
// @Failure 400 {object} ErrorResponse
// @Router /reports/pos/salespersons [get]
func (h *SalespersonHandler) Report(c *fiber.Ctx) error {
	from, err := parseTime(c.Query("from"))
	if err != nil {
		return h.respond(c, fiber.StatusBadRequest, "invalid from date")
	}
	to, err := parseTime(c.Query("to"))
	if err != nil {
		return h.respond(c, fiber.StatusBadRequest, "invalid to date")
	}

	rows, err := h.service.Report(c.UserContext(), from, to)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(rows)
}

func (h *SalespersonHandler) bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return errors.New("invalid request body")
	}
	if err := h.validate.Struct(out); err != nil {
		return errors.New(validation.Message(err))
	}
	return nil
}

func (h *SalespersonHandler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrEmployeeNotFound), errors.Is(err, service.ErrLineNotFound):
		return h.respond(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidPeriod):
		return h.respond(c, fiber.StatusBadRequest, err.Error())
	}

	logger.Get().Error("Salesperson request failed", zap.String("path", c.Path()), zap.Error(err))
	return h.respond(c, fiber.StatusInternalServerError, "internal server error")
}

func (h *SalespersonHandler) respond(c *fiber.Ctx, status int, msg string) error {
	rayID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(ErrorResponse{Message: msg, RayID: rayID})
}

func pathID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

// parseTime accepts "", a date or an RFC 3339 timestamp. Dates are midnight UTC.
func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
