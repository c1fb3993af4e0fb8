package handler

import (
	"errors"
	"fmt"
	"strconv"

	"leopards-connector/internal/core/logger"
	"leopards-connector/internal/core/validation"
	"leopards-connector/internal/features/shipments/domain"
	"leopards-connector/internal/features/shipments/ports"
	"leopards-connector/internal/features/shipments/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ShipmentHandler handles HTTP requests for Leopards shipments and shippers.
type ShipmentHandler struct {
	shipments ports.ShipmentService
	shippers  ports.ShipperService
	validate  *validator.Validate
}

// NewShipmentHandler creates a new ShipmentHandler.
func NewShipmentHandler(shipments ports.ShipmentService, shippers ports.ShipperService) *ShipmentHandler {
	return &ShipmentHandler{
		shipments: shipments,
		shippers:  shippers,
		validate:  validation.New(),
	}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

// MessageResponse is returned by actions without a resource body.
type MessageResponse struct {
	Message string `json:"message"`
}

// RefreshResponse reports the outcome of a tracking refresh.
type RefreshResponse struct {
	Outcome domain.Outcome `json:"outcome"`
	Status  string         `json:"status"`
	Code    string         `json:"code,omitempty"`
}

// Register mounts the shipment and shipper routes.
func (h *ShipmentHandler) Register(r fiber.Router) {
	r.Post("/shipments/quote", h.Quote)
	r.Post("/shipments", h.Book)
	r.Get("/shipments", h.ListByReference)
	r.Get("/shipments/:id", h.GetShipment)
	r.Get("/shipments/:id/events", h.GetEvents)
	r.Get("/shipments/:id/label", h.GetLabel)
	r.Post("/shipments/:id/refresh", h.Refresh)
	r.Post("/shipments/:id/cancel", h.Cancel)
	r.Post("/shipments/:id/cancel-request", h.RequestCancel)
	r.Post("/shipments/:id/clear-tracking", h.ClearTracking)
	r.Post("/shippers", h.CreateShipper)
	r.Get("/shippers", h.ListShippers)
}

// Quote godoc
// @Summary Quote a shipment
// @Description Prices an order with the Leopards tariff, falling back to the fixed price
// @Tags shipments
// @Accept json
// @Produce json
// @Param request body domain.QuoteRequest true "Order weight and destination"
// @Success 200 {object} domain.Quote
// @Failure 400 {object} ErrorResponse
// @Router /shipments/quote [post]
func (h *ShipmentHandler) Quote(c *fiber.Ctx) error {
	var req domain.QuoteRequest
	if err := h.bind(c, &req); err != nil {
		return h.respond(c, fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(h.shipments.Quote(c.UserContext(), req))
}

// Book godoc
// @Summary Book a shipment
// @Description Books a packet with Leopards, stores the label and records the shipment
// @Tags shipments
// @Accept json
// @Produce json
// @Param request body domain.BookingRequest true "Booking details"
// @Success 201 {object} ports.ShipmentView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /shipments [post]
func (h *ShipmentHandler) Book(c *fiber.Ctx) error {
	var req domain.BookingRequest
	if err := h.bind(c, &req); err != nil {
		return h.respond(c, fiber.StatusBadRequest, err.Error())
	}

	view, err := h.shipments.Book(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

// ListByReference godoc
// @Summary List an order's shipments
// @Description Returns every shipment booked for an order with their CNs comma separated
// @Tags shipments
// @Produce json
// @Param reference query string true "Order or picking reference"
// @Success 200 {object} ports.OrderShipments
// @Failure 400 {object} ErrorResponse
// @Router /shipments [get]
func (h *ShipmentHandler) ListByReference(c *fiber.Ctx) error {
	order, err := h.shipments.ByReference(c.UserContext(), c.Query("reference"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(order)
}

// GetShipment godoc
// @Summary Get a shipment
// @Description Returns the shipment record with its public tracking link
// @Tags shipments
// @Produce json
// @Param id path string true "Shipment ID"
// @Success 200 {object} ports.ShipmentView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /shipments/{id} [get]
func (h *ShipmentHandler) GetShipment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.respond(c, fiber.StatusBadRequest, "invalid shipment id")
	}

	view, err := h.shipments.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(view)
}

// GetEvents godoc
// @Summary Get the shipment timeline
// @Tags shipments
// @Produce json
// @Param id path string true "Shipment ID"
// @Success 200 {array} domain.Event
// @Failure 404 {object} ErrorResponse
// @Router /shipments/{id}/events [get]
func (h *ShipmentHandler) GetEvents(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.respond(c, fiber.StatusBadRequest, "invalid shipment id")
	}

	events, err := h.shipments.Events(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	if events == nil {
		events = []domain.Event{}
	}
	return c.JSON(events)
}

// GetLabel godoc
// @Summary Download the shipping label
// @Description Streams the stored label, or redirects to a temporary link when labels live in object storage
// @Tags shipments
// @Produce application/pdf
// @Param id path string true "Shipment ID"
// @Success 200 {file} file
// @Success 302
// @Failure 404 {object} ErrorResponse
// @Router /shipments/{id}/label [get]
func (h *ShipmentHandler) GetLabel(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.respond(c, fiber.StatusBadRequest, "invalid shipment id")
	}

	label, link, err := h.shipments.Label(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	if link != "" {
		return c.Redirect(link, fiber.StatusFound)
	}

	c.Set(fiber.HeaderContentType, label.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, label.Name))
	return c.Send(label.Data)
}

// Refresh godoc
// @Summary Refresh tracking
// @Description Fetches the Leopards packet report and reconciles the stored status
// @Tags shipments
// @Produce json
// @Param id path string true "Shipment ID"
// @Success 200 {object} RefreshResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /shipments/{id}/refresh [post]
func (h *ShipmentHandler) Refresh(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.respond(c, fiber.StatusBadRequest, "invalid shipment id")
	}

	res, err := h.shipments.Refresh(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(RefreshResponse{Outcome: res.Outcome, Status: res.Label, Code: res.Code})
}

// Cancel godoc
// @Summary Cancel a shipment
// @Description Cancels the packet with Leopards immediately
// @Tags shipments
// @Produce json
// @Param id path string true "Shipment ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /shipments/{id}/cancel [post]
func (h *ShipmentHandler) Cancel(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.respond(c, fiber.StatusBadRequest, "invalid shipment id")
	}

	if err := h.shipments.Cancel(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(MessageResponse{Message: "Shipment cancelled successfully in Leopards Courier."})
}

// RequestCancel godoc
// @Summary Queue a cancellation
// @Description Marks the shipment for the background cancellation job
// @Tags shipments
// @Produce json
// @Param id path string true "Shipment ID"
// @Success 202 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /shipments/{id}/cancel-request [post]
func (h *ShipmentHandler) RequestCancel(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.respond(c, fiber.StatusBadRequest, "invalid shipment id")
	}

	if err := h.shipments.RequestCancel(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(MessageResponse{Message: "Cancellation queued."})
}

// ClearTracking godoc
// @Summary Clear tracking locally
// @Description Removes the CN and status without calling Leopards
// @Tags shipments
// @Produce json
// @Param id path string true "Shipment ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /shipments/{id}/clear-tracking [post]
func (h *ShipmentHandler) ClearTracking(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.respond(c, fiber.StatusBadRequest, "invalid shipment id")
	}

	if err := h.shipments.ClearLocally(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(MessageResponse{Message: "Tracking number cleared locally."})
}

// CreateShipper godoc
// @Summary Register a shipper
// @Tags shippers
// @Accept json
// @Produce json
// @Param shipper body domain.Shipper true "Shipper details"
// @Success 201 {object} domain.Shipper
// @Failure 400 {object} ErrorResponse
// @Router /shippers [post]
func (h *ShipmentHandler) CreateShipper(c *fiber.Ctx) error {
	var shipper domain.Shipper
	if err := h.bind(c, &shipper); err != nil {
		return h.respond(c, fiber.StatusBadRequest, err.Error())
	}
	shipper.ID = uuid.Nil

	if err := h.shippers.Create(c.UserContext(), &shipper); err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(shipper)
}

// ListShippers godoc
// @Summary List shippers
// @Tags shippers
// @Produce json
// @Param active query bool false "Only active shippers"
// @Success 200 {array} domain.Shipper
// @Failure 400 {object} ErrorResponse
// @Router /shippers [get]
func (h *ShipmentHandler) ListShippers(c *fiber.Ctx) error {
	activeOnly := false
	if raw := c.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return h.respond(c, fiber.StatusBadRequest, "active must be a boolean")
		}
		activeOnly = v
	}

	shippers, err := h.shippers.List(c.UserContext(), activeOnly)
	if err != nil {
		return h.fail(c, err)
	}
	if shippers == nil {
		shippers = []domain.Shipper{}
	}
	return c.JSON(shippers)
}

// bind parses and validates the request body.
func (h *ShipmentHandler) bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return errors.New("invalid request body")
	}
	if err := h.validate.Struct(out); err != nil {
		return errors.New(validation.Message(err))
	}
	return nil
}

// fail maps service errors onto HTTP statuses.
func (h *ShipmentHandler) fail(c *fiber.Ctx, err error) error {
	switch {
	case service.IsNotFound(err):
		return h.respond(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNoTrackingNumber), errors.Is(err, service.ErrReferenceRequired):
		return h.respond(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrRejected):
		return h.respond(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrUpstream):
		return h.respond(c, fiber.StatusBadGateway, err.Error())
	}

	logger.Get().Error("Shipment request failed", zap.String("path", c.Path()), zap.Error(err))
	return h.respond(c, fiber.StatusInternalServerError, "internal server error")
}

func (h *ShipmentHandler) respond(c *fiber.Ctx, status int, msg string) error {
	rayID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(ErrorResponse{Message: msg, RayID: rayID})
}
