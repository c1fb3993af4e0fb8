package handler

import (
	"strconv"

	"leopards-connector/internal/core/logger"
	"leopards-connector/internal/core/validation"
	"leopards-connector/internal/features/upselling/domain"
	"leopards-connector/internal/features/upselling/ports"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UpsellHandler handles HTTP requests for POS upselling.
type UpsellHandler struct {
	service  ports.UpsellService
	validate *validator.Validate
}

// NewUpsellHandler creates a new UpsellHandler.
func NewUpsellHandler(service ports.UpsellService) *UpsellHandler {
	return &UpsellHandler{service: service, validate: validation.New()}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

// CreateRuleRequest is the body of POST /upsell-rules.
type CreateRuleRequest struct {
	Name string `json:"name"`
	// Active defaults to true.
	Active     *bool  `json:"active"`
	ConfigIDs  []uint `json:"config_ids" validate:"required,min=1,dive,gt=0"`
	ProductIDs []uint `json:"product_ids" validate:"required,min=1,dive,gt=0"`
}

// Register mounts the upselling routes.
func (h *UpsellHandler) Register(r fiber.Router) {
	r.Post("/upsell-rules", h.CreateRule)
	r.Post("/pos/products", h.SaveProduct)
	r.Get("/pos/configs/:id/upsell-products", h.GetUpsellProducts)
}

// CreateRule godoc
// @Summary Create an upsell rule
// @Description Attaches products to POS configs for the checkout upsell popup
// @Tags upselling
// @Accept json
// @Produce json
// @Param rule body CreateRuleRequest true "Rule"
// @Success 201 {object} domain.Rule
// @Failure 400 {object} ErrorResponse
// @Router /upsell-rules [post]
func (h *UpsellHandler) CreateRule(c *fiber.Ctx) error {
	var req CreateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respond(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.respond(c, fiber.StatusBadRequest, validation.Message(err))
	}

	rule := domain.Rule{
		Name:       req.Name,
		Active:     req.Active == nil || *req.Active,
		ConfigIDs:  req.ConfigIDs,
		ProductIDs: req.ProductIDs,
	}
	if err := h.service.CreateRule(c.UserContext(), &rule); err != nil {
		return h.internal(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rule)
}

// SaveProduct godoc
// @Summary Create or update a POS product
// @Tags upselling
// @Accept json
// @Produce json
// @Param product body domain.Product true "Product"
// @Success 200 {object} domain.Product
// @Failure 400 {object} ErrorResponse
// @Router /pos/products [post]
func (h *UpsellHandler) SaveProduct(c *fiber.Ctx) error {
	var product domain.Product
	if err := c.BodyParser(&product); err != nil {
		return h.respond(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(product); err != nil {
		return h.respond(c, fiber.StatusBadRequest, validation.Message(err))
	}

	if err := h.service.SaveProduct(c.UserContext(), &product); err != nil {
		return h.internal(c, err)
	}
	return c.JSON(product)
}

// GetUpsellProducts godoc
// @Summary Get upsell products for a POS config
// @Description Returns the active, sellable POS products of the active rules linked to the config
// @Tags upselling
// @Produce json
// @Param id path int true "POS config ID"
// @Success 200 {array} domain.Product
// @Failure 400 {object} ErrorResponse
// @Router /pos/configs/{id}/upsell-products [get]
func (h *UpsellHandler) GetUpsellProducts(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return h.respond(c, fiber.StatusBadRequest, "invalid config id")
	}

	products, err := h.service.ProductsForConfig(c.UserContext(), uint(id))
	if err != nil {
		return h.internal(c, err)
	}
	return c.JSON(products)
}

func (h *UpsellHandler) internal(c *fiber.Ctx, err error) error {
	logger.Get().Error("Upselling request failed", zap.String("path", c.Path()), zap.Error(err))
	return h.respond(c, fiber.StatusInternalServerError, "internal server error")
}

func (h *UpsellHandler) respond(c *fiber.Ctx, status int, msg string) error {
	rayID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(ErrorResponse{Message: msg, RayID: rayID})
}
