package handler

import (
	"errors"

	"go-priceledger/internal/model"
	"go-priceledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	service service.ProductLedgerService
}

func NewProductHandler(s service.ProductLedgerService) *ProductHandler {
	return &ProductHandler{service: s}
}

// UpdatePricesRequest represents the price update request body. Both fields
// are optional; absent fields leave the corresponding price untouched.
type UpdatePricesRequest struct {
	NewSellPrice *decimal.Decimal `json:"new_sell_price"`
	NewCostPrice *decimal.Decimal `json:"new_cost_price"`
}

// GetProducts lists products with their history and derived prices
// GET /api/v1/products?active_only=true
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active_only", true)

	products, err := h.service.Find(activeOnly)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	responses := make([]model.ProductResponse, len(products))
	for i := range products {
		responses[i] = products[i].ToResponse()
	}
	return c.JSON(responses)
}

// CreateProduct creates a product together with its baseline cost entry
// POST /api/v1/products
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	product, err := h.service.Create(&req)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product.ToResponse()})
}

// UpdatePrices updates sell and/or cost price of a product
// PATCH /api/v1/products/:id/prices
func (h *ProductHandler) UpdatePrices(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req UpdatePricesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	product, err := h.service.UpdatePrices(productID, req.NewSellPrice, req.NewCostPrice)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Prices updated", "data": product.ToResponse()})
}

// respondServiceError maps ledger errors to HTTP statuses: a lookup miss is a
// 404, a rejected field is a 422, anything else is a storage failure.
func respondServiceError(c *fiber.Ctx, err error) error {
	var validationErr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &validationErr):
		return c.Status(422).JSON(fiber.Map{"error": validationErr.Error(), "field": validationErr.Field})
	default:
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
}
