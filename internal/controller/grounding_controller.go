package controller

import (
	"errors"

	"friendlist-be/internal/dto"
	"friendlist-be/internal/pkg/serverutils"
	"friendlist-be/internal/service"
	"friendlist-be/pkg/grounding"
	"friendlist-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
)

// IGroundingController serves the unauthenticated fetch and gateway routes. They
// answer with bare JSON bodies, not the response envelope.
type IGroundingController interface {
	RegisterRoutes(r fiber.Router)
	Scrape(ctx *fiber.Ctx) error
	Places(ctx *fiber.Ctx) error
	Complete(ctx *fiber.Ctx) error
	PlaceInfo(ctx *fiber.Ctx) error
}

type groundingController struct {
	service service.IGroundingService
}

func NewGroundingController(service service.IGroundingService) IGroundingController {
	return &groundingController{service: service}
}

func (c *groundingController) RegisterRoutes(r fiber.Router) {
	r.Post("/scrape", c.Scrape)
	r.Post("/places", c.Places)
	r.Post("/grok", c.Complete)
	r.Post("/search", c.PlaceInfo)
}

func errorBody(ctx *fiber.Ctx, status int, message string) error {
	return ctx.Status(status).JSON(fiber.Map{"error": message})
}

func (c *groundingController) Scrape(ctx *fiber.Ctx) error {
	var req dto.ScrapeRequest
	_ = ctx.BodyParser(&req)

	page, err := c.service.Scrape(ctx.Context(), req.Url)
	if err != nil {
		if errors.Is(err, service.ErrURLRequired) {
			return errorBody(ctx, fiber.StatusBadRequest, "URL is required")
		}
		return errorBody(ctx, fiber.StatusBadRequest, "Failed to fetch URL")
	}
	return ctx.JSON(page)
}

func (c *groundingController) Places(ctx *fiber.Ctx) error {
	var req dto.PlacesRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errorBody(ctx, fiber.StatusBadRequest, "Invalid request body")
	}

	res, err := c.service.Places(ctx.Context(), req.Query)
	if err != nil {
		if errors.Is(err, grounding.ErrPlacesNotConfigured) {
			return errorBody(ctx, fiber.StatusInternalServerError, "Google Places API key not configured")
		}
		return errorBody(ctx, fiber.StatusInternalServerError, "Failed to search places")
	}
	return ctx.JSON(res)
}

func (c *groundingController) Complete(ctx *fiber.Ctx) error {
	var req dto.ChatCompletionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errorBody(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return errorBody(ctx, fiber.StatusBadRequest, err.Error())
	}

	res, err := c.service.Complete(ctx.Context(), &req)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			return errorBody(ctx, fiber.StatusInternalServerError, "Grok API key not configured")
		}
		return errorBody(ctx, fiber.StatusInternalServerError, "Failed to get AI response")
	}
	return ctx.JSON(res)
}

func (c *groundingController) PlaceInfo(ctx *fiber.Ctx) error {
	var req dto.PlaceLookupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errorBody(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return errorBody(ctx, fiber.StatusBadRequest, "Query is required")
	}

	res, err := c.service.PlaceInfo(ctx.Context(), &req)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			return errorBody(ctx, fiber.StatusInternalServerError, "API key not configured")
		}
		return errorBody(ctx, fiber.StatusInternalServerError, "Search failed")
	}
	return ctx.JSON(res)
}
