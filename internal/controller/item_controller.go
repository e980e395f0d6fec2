package controller

import (
	"errors"

	"friendlist-be/internal/dto"
	"friendlist-be/internal/pkg/serverutils"
	"friendlist-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IItemController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	ToggleDone(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type itemController struct {
	service service.IItemService
	auth    serverutils.TokenParser
}

func NewItemController(service service.IItemService, auth serverutils.TokenParser) IItemController {
	return &itemController{service: service, auth: auth}
}

func (c *itemController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/item/v1")
	h.Use(serverutils.JwtMiddleware(c.auth))
	h.Get("", c.GetAll)
	h.Get("stats", c.Stats)
	h.Post("", c.Create)
	h.Put(":id", c.Update)
	h.Patch(":id/done", c.ToggleDone)
	h.Delete(":id", c.Delete)
}

func (c *itemController) GetAll(ctx *fiber.Ctx) error {
	var filter dto.ItemFilter
	if err := ctx.QueryParser(&filter); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}

	res, err := c.service.List(ctx.Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all items", res))
}

func (c *itemController) Stats(ctx *fiber.Ctx) error {
	res, err := c.service.Stats(ctx.Context(), ctx.QueryBool("show_done", false))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get item stats", res))
}

func (c *itemController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateItemRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create item", res))
}

func (c *itemController) Update(ctx *fiber.Ctx) error {
	id, err := itemID(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateItemRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.Context(), id, &req)
	if err != nil {
		return itemError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update item", res))
}

func (c *itemController) ToggleDone(ctx *fiber.Ctx) error {
	id, err := itemID(ctx)
	if err != nil {
		return err
	}

	var req dto.ToggleDoneRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SetDone(ctx.Context(), id, *req.Done)
	if err != nil {
		return itemError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update item", res))
}

func (c *itemController) Delete(ctx *fiber.Ctx) error {
	id, err := itemID(ctx)
	if err != nil {
		return err
	}

	deleted, err := c.service.Delete(ctx.Context(), id)
	if err != nil {
		return err
	}
	if !deleted {
		return fiber.NewError(fiber.StatusNotFound, "Item not found")
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete item", nil))
}

func itemID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid item id")
	}
	return id, nil
}

func itemError(err error) error {
	if errors.Is(err, service.ErrItemNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Item not found")
	}
	return err
}
