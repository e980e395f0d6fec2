package controller

import (
	"errors"

	"friendlist-be/internal/dto"
	"friendlist-be/internal/pkg/serverutils"
	"friendlist-be/internal/service"
	"friendlist-be/pkg/assistant/conversation"

	"github.com/gofiber/fiber/v2"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Submit(ctx *fiber.Ctx) error
	Accept(ctx *fiber.Ctx) error
	Reject(ctx *fiber.Ctx) error
	CommitRecommendation(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
}

type assistantController struct {
	service service.IAssistantService
	auth    serverutils.TokenParser
}

func NewAssistantController(service service.IAssistantService, auth serverutils.TokenParser) IAssistantController {
	return &assistantController{service: service, auth: auth}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1/conversations")
	h.Use(serverutils.JwtMiddleware(c.auth))
	h.Post("", c.Start)
	h.Get(":id", c.Show)
	h.Post(":id/turns", c.Submit)
	h.Post(":id/messages/:messageId/accept", c.Accept)
	h.Post(":id/messages/:messageId/reject", c.Reject)
	h.Post(":id/messages/:messageId/recommendations/:index", c.CommitRecommendation)
	h.Delete(":id/messages", c.Clear)
}

func (c *assistantController) Start(ctx *fiber.Ctx) error {
	res, err := c.service.Start(ctx.Context(), serverutils.SessionFrom(ctx))
	if err != nil {
		return assistantError(err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success start conversation", res))
}

func (c *assistantController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.Get(ctx.Context(), serverutils.SessionFrom(ctx), ctx.Params("id"))
	if err != nil {
		return assistantError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show conversation", res))
}

func (c *assistantController) Submit(ctx *fiber.Ctx) error {
	var req dto.SubmitTurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Submit(ctx.Context(), serverutils.SessionFrom(ctx), ctx.Params("id"), &req)
	if err != nil {
		return assistantError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success submit turn", res))
}

func (c *assistantController) Accept(ctx *fiber.Ctx) error {
	res, err := c.service.Accept(ctx.Context(), serverutils.SessionFrom(ctx), ctx.Params("id"), ctx.Params("messageId"))
	if err != nil {
		return assistantError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success accept proposal", res))
}

func (c *assistantController) Reject(ctx *fiber.Ctx) error {
	res, err := c.service.Reject(ctx.Context(), serverutils.SessionFrom(ctx), ctx.Params("id"), ctx.Params("messageId"))
	if err != nil {
		return assistantError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success reject proposal", res))
}

func (c *assistantController) CommitRecommendation(ctx *fiber.Ctx) error {
	index, err := ctx.ParamsInt("index")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid recommendation index")
	}

	res, err := c.service.CommitRecommendation(ctx.Context(), serverutils.SessionFrom(ctx), ctx.Params("id"), ctx.Params("messageId"), index)
	if err != nil {
		return assistantError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success add recommendation", res))
}

func (c *assistantController) Clear(ctx *fiber.Ctx) error {
	res, err := c.service.Clear(ctx.Context(), serverutils.SessionFrom(ctx), ctx.Params("id"))
	if err != nil {
		return assistantError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success clear conversation", res))
}

func assistantError(err error) error {
	switch {
	case errors.Is(err, service.ErrConversationNotFound),
		errors.Is(err, conversation.ErrMessageNotFound),
		errors.Is(err, conversation.ErrRecommendationNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, conversation.ErrTurnInFlight),
		errors.Is(err, conversation.ErrTurnDiscarded):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, conversation.ErrNoProposal),
		errors.Is(err, conversation.ErrEmptyInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, conversation.ErrSessionExpired):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	return err
}
