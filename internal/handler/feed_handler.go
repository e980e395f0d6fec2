package handler

import (
	"friendlist-be/internal/dto"
	"friendlist-be/internal/pkg/logger"
	"friendlist-be/internal/pkg/serverutils"
	"friendlist-be/internal/service"
	internalWS "friendlist-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// FeedHandler serves the realtime list stream and the recent change log.
type FeedHandler struct {
	items    service.IItemService
	activity service.IActivityService
	hub      *internalWS.Hub
	auth     serverutils.TokenParser
	logger   logger.ILogger
}

func NewFeedHandler(items service.IItemService, activity service.IActivityService, hub *internalWS.Hub, auth serverutils.TokenParser, log logger.ILogger) *FeedHandler {
	return &FeedHandler{
		items:    items,
		activity: activity,
		hub:      hub,
		auth:     auth,
		logger:   log,
	}
}

// ServeWs upgrades the request and streams a full snapshot on every list change,
// starting with the current one.
func (h *FeedHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	session := serverutils.SessionFrom(c)
	if session == nil {
		return fiber.ErrUnauthorized
	}

	items, err := h.items.List(c.Context(), dto.ItemFilter{ShowDone: true})
	if err != nil {
		return err
	}
	initial, err := internalWS.Encode(items)
	if err != nil {
		return err
	}

	subject := session.Subject
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("FeedHandler", "Starting WebSocket session", map[string]interface{}{"subject": subject})
		internalWS.ServeWs(h.hub, conn, subject, initial)
		h.logger.Info("FeedHandler", "WebSocket session ended", map[string]interface{}{"subject": subject})
	})(c)
}

func (h *FeedHandler) GetActivity(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	return c.JSON(serverutils.SuccessResponse("Success get item activity", h.activity.Recent(limit)))
}

func (h *FeedHandler) RegisterRoutes(router fiber.Router) {
	feed := router.Group("/item/v1")
	feed.Use(serverutils.JwtMiddleware(h.auth))
	feed.Get("/ws", h.ServeWs)
	feed.Get("/activity", h.GetActivity)
}
