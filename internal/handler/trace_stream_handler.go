package handler

import (
	"academic-rag-be/internal/pkg/logger"
	internalWS "academic-rag-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// TraceStreamHandler upgrades websocket connections that watch the live
// trace events of one conversation.
type TraceStreamHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewTraceStreamHandler(hub *internalWS.Hub, log logger.ILogger) *TraceStreamHandler {
	return &TraceStreamHandler{
		hub:    hub,
		logger: log,
	}
}

// ServeWs handles websocket requests from the peer.
func (h *TraceStreamHandler) ServeWs(c *fiber.Ctx) error {
	conversationID, err := uuid.Parse(c.Params("conversation_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation ID format"})
	}

	// Upgrade via Fiber WebSocket Middleware
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(c *websocket.Conn) {
			h.logger.Info("TraceStreamHandler", "Starting WebSocket session", map[string]interface{}{"conversation_id": conversationID})
			internalWS.ServeWs(h.hub, c, conversationID)
			h.logger.Info("TraceStreamHandler", "WebSocket session ended", map[string]interface{}{"conversation_id": conversationID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// RegisterRoutes registers the websocket route.
func (h *TraceStreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/chat/:conversation_id", h.ServeWs)
}
