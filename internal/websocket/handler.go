package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs attaches a websocket connection to the trace stream of one
// conversation.
func ServeWs(hub *Hub, c *websocket.Conn, conversationID uuid.UUID) {
	client := &Client{Hub: hub, Conn: c, ConversationID: conversationID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
