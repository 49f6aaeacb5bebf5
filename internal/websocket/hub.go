package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"academic-rag-be/internal/constant"
	"academic-rag-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Hub struct {
	// Registered clients map: ConversationID -> List of Clients (multi-tab)
	clients map[uuid.UUID][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance fan-out
	rdb *redis.Client

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ConversationID] = append(h.clients[client.ConversationID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"conversation_id": client.ConversationID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.ConversationID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.ConversationID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.ConversationID]) == 0 {
					delete(h.clients, client.ConversationID)
					h.logger.Info("Hub", "Conversation has no watchers left", map[string]interface{}{"conversation_id": client.ConversationID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Relay delivers a payload to every client watching the conversation.
// With Redis attached the payload goes through the shared channel so each
// client receives it exactly once no matter which instance ran the query;
// local delivery then happens in the subscriber loop. Without Redis the
// payload goes straight to local clients.
func (h *Hub) Relay(conversationID uuid.UUID, data []byte) {
	if h.rdb != nil {
		payload := map[string]interface{}{
			"conversation_id": conversationID.String(),
			"message":         json.RawMessage(data),
		}
		jsonPayload, _ := json.Marshal(payload)
		h.rdb.Publish(context.Background(), constant.TraceEventsChannel, jsonPayload)
		return
	}

	h.deliverLocal(conversationID, data)
}

func (h *Hub) deliverLocal(conversationID uuid.UUID, data []byte) {
	h.mu.RLock()
	clients, ok := h.clients[conversationID]
	h.mu.RUnlock()

	if !ok {
		return
	}

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			// Buffer full means the reader is gone; drop and let the
			// unregister path close the channel once.
			h.logger.Warn("Hub", "Client Send buffer full, dropping message", map[string]interface{}{"conversation_id": conversationID})
			h.unregister <- client
		}
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, constant.TraceEventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			ConversationID string          `json:"conversation_id"`
			Message        json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		cid, err := uuid.Parse(payload.ConversationID)
		if err != nil {
			continue
		}

		h.deliverLocal(cid, payload.Message)
	}
}
