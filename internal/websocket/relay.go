package websocket

import (
	"encoding/json"

	"academic-rag-be/pkg/agent/trace"

	"github.com/google/uuid"
)

// TraceRelay forwards the trace events of one run to every websocket
// client watching the conversation. It satisfies trace.Sink; Relay hands
// off to Redis or a buffered client channel, so Write never blocks the run.
type TraceRelay struct {
	hub            *Hub
	conversationID uuid.UUID
}

func NewTraceRelay(hub *Hub, conversationID uuid.UUID) *TraceRelay {
	return &TraceRelay{hub: hub, conversationID: conversationID}
}

func (r *TraceRelay) Write(ev trace.Event) {
	data, err := json.Marshal(map[string]interface{}{
		"type": "trace_event",
		"data": ev,
	})
	if err != nil {
		return
	}
	r.hub.Relay(r.conversationID, data)
}
