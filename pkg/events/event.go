package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "QUERY_ANSWERED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewQueryAnswered reports a completed chat run to downstream consumers
// (analytics, audit).
func NewQueryAnswered(conversationID string, retryCount int, elapsedSeconds float64, sourceCount int) Event {
	return BaseEvent{
		Type: "QUERY_ANSWERED",
		Data: map[string]interface{}{
			"conversation_id": conversationID,
			"retry_count":     retryCount,
			"elapsed_seconds": elapsedSeconds,
			"source_count":    sourceCount,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentIndexed reports that a document finished (re)indexing.
func NewDocumentIndexed(documentID string, chunkCount int) Event {
	return BaseEvent{
		Type: "DOCUMENT_INDEXED",
		Data: map[string]interface{}{
			"document_id": documentID,
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}
