package service

import (
	"context"
	"fmt"
	"strings"

	"academic-rag-be/internal/pkg/logger"
	"academic-rag-be/pkg/events"
	pktNats "academic-rag-be/pkg/nats"
)

// EventLogService consumes the domain event stream and writes a structured
// audit line per event. It is the default JetStream consumer, so the EVENTS
// stream drains even when no other worker is attached.
type EventLogService struct {
	subscriber *pktNats.Subscriber
	logger     logger.ILogger
}

func NewEventLogService(sub *pktNats.Subscriber, log logger.ILogger) *EventLogService {
	return &EventLogService{
		subscriber: sub,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *EventLogService) Start() {
	subject := pktNats.SubjectPrefix + ">"
	err := s.subscriber.Subscribe(subject, "event-log-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("EventLogService", "Failed to start event log subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("EventLogService", fmt.Sprintf("Event log service started, listening to %s", subject), nil)
}

func (s *EventLogService) handleEvent(ctx context.Context, event events.Event) error {
	// The NATS subject includes the stream prefix
	typeCode := strings.TrimPrefix(event.EventType(), pktNats.SubjectPrefix)
	s.logger.Info("EventLog", fmt.Sprintf("Event: %s", typeCode), event.Payload())
	return nil
}
