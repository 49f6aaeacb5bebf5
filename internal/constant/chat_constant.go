package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
)

// Redis channel carrying live trace events toward websocket subscribers.
const TraceEventsChannel = "trace_events"
