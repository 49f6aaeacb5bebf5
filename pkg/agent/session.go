package agent

import (
	"academic-rag-be/pkg/agent/trace"
	"academic-rag-be/pkg/llm"
	"academic-rag-be/pkg/retrieval"
)

// Status of one run.
type Status string

const (
	StatusRunning  Status = "running"
	StatusAnswered Status = "answered"
	StatusFailed   Status = "failed"
)

// Session is the mutable state of one query run, owned exclusively by the
// machine for the run's duration and discarded afterwards. Only the
// conversation crosses run boundaries, and the session holds a private
// copy of it.
type Session struct {
	OriginalQuery string
	ActiveQuery   string

	RetrievedItems []retrieval.Item
	RelevantItems  []retrieval.Item

	RetryCount   int
	Conversation []llm.Message

	FinalAnswer string
	Citations   []trace.Citation
	Status      Status
}

func newSession(query string, conversation []llm.Message) *Session {
	return &Session{
		OriginalQuery: query,
		ActiveQuery:   query,
		Conversation:  conversation,
		Status:        StatusRunning,
	}
}

// windowed copies the most recent n messages so the run never shares or
// mutates caller memory.
func windowed(history []llm.Message, n int) []llm.Message {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	out := make([]llm.Message, len(history))
	copy(out, history)
	return out
}
