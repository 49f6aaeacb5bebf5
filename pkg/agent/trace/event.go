package trace

import (
	"math"
	"time"
)

// Kind identifies the shape of a trace event payload.
type Kind string

const (
	KindNodeStart          Kind = "node_start"
	KindNodeEnd            Kind = "node_end"
	KindThought            Kind = "thought"
	KindDocumentsRetrieved Kind = "documents_retrieved"
	KindGradingResult      Kind = "grading_result"
	KindRewrite            Kind = "rewrite"
	KindFinalAnswer        Kind = "final_answer"
	KindDone               Kind = "done"
	KindError              Kind = "error"
)

// Citation is one evidence reference attached to a final answer. Document
// holds a bounded excerpt, Source the file the excerpt came from.
type Citation struct {
	Document   string  `json:"document"`
	Source     string  `json:"source"`
	Similarity float64 `json:"similarity"`
}

// Event is one immutable record in a run's decision trace. Only the fields
// belonging to the event's Kind are populated; numeric fields use pointers
// so a meaningful zero (document_count: 0) survives serialization while
// fields foreign to the kind stay omitted. Sources carries []string on
// documents_retrieved events and []Citation on final_answer events, the
// two shapes the consumer UI expects under the same key.
type Event struct {
	Kind      Kind      `json:"event_type"`
	Node      string    `json:"node_name,omitempty"`
	Iteration int       `json:"iteration"`
	Timestamp time.Time `json:"timestamp"`

	Thought string `json:"thought,omitempty"`
	Action  string `json:"action,omitempty"`

	DocumentCount *int `json:"document_count,omitempty"`
	Sources       any  `json:"sources,omitempty"`

	RelevantCount *int   `json:"relevant_count,omitempty"`
	TotalCount    *int   `json:"total_count,omitempty"`
	Decision      string `json:"decision,omitempty"`
	Forced        *bool  `json:"forced,omitempty"`

	OriginalQuery  string `json:"original_query,omitempty"`
	RewrittenQuery string `json:"rewritten_query,omitempty"`

	Answer          string `json:"answer,omitempty"`
	TotalIterations *int   `json:"total_iterations,omitempty"`

	Success          *bool    `json:"success,omitempty"`
	TotalTimeSeconds *float64 `json:"total_time_seconds,omitempty"`

	ErrorMessage string `json:"error_message,omitempty"`
}

// SourceList returns the source names of a documents_retrieved event.
func (e Event) SourceList() []string {
	names, _ := e.Sources.([]string)
	return names
}

// CitationList returns the citations of a final_answer event.
func (e Event) CitationList() []Citation {
	citations, _ := e.Sources.([]Citation)
	return citations
}

func NewNodeStart(node string) Event {
	return Event{Kind: KindNodeStart, Node: node}
}

func NewNodeEnd(node string) Event {
	return Event{Kind: KindNodeEnd, Node: node}
}

func NewThought(node, thought, action string) Event {
	return Event{Kind: KindThought, Node: node, Thought: thought, Action: action}
}

func NewDocumentsRetrieved(node string, count int, sources []string) Event {
	if sources == nil {
		sources = []string{}
	}
	return Event{Kind: KindDocumentsRetrieved, Node: node, DocumentCount: &count, Sources: sources}
}

func NewGradingResult(node string, relevant, total int, decision string, forced bool) Event {
	return Event{
		Kind:          KindGradingResult,
		Node:          node,
		RelevantCount: &relevant,
		TotalCount:    &total,
		Decision:      decision,
		Forced:        &forced,
	}
}

func NewRewrite(node, original, rewritten string) Event {
	return Event{Kind: KindRewrite, Node: node, OriginalQuery: original, RewrittenQuery: rewritten}
}

func NewFinalAnswer(node, answer string, citations []Citation, totalIterations int) Event {
	if citations == nil {
		citations = []Citation{}
	}
	return Event{
		Kind:            KindFinalAnswer,
		Node:            node,
		Answer:          answer,
		Sources:         citations,
		TotalIterations: &totalIterations,
	}
}

func NewDone(success bool, elapsed time.Duration, totalIterations int) Event {
	seconds := math.Round(elapsed.Seconds()*100) / 100
	return Event{
		Kind:             KindDone,
		Success:          &success,
		TotalTimeSeconds: &seconds,
		TotalIterations:  &totalIterations,
	}
}

func NewError(node, message string) Event {
	return Event{Kind: KindError, Node: node, ErrorMessage: message}
}
