package dto

import (
	"time"

	"academic-rag-be/pkg/agent/trace"
)

type ChatRequest struct {
	Message        string `json:"message" validate:"required,min=1,max=2000"`
	ConversationId string `json:"conversation_id,omitempty" validate:"omitempty,uuid4"`
	IncludeTrace   bool   `json:"include_trace,omitempty"`
}

// SourceDTO is one cited document fragment in a chat response.
type SourceDTO struct {
	Document   string  `json:"document"`
	Source     string  `json:"source"`
	Similarity float64 `json:"similarity"`
}

type ChatResponse struct {
	Answer         string        `json:"answer"`
	Sources        []SourceDTO   `json:"sources"`
	ConversationId string        `json:"conversation_id"`
	Timestamp      time.Time     `json:"timestamp"`
	Trace          []trace.Event `json:"trace,omitempty"`
}

type ConversationMessageDTO struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type ConversationHistoryResponse struct {
	ConversationId string                   `json:"conversation_id"`
	Messages       []ConversationMessageDTO `json:"messages"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

type ConversationSummaryDTO struct {
	ConversationId string    `json:"conversation_id"`
	MessageCount   int       `json:"message_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
