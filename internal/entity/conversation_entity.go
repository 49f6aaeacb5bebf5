package entity

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	Id        uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

type ConversationMessage struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationId uuid.UUID `gorm:"type:uuid;index"`
	Role           string
	Content        string
	Citations      []MessageCitation
	RetryCount     int
	CreatedAt      time.Time
}

// MessageCitation is the persisted form of a source reference attached to
// an assistant message.
type MessageCitation struct {
	Document   string  `json:"document"`
	Source     string  `json:"source"`
	Similarity float64 `json:"similarity"`
}
