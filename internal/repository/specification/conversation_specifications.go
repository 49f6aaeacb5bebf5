package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByConversationID matches messages belonging to one conversation.
type ByConversationID struct {
	ConversationID uuid.UUID
}

func (s ByConversationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationID)
}
