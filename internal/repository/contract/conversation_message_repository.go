package contract

import (
	"context"

	"academic-rag-be/internal/entity"
	"academic-rag-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ConversationMessageRepository interface {
	Create(ctx context.Context, message *entity.ConversationMessage) error
	DeleteByConversationId(ctx context.Context, conversationId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
